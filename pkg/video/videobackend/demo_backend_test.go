package videobackend

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/tauraamui/swingcam/pkg/configdef"
	"github.com/tauraamui/xerror"
)

func demoTestConfig() configdef.Values {
	return configdef.Values{
		Width:                  64,
		Height:                 48,
		FPS:                    10,
		Duration:               1,
		Format:                 configdef.FormatH264,
		LMMaxRecordingDuration: 2,
	}
}

func disableVideoWriter(t *testing.T) {
	t.Helper()
	openVideoWriterRef := openVideoWriter
	openVideoWriter = func(filename, codec string, fps float64, width, height int, isColor bool) (videoWriteable, error) {
		return nil, xerror.New("no encoder in test")
	}
	t.Cleanup(func() { openVideoWriter = openVideoWriterRef })
}

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	memfs := afero.NewMemMapFs()
	fs = memfs
	t.Cleanup(func() { fs = afero.NewOsFs() })
	return memfs
}

func TestDemoBackendIsAlwaysConstructible(t *testing.T) {
	is := is.New(t)
	backend := Demo()
	is.True(backend != nil)
	is.Equal(backend.Name(), "Demo Mode (No Camera)")
}

func TestDemoBackendLifecycleIdempotence(t *testing.T) {
	is := is.New(t)

	backend := Demo()
	is.NoErr(backend.Setup(demoTestConfig()))
	is.NoErr(backend.Start())
	is.NoErr(backend.Start())
	is.NoErr(backend.Stop())
	is.NoErr(backend.Stop())
	is.NoErr(backend.Cleanup())
	is.NoErr(backend.Cleanup())

	err := backend.Setup(demoTestConfig())
	is.True(errors.Is(err, ErrConfiguration))
}

func TestDemoBackendSetupRejectsNonPositiveFPS(t *testing.T) {
	is := is.New(t)

	config := demoTestConfig()
	config.FPS = 0
	err := Demo().Setup(config)
	is.True(errors.Is(err, ErrConfiguration))
}

func TestDemoRecordWithoutEncoderWritesPlaceholder(t *testing.T) {
	is := is.New(t)
	disableVideoWriter(t)
	memfs := useMemFs(t)

	backend := Demo()
	require.NoError(t, backend.Setup(demoTestConfig()))
	require.NoError(t, backend.Start())

	path, err := backend.Record("/recordings/swing_demo.h264", 50*time.Millisecond, nil)
	is.NoErr(err)
	is.Equal(path, "/recordings/swing_demo.mp4")

	data, err := afero.ReadFile(memfs, path)
	is.NoErr(err)
	is.True(strings.Contains(string(data), "DEMO VIDEO FILE"))
	is.True(strings.Contains(string(data), "64x48 @ 10fps"))
}

func TestDemoRecordPlaceholderPathHonorsCancel(t *testing.T) {
	is := is.New(t)
	disableVideoWriter(t)
	useMemFs(t)

	backend := Demo()
	require.NoError(t, backend.Setup(demoTestConfig()))

	cancel := make(chan struct{})
	close(cancel)

	start := time.Now()
	_, err := backend.Record("/recordings/swing_demo.mp4", 10*time.Second, cancel)
	is.NoErr(err)
	is.True(time.Since(start) < 2*time.Second)
}

func TestDemoRecordRequiresConfiguration(t *testing.T) {
	is := is.New(t)
	_, err := Demo().Record("/recordings/swing_demo.mp4", time.Second, nil)
	is.True(errors.Is(err, ErrRecord))
}

func TestRenderDemoFrameMarkerMovesAcrossFrame(t *testing.T) {
	is := is.New(t)

	first := renderDemoFrame(64, 48, 0, 100)
	last := renderDemoFrame(64, 48, 99, 100)
	is.True(first.Bounds().Dx() == 64)
	is.True(last.Bounds().Dy() == 48)

	// marker starts on the left fifth and finishes on the right
	_, leftG, _, _ := first.At(13, 24).RGBA()
	_, rightG, _, _ := last.At(50, 24).RGBA()
	is.True(leftG > 0)
	is.True(rightG > 0)
}
