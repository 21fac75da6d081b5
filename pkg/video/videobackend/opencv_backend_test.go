package videobackend

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/stretchr/testify/require"
	"github.com/tauraamui/swingcam/pkg/configdef"
	"gocv.io/x/gocv"
)

type fakeVideoCapture struct {
	props map[gocv.VideoCaptureProperties]float64
}

func (c *fakeVideoCapture) IsOpened() bool { return true }

func (c *fakeVideoCapture) Set(prop gocv.VideoCaptureProperties, value float64) {
	if c.props == nil {
		c.props = map[gocv.VideoCaptureProperties]float64{}
	}
	c.props[prop] = value
}

func (c *fakeVideoCapture) Get(prop gocv.VideoCaptureProperties) float64 { return c.props[prop] }
func (c *fakeVideoCapture) Read(mat *gocv.Mat) bool                      { return false }
func (c *fakeVideoCapture) Close() error                                 { return nil }

type fakeVideoWriter struct {
	mu       sync.Mutex
	frames   int
	writeErr error
	closed   bool
}

func (w *fakeVideoWriter) IsOpened() bool { return true }

func (w *fakeVideoWriter) Write(mat gocv.Mat) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writeErr != nil {
		return w.writeErr
	}
	w.frames++
	return nil
}

func (w *fakeVideoWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeVideoWriter) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func openCVTestConfig() configdef.Values {
	return configdef.Values{
		Width:                  64,
		Height:                 48,
		FPS:                    30,
		Duration:               1,
		Format:                 configdef.FormatMP4,
		LMMaxRecordingDuration: 2,
	}
}

func fakeOpenCVBackend(t *testing.T, read func(*gocv.Mat) bool, writer *fakeVideoWriter) *openCVBackend {
	t.Helper()

	openVideoCaptureRef := openVideoCapture
	openVideoCapture = func(device interface{}) (videoCapturable, error) {
		return &fakeVideoCapture{}, nil
	}
	openVideoWriterRef := openVideoWriter
	openVideoWriter = func(string, string, float64, int, int, bool) (videoWriteable, error) {
		return writer, nil
	}
	readFromVideoCaptureRef := readFromVideoCapture
	readFromVideoCapture = func(vc videoCapturable, mat *gocv.Mat) bool {
		return read(mat)
	}
	t.Cleanup(func() {
		openVideoCapture = openVideoCaptureRef
		openVideoWriter = openVideoWriterRef
		readFromVideoCapture = readFromVideoCaptureRef
	})

	backend := &openCVBackend{}
	require.NoError(t, backend.Setup(openCVTestConfig()))
	return backend
}

func TestOpenCVBackendLifecycleIdempotence(t *testing.T) {
	is := is.New(t)

	backend := fakeOpenCVBackend(t, func(*gocv.Mat) bool { return false }, &fakeVideoWriter{})
	is.NoErr(backend.Start())
	is.NoErr(backend.Start())
	is.NoErr(backend.Stop())
	is.NoErr(backend.Stop())
	is.NoErr(backend.Cleanup())
	is.NoErr(backend.Cleanup())

	err := backend.Setup(openCVTestConfig())
	is.True(errors.Is(err, ErrConfiguration))
}

func TestOpenCVRecordCancelObservedWhileFrameDeliveryStalled(t *testing.T) {
	is := is.New(t)

	// A device at a very low frame rate, or one that hangs mid-read,
	// must not delay cancellation past the documented poll bound.
	release := make(chan struct{})
	defer close(release)
	stalledRead := func(*gocv.Mat) bool {
		<-release
		return false
	}

	writer := &fakeVideoWriter{}
	backend := fakeOpenCVBackend(t, stalledRead, writer)

	cancel := make(chan struct{})
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(cancel)
	}()

	start := time.Now()
	path, err := backend.Record("/recordings/swing_test.mp4", 30*time.Second, cancel)
	is.NoErr(err)
	is.Equal(path, "/recordings/swing_test.mp4")
	is.True(time.Since(start) < time.Second)
	is.True(writer.isClosed())
}

func TestOpenCVRecordStopsAtDuration(t *testing.T) {
	is := is.New(t)

	read := func(mat *gocv.Mat) bool {
		*mat = gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3)
		return true
	}

	writer := &fakeVideoWriter{}
	backend := fakeOpenCVBackend(t, read, writer)

	start := time.Now()
	path, err := backend.Record("/recordings/swing_test.mp4", 100*time.Millisecond, nil)
	is.NoErr(err)
	is.Equal(path, "/recordings/swing_test.mp4")
	is.True(time.Since(start) < time.Second)

	writer.mu.Lock()
	frames := writer.frames
	writer.mu.Unlock()
	is.True(frames > 0)
	is.True(writer.isClosed())
}

func TestOpenCVRecordFailsWhenNoFramesReadable(t *testing.T) {
	is := is.New(t)

	writer := &fakeVideoWriter{}
	backend := fakeOpenCVBackend(t, func(*gocv.Mat) bool { return false }, writer)

	_, err := backend.Record("/recordings/swing_test.mp4", time.Second, nil)
	is.True(errors.Is(err, ErrRecord))
	is.True(writer.isClosed())
}

func TestOpenCVRecordSurfacesWriteFailure(t *testing.T) {
	is := is.New(t)

	read := func(mat *gocv.Mat) bool {
		*mat = gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3)
		return true
	}

	writer := &fakeVideoWriter{writeErr: errors.New("disk full")}
	backend := fakeOpenCVBackend(t, read, writer)

	_, err := backend.Record("/recordings/swing_test.mp4", time.Second, nil)
	is.True(errors.Is(err, ErrRecord))
	is.True(writer.isClosed())
}

func TestOpenCVRecordNormalizesRawCodecExtension(t *testing.T) {
	is := is.New(t)

	read := func(mat *gocv.Mat) bool {
		*mat = gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3)
		return true
	}

	backend := fakeOpenCVBackend(t, read, &fakeVideoWriter{})

	path, err := backend.Record("/recordings/swing_test.h264", 50*time.Millisecond, nil)
	is.NoErr(err)
	is.Equal(path, "/recordings/swing_test.mp4")
}
