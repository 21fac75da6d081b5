package videoclip

import (
	"context"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/tauraamui/xerror"
)

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	memfs := afero.NewMemMapFs()
	fs = memfs
	t.Cleanup(func() { fs = afero.NewOsFs() })
	return memfs
}

func overloadFFmpeg(t *testing.T, overload func(context.Context, []string) error) *[][]string {
	t.Helper()
	var invocations [][]string
	runFFmpegRef := runFFmpeg
	runFFmpeg = func(ctx context.Context, args []string) error {
		invocations = append(invocations, args)
		return overload(ctx, args)
	}
	t.Cleanup(func() { runFFmpeg = runFFmpegRef })
	return &invocations
}

func TestExtractTailDeletesInputOnSuccess(t *testing.T) {
	is := is.New(t)
	memfs := useMemFs(t)

	require.NoError(t, afero.WriteFile(memfs, "/recordings/temp_lm_1.mp4", []byte("footage"), 0644))

	invocations := overloadFFmpeg(t, func(ctx context.Context, args []string) error {
		return afero.WriteFile(memfs, args[len(args)-1], []byte("trimmed"), 0644)
	})

	is.True(ExtractTail("/recordings/temp_lm_1.mp4", "/recordings/swing_1.mp4", 5*time.Second))

	exists, err := afero.Exists(memfs, "/recordings/temp_lm_1.mp4")
	is.NoErr(err)
	is.True(!exists)

	exists, err = afero.Exists(memfs, "/recordings/swing_1.mp4")
	is.NoErr(err)
	is.True(exists)

	require.Len(t, *invocations, 1)
	args := (*invocations)[0]
	is.Equal(args[0], "-y")
	is.Equal(args[1], "-sseof")
	is.Equal(args[2], "-5")
	is.Equal(args[3], "-i")
	is.Equal(args[4], "/recordings/temp_lm_1.mp4")
	is.Equal(args[5], "-c")
	is.Equal(args[6], "copy")
	is.Equal(args[7], "/recordings/swing_1.mp4")
}

func TestExtractTailLeavesInputIntactOnFailure(t *testing.T) {
	is := is.New(t)
	memfs := useMemFs(t)

	require.NoError(t, afero.WriteFile(memfs, "/recordings/temp_lm_1.mp4", []byte("footage"), 0644))

	overloadFFmpeg(t, func(ctx context.Context, args []string) error {
		return xerror.New("moov atom not found")
	})

	is.True(!ExtractTail("/recordings/temp_lm_1.mp4", "/recordings/swing_1.mp4", 5*time.Second))

	exists, err := afero.Exists(memfs, "/recordings/temp_lm_1.mp4")
	is.NoErr(err)
	is.True(exists)
}

func TestExtractTailReportsFailureOnTimeout(t *testing.T) {
	is := is.New(t)
	memfs := useMemFs(t)

	require.NoError(t, afero.WriteFile(memfs, "/recordings/temp_lm_1.mp4", []byte("footage"), 0644))

	extractTimeoutRef := extractTimeout
	extractTimeout = 10 * time.Millisecond
	defer func() { extractTimeout = extractTimeoutRef }()

	overloadFFmpeg(t, func(ctx context.Context, args []string) error {
		<-ctx.Done()
		return ctx.Err()
	})

	is.True(!ExtractTail("/recordings/temp_lm_1.mp4", "/recordings/swing_1.mp4", 5*time.Second))

	exists, err := afero.Exists(memfs, "/recordings/temp_lm_1.mp4")
	is.NoErr(err)
	is.True(exists)
}
