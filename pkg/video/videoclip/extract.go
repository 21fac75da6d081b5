package videoclip

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/spf13/afero"
	"github.com/tauraamui/swingcam/pkg/log"
	"github.com/tauraamui/xerror"
)

var fs = afero.NewOsFs()

var extractTimeout = 30 * time.Second

var runFFmpeg = func(ctx context.Context, args []string) error {
	out, err := exec.CommandContext(ctx, "ffmpeg", args...).CombinedOutput()
	if err != nil {
		return xerror.Errorf("%v: %s", err, string(out))
	}
	return nil
}

// ExtractTail losslessly trims the input recording down to its final
// N seconds via an ffmpeg stream copy, bounded by a fixed timeout.
// The input file is deleted only on success; on any failure it is
// left intact for the caller to deal with.
func ExtractTail(inputPath, outputPath string, duration time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), extractTimeout)
	defer cancel()

	args := []string{
		"-y",
		"-sseof", fmt.Sprintf("-%d", int(duration.Seconds())),
		"-i", inputPath,
		"-c", "copy",
		outputPath,
	}

	log.Info("Extracting last %ds from %s", int(duration.Seconds()), inputPath)

	if err := runFFmpeg(ctx, args); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Error("ffmpeg extraction timed out")
		} else {
			log.Error("ffmpeg failed: %v", err)
		}
		return false
	}

	log.Info("Extraction complete: %s", outputPath)

	if exists, _ := afero.Exists(fs, inputPath); exists {
		if err := fs.Remove(inputPath); err != nil {
			log.Error("Failed to delete temp file %s: %v", inputPath, err)
		} else {
			log.Info("Deleted temp file: %s", inputPath)
		}
	}

	return true
}
