package videoclip

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/tauraamui/swingcam/pkg/configdef"
)

const TIMESTAMP_FORMAT = "20060102_150405"

var Timestamp = func() time.Time {
	return time.Now()
}

// Ext maps a configured recording format onto the file extension a
// backend is asked to produce. Raw h264 is requested with its own
// extension; backends normalize it to a playable container.
func Ext(format string) string {
	if format == configdef.FormatH264 {
		return ".h264"
	}
	return ".mp4"
}

// SwingName derives the base name for a finished recording from its
// capture timestamp.
func SwingName(ts time.Time) string {
	return fmt.Sprintf("swing_%s", ts.Format(TIMESTAMP_FORMAT))
}

// SwingPath is the output path for a finished recording.
func SwingPath(outputDir, name, format string) string {
	return filepath.Join(outputDir, name+Ext(format))
}

// TempMonitorPath is the temp output path for an in-progress
// continuous launch monitor recording.
func TempMonitorPath(outputDir, format string, ts time.Time) string {
	return filepath.Join(outputDir, fmt.Sprintf("temp_lm_%s%s", ts.Format(TIMESTAMP_FORMAT), Ext(format)))
}
