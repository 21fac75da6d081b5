package swing

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/tauraamui/swingcam/pkg/configdef"
	"github.com/tauraamui/swingcam/pkg/video/videoclip"
	"github.com/tauraamui/xerror"
)

// Metadata is the JSON sidecar persisted next to every finished
// recording, sharing its base name. This layout is an on-disk
// contract: existing recordings directories depend on it.
type Metadata struct {
	Timestamp            string `json:"timestamp"`
	Filename             string `json:"filename"`
	Resolution           string `json:"resolution"`
	FPS                  int    `json:"fps"`
	Duration             int    `json:"duration"`
	ShutterSpeed         int    `json:"shutter_speed"`
	FileSize             int64  `json:"file_size"`
	GDriveFileID         string `json:"gdrive_file_id,omitempty"`
	GDriveWebViewLink    string `json:"gdrive_webview_link,omitempty"`
	GDriveMetadataFileID string `json:"gdrive_metadata_file_id,omitempty"`
}

// MetadataPath is the sidecar path for the given recording.
func MetadataPath(videoPath string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".json"
}

// WriteMetadata persists the sidecar for a finished recording. I/O
// failures propagate; the caller decides whether the capture still
// counts as successful.
func WriteMetadata(videoPath string, ts time.Time, config configdef.Values) (Metadata, error) {
	info, err := fs.Stat(videoPath)
	if err != nil {
		return Metadata{}, xerror.Errorf("unable to stat recording %s: %w", videoPath, err)
	}

	metadata := Metadata{
		Timestamp:    ts.Format(videoclip.TIMESTAMP_FORMAT),
		Filename:     filepath.Base(videoPath),
		Resolution:   config.Resolution(),
		FPS:          config.FPS,
		Duration:     config.Duration,
		ShutterSpeed: config.ShutterSpeed,
		FileSize:     info.Size(),
	}

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return Metadata{}, xerror.Errorf("unable to marshal metadata: %w", err)
	}

	if err := afero.WriteFile(fs, MetadataPath(videoPath), data, 0644); err != nil {
		return Metadata{}, xerror.Errorf("unable to write metadata sidecar: %w", err)
	}

	return metadata, nil
}

// ReadMetadata loads a recording's sidecar if present.
func ReadMetadata(videoPath string) (Metadata, error) {
	var metadata Metadata

	data, err := afero.ReadFile(fs, MetadataPath(videoPath))
	if err != nil {
		return metadata, xerror.Errorf("unable to read metadata sidecar: %w", err)
	}

	if err := json.Unmarshal(data, &metadata); err != nil {
		return metadata, xerror.Errorf("unable to parse metadata sidecar: %w", err)
	}

	return metadata, nil
}
