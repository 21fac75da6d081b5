package swing

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/tauraamui/swingcam/pkg/log"
	"github.com/tauraamui/xerror"
)

// Recording is a finished artifact in the output directory, paired
// with whatever sidecar metadata survives for it.
type Recording struct {
	Path     string   `json:"path"`
	Name     string   `json:"name"`
	Size     int64    `json:"size"`
	Created  int64    `json:"created"`
	Metadata Metadata `json:"metadata"`
}

func isRecordingExt(ext string) bool {
	return ext == ".h264" || ext == ".mp4"
}

// Recordings lists every finished recording in the output directory,
// oldest first.
func (c *Controller) Recordings() ([]Recording, error) {
	matches, err := afero.Glob(fs, filepath.Join(c.config.OutputDir, "swing_*"))
	if err != nil {
		return nil, xerror.Errorf("unable to scan recordings directory: %w", err)
	}
	sort.Strings(matches)

	recordings := []Recording{}
	for _, path := range matches {
		if !isRecordingExt(filepath.Ext(path)) {
			continue
		}

		info, err := fs.Stat(path)
		if err != nil {
			log.Warn("Unable to stat recording %s: %v", path, err)
			continue
		}

		metadata, err := ReadMetadata(path)
		if err != nil {
			log.Debug("No metadata sidecar for %s: %v", path, err)
		}

		recordings = append(recordings, Recording{
			Path:     path,
			Name:     filepath.Base(path),
			Size:     info.Size(),
			Created:  info.ModTime().Unix(),
			Metadata: metadata,
		})
	}

	return recordings, nil
}

// DeleteRecording removes a recording and its sidecar from the
// output directory. Uploaded remote copies are not touched; their
// identifiers are logged so an operator can chase them up.
func (c *Controller) DeleteRecording(filename string) error {
	if strings.ContainsAny(filename, `/\`) {
		return xerror.Errorf("invalid recording name: %s", filename)
	}

	path := filepath.Join(c.config.OutputDir, filename)
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return xerror.Errorf("unable to check recording %s: %w", filename, err)
	}
	if !exists {
		return xerror.Errorf("recording %s not found", filename)
	}

	if metadata, err := ReadMetadata(path); err == nil && len(metadata.GDriveFileID) > 0 {
		log.Warn("Remote copy of %s (id %s) left in place", filename, metadata.GDriveFileID)
	}

	if err := fs.Remove(path); err != nil {
		return xerror.Errorf("unable to delete recording %s: %w", filename, err)
	}
	log.Info("Deleted local file: %s", filename)

	metadataPath := MetadataPath(path)
	if exists, _ := afero.Exists(fs, metadataPath); exists {
		if err := fs.Remove(metadataPath); err != nil {
			return xerror.Errorf("unable to delete metadata for %s: %w", filename, err)
		}
		log.Info("Deleted metadata: %s", filepath.Base(metadataPath))
	}

	return nil
}

// DeleteAllRecordings removes every recording and sidecar, returning
// how many recordings were deleted. Individual failures are logged
// and skipped.
func (c *Controller) DeleteAllRecordings() (int, error) {
	recordings, err := c.Recordings()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, recording := range recordings {
		if err := c.DeleteRecording(recording.Name); err != nil {
			log.Error("Failed to delete %s: %v", recording.Name, err)
			continue
		}
		count++
	}

	return count, nil
}
