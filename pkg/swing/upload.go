package swing

import (
	"os/exec"
	"strings"

	"github.com/spf13/afero"
	"github.com/tauraamui/swingcam/pkg/configdef"
	"github.com/tauraamui/swingcam/pkg/log"
	"github.com/tauraamui/xerror"
)

// Uploader pushes finished recordings to a remote destination.
// Fire-and-forget: implementations never block the capture path and
// never surface failures to it.
type Uploader interface {
	Upload(path string)
}

func newUploader(config configdef.Values) Uploader {
	return &rsyncUploader{destination: config.UploadDestination}
}

type rsyncUploader struct {
	destination string
}

func (u *rsyncUploader) Upload(path string) {
	go u.upload(path)
}

func (u *rsyncUploader) upload(path string) {
	destination := u.destination
	switch {
	case strings.HasPrefix(destination, "gdrive://"):
		log.Warn("Google Drive upload not supported, skipping %s", path)
	case strings.HasPrefix(destination, "rsync://"), strings.Contains(destination, ":"):
		u.rsync(path, strings.TrimPrefix(destination, "rsync://"))
	default:
		log.Warn("Unknown upload destination format: %s", destination)
	}
}

func (u *rsyncUploader) rsync(path, destination string) {
	log.Info("Uploading %s to %s", path, destination)

	if err := runRsync(path, destination); err != nil {
		log.Error("Rsync failed: %v", err)
		return
	}
	log.Info("Rsync upload complete to %s", destination)

	metadataPath := MetadataPath(path)
	if exists, _ := afero.Exists(fs, metadataPath); exists {
		if err := runRsync(metadataPath, destination); err != nil {
			log.Error("Rsync of metadata sidecar failed: %v", err)
		}
	}
}

var runRsync = func(src, destination string) error {
	out, err := exec.Command("rsync", "-avz", src, destination).CombinedOutput()
	if err != nil {
		return xerror.Errorf("%v: %s", err, string(out))
	}
	return nil
}
