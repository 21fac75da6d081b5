package videobackend

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/tauraamui/swingcam/pkg/log"
)

// IMX296 native sensor area. Smaller centered crops unlock frame
// rates well past the full frame limit of ~60 FPS.
const (
	sensorNativeWidth  = 1456
	sensorNativeHeight = 1088
)

var runMediaCtl = func(device, format string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "media-ctl", "-d", device, "--set-v4l2", format).Run()
}

// applySensorCrop negotiates a centered sensor level crop via
// media-ctl ahead of configuring the capture pipeline. Dimensions are
// rounded up and offsets down to even values, a hardware requirement.
// The media device number and sensor i2c address vary between boards
// so the common combinations are tried in turn.
func applySensorCrop(width, height int) bool {
	width += width % 2
	height += height % 2

	cropX := (sensorNativeWidth - width) / 2
	cropY := (sensorNativeHeight - height) / 2
	cropX -= cropX % 2
	cropY -= cropY % 2

	for _, mediaNum := range []int{1, 0, 2} {
		for _, cameraAddr := range []string{"11-001a", "10-001a"} {
			format := fmt.Sprintf(
				"'imx296 %s':0 [fmt:SBGGR10_1X10/%dx%d crop:(%d,%d)/%dx%d]",
				cameraAddr, width, height, cropX, cropY, width, height,
			)

			if err := runMediaCtl(fmt.Sprintf("/dev/media%d", mediaNum), format); err != nil {
				continue
			}

			log.Info(
				"Sensor crop applied: %dx%d centered at (%d,%d) (media%d, %s)",
				width, height, cropX, cropY, mediaNum, cameraAddr,
			)
			return true
		}
	}

	log.Warn("Could not apply sensor crop %dx%d", width, height)
	return false
}
