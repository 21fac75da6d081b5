package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

type defaultSettingKey uint

const (
	WIDTH                  defaultSettingKey = 0x0
	HEIGHT                 defaultSettingKey = 0x1
	FPS                    defaultSettingKey = 0x2
	DURATION               defaultSettingKey = 0x3
	OUTPUTDIR              defaultSettingKey = 0x4
	FORMAT                 defaultSettingKey = 0x5
	SHUTTERSPEED           defaultSettingKey = 0x6
	ANALOGUEGAIN           defaultSettingKey = 0x7
	LMMAXRECORDINGDURATION defaultSettingKey = 0x8
)

// Capture defaults target the IMX296 global shutter sensor's full
// native frame; without a sensor crop the achievable rate tops out
// around 60 FPS and backends log the shortfall.
var defaultSettings = map[defaultSettingKey]interface{}{
	WIDTH:                  1456,
	HEIGHT:                 1088,
	FPS:                    120,
	DURATION:               10,
	OUTPUTDIR:              filepath.Join(xdg.DataHome, vendorName, appName, "recordings"),
	FORMAT:                 "h264",
	SHUTTERSPEED:           2000,
	ANALOGUEGAIN:           1.0,
	LMMAXRECORDINGDURATION: 60,
}
