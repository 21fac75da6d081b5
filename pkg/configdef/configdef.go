package configdef

import (
	"fmt"

	validate "gopkg.in/dealancer/validate.v2"
)

const (
	FormatH264 = "h264"
	FormatMP4  = "mp4"
)

// Values is the immutable configuration snapshot used to set up a
// camera backend for one recording session.
type Values struct {
	Debug                  bool    `json:"debug"`
	Width                  int     `json:"width" validate:"gte=1"`
	Height                 int     `json:"height" validate:"gte=1"`
	FPS                    int     `json:"fps" validate:"gte=1"`
	Duration               int     `json:"duration" validate:"gte=1"`
	OutputDir              string  `json:"output_dir"`
	Format                 string  `json:"format"`
	ShutterSpeed           int     `json:"shutter_speed" validate:"gte=0"`
	AnalogueGain           float64 `json:"analogue_gain"`
	AutoExposure           bool    `json:"auto_exposure"`
	UploadEnabled          bool    `json:"upload_enabled"`
	UploadDestination      string  `json:"upload_destination"`
	LMMaxRecordingDuration int     `json:"lm_max_recording_duration" validate:"gte=1"`
}

func (v Values) RunValidate() error {
	if err := validate.Validate(v); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return v.Validate()
}

func (v Values) Validate() error {
	const validationErrorHeader = "validation failed: %s"
	if v.Format != FormatH264 && v.Format != FormatMP4 {
		return fmt.Errorf(validationErrorHeader, fmt.Sprintf("unknown recording format: %q", v.Format))
	}
	return nil
}

// Resolution renders the configured dimensions as "WxH".
func (v Values) Resolution() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// FramePeriodMicros is the per frame duration implied by the
// configured FPS. A manual shutter time longer than this cannot be
// honored by any backend; backends clamp and log rather than fail.
func (v Values) FramePeriodMicros() int {
	if v.FPS <= 0 {
		return 0
	}
	return 1_000_000 / v.FPS
}
