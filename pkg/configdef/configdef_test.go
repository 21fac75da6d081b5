package configdef_test

import (
	"testing"

	"github.com/matryer/is"
	"github.com/tauraamui/swingcam/pkg/configdef"
)

func validValues() configdef.Values {
	return configdef.Values{
		Width:                  1456,
		Height:                 1088,
		FPS:                    120,
		Duration:               10,
		Format:                 configdef.FormatH264,
		ShutterSpeed:           2000,
		AnalogueGain:           1.0,
		LMMaxRecordingDuration: 60,
	}
}

func TestValidValuesPassValidation(t *testing.T) {
	is := is.New(t)
	is.NoErr(validValues().RunValidate())
}

func TestZeroFPSFailsValidation(t *testing.T) {
	is := is.New(t)
	values := validValues()
	values.FPS = 0
	is.True(values.RunValidate() != nil)
}

func TestZeroDurationFailsValidation(t *testing.T) {
	is := is.New(t)
	values := validValues()
	values.Duration = 0
	is.True(values.RunValidate() != nil)
}

func TestUnknownFormatFailsValidation(t *testing.T) {
	is := is.New(t)
	values := validValues()
	values.Format = "mkv"
	err := values.RunValidate()
	is.True(err != nil)
	is.Equal(err.Error(), `validation failed: unknown recording format: "mkv"`)
}

func TestMP4FormatPassesValidation(t *testing.T) {
	is := is.New(t)
	values := validValues()
	values.Format = configdef.FormatMP4
	is.NoErr(values.RunValidate())
}

func TestResolutionRendering(t *testing.T) {
	is := is.New(t)
	is.Equal(validValues().Resolution(), "1456x1088")
}

func TestFramePeriodImpliedByFPS(t *testing.T) {
	is := is.New(t)

	values := validValues()
	is.Equal(values.FramePeriodMicros(), 8333)

	values.FPS = 30
	is.Equal(values.FramePeriodMicros(), 33333)

	values.FPS = 0
	is.Equal(values.FramePeriodMicros(), 0)
}
