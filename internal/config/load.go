package config

import (
	"github.com/tauraamui/swingcam/pkg/configdef"
)

func load() (configdef.Values, error) {
	var values configdef.Values

	configPath, err := resolveConfigPath()
	if err != nil {
		return configdef.Values{}, err
	}

	logResolvedPath(configPath)
	file, err := readConfigFile(configPath)
	if err != nil {
		return configdef.Values{}, err
	}

	if err := unmarshal(file, &values); err != nil {
		return configdef.Values{}, err
	}

	applyDefaults(&values)

	if err = values.RunValidate(); err != nil {
		return configdef.Values{}, err
	}

	return values, nil
}

func applyDefaults(values *configdef.Values) {
	if len(values.OutputDir) == 0 {
		values.OutputDir = defaultSettings[OUTPUTDIR].(string)
	}
	if len(values.Format) == 0 {
		values.Format = defaultSettings[FORMAT].(string)
	}
	if values.AnalogueGain == 0 {
		values.AnalogueGain = defaultSettings[ANALOGUEGAIN].(float64)
	}
	if values.LMMaxRecordingDuration == 0 {
		values.LMMaxRecordingDuration = defaultSettings[LMMAXRECORDINGDURATION].(int)
	}
}
