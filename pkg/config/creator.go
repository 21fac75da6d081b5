package config

import (
	"github.com/tauraamui/swingcam/internal/config"
	"github.com/tauraamui/swingcam/pkg/configdef"
)

type Creator interface {
	configdef.Creator
}

func DefaultCreator() Creator {
	return config.DefaultCreator()
}
