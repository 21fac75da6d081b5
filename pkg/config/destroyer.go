package config

import (
	"github.com/tauraamui/swingcam/internal/config"
	"github.com/tauraamui/swingcam/pkg/configdef"
)

type Destroyer interface {
	configdef.Destroyer
}

func DefaultDestroyer() Destroyer {
	return config.DefaultDestroyer()
}
