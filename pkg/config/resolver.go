package config

import (
	"github.com/tauraamui/swingcam/internal/config"
	"github.com/tauraamui/swingcam/pkg/configdef"
)

type Resolver interface {
	configdef.Resolver
}

func DefaultResolver() Resolver {
	return config.DefaultResolver()
}
