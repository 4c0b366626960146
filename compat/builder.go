package compat

import (
	"fmt"

	astrolog "github.com/Contykpo/AstroLogger"
)

// Builder provides a flexible way to create configured logger adapters for
// gnet and fasthttp. It can use an existing *astrolog.Logger instance or
// create a new one from a *astrolog.Config.
type Builder struct {
	logger *astrolog.Logger
	logCfg *astrolog.Config
	err    error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithLogger specifies an existing logger to use for the adapters.
// Recommended for applications that already have a central logger instance.
// If this is set WithConfig is ignored.
func (b *Builder) WithLogger(l *astrolog.Logger) *Builder {
	if l == nil {
		b.err = fmt.Errorf("astrolog/compat: provided logger cannot be nil")
		return b
	}
	b.logger = l
	return b
}

// WithConfig provides a configuration for a new logger instance.
// Used only if an existing logger is NOT provided via WithLogger.
func (b *Builder) WithConfig(cfg *astrolog.Config) *Builder {
	b.logCfg = cfg
	return b
}

// getLogger resolves the logger to be used, creating one if necessary
func (b *Builder) getLogger() (*astrolog.Logger, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.logger != nil {
		return b.logger, nil
	}

	cfg := b.logCfg
	if cfg == nil {
		cfg = astrolog.DefaultConfig()
	}
	logger, err := astrolog.NewLogger(cfg, nil)
	if err != nil {
		return nil, err
	}
	b.logger = logger
	return logger, nil
}

// Gnet builds a gnet logging adapter
func (b *Builder) Gnet(opts ...GnetOption) (*GnetAdapter, error) {
	logger, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(logger, opts...), nil
}

// FastHTTP builds a fasthttp logger adapter
func (b *Builder) FastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	logger, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(logger, opts...), nil
}
