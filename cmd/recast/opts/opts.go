package opts

import (
	"context"
	"io"

	"github.com/walteh/recast/pkg/config"
	"github.com/walteh/recast/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigFile string
	Debug      bool

	Out    io.Writer
	ErrOut io.Writer

	// UserLogger is set once flags are parsed; the console Logger rides on
	// the command context
	UserLogger *log.UserLogger
}

// LoadConfig loads and validates the pipeline file named by ConfigFile
func (o *RootOpts) LoadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx, o.ConfigFile)
	if err != nil {
		return nil, errors.Errorf("loading pipeline file %s: %w", o.ConfigFile, err)
	}
	return cfg, nil
}
