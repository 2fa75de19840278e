package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hupe1980/travelmesh"
	"github.com/hupe1980/travelmesh/config"
	"github.com/jessevdk/go-flags"
)

// Options is the root command that groups sub-commands. The struct tags are
// interpreted by github.com/jessevdk/go-flags.
type Options struct {
	Config   string `short:"f" long:"config" description:"config YAML path"`
	LogLevel string `long:"log-level" description:"override logging.level (debug|info|warn|error)"`

	Chat   ChatCmd   `command:"chat" description:"Send a message or start an interactive session"`
	Thread ThreadCmd `command:"thread" description:"Manage conversation threads"`
}

var options Options

// Run parses args and executes the selected command. It returns the process
// exit code.
func Run(args []string) int {
	options = Options{}

	parser := flags.NewParser(&options, flags.HelpFlag|flags.PassDoubleDash)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			return 0
		}

		fmt.Fprintln(os.Stderr, "error:", err)

		return 1
	}

	return 0
}

// loadConfig reads the -f file (or defaults) plus environment overrides.
func (o *Options) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return cfg, err
	}

	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}

	return cfg, cfg.Validate()
}

// open builds the façade from the configured options.
func (o *Options) open(ctx context.Context) (*travelmesh.TravelMesh, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return travelmesh.New(ctx, func(opts *travelmesh.Options) {
		opts.Config = cfg
	})
}
