// Package cli implements the idphoto command-line interface.
//
// Commands:
//   - make: produce an ID photo (and optionally a print sheet) from a file, URL or directory
//   - serve: run the HTTP API
//   - presets: list photo sizes, background colors and paper formats
//   - config: write or show the configuration file
//
// Every command accepts --verbose (-v) for debug logging and --config to
// point at a JSON, TOML or YAML configuration file.
package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/menta2k/idphoto/internal/config"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion records build information shown by --version
func SetVersion(v, c, d string) {
	version, commit, date = v, c, d
}

// Execute runs the idphoto CLI
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	var verbose bool
	var configPath string

	root := &cobra.Command{
		Use:          "idphoto",
		Short:        "idphoto turns portraits into print-ready ID photos",
		Long:         `idphoto replaces the background of a portrait, frames the face for a passport or ID size, and tiles copies onto photo paper.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)

			cfg, err := loadConfig(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			logger.Debug("configuration loaded", "path", configPath)

			ctx := withLogger(cmd.Context(), logger)
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("idphoto %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", config.GetConfigPath(), "configuration file (json, toml or yaml)")

	root.AddCommand(newMakeCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newPresetsCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// loadConfig reads the configuration file. A missing file at the default
// location means defaults; a missing file the user named is an error.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
