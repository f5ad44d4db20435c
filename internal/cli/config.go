package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipeview/pkg/config"
	"github.com/matzehuels/pipeview/pkg/errors"
)

// configCommand creates the config command for inspecting layout configs.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create layout configuration files",
	}

	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configCheckCommand())

	return cmd
}

// configShowCommand prints the effective configuration.
func (c *CLI) configShowCommand() *cobra.Command {
	var (
		cf     configFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after file and flag overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cf.load(cmd)
			if err != nil {
				return err
			}
			return config.Encode(cmd.OutOrStdout(), cfg, "."+format)
		},
	}
	cf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "toml", "output format: toml, yaml, properties")
	return cmd
}

// configInitCommand writes the defaults to a new file.
func (c *CLI) configInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration to a file",
		Long: `Write the default configuration to a file.

The format follows the extension: .toml, .yaml/.yml or .properties.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := appName + ".toml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := writeConfigFile(path, config.Defaults(), force); err != nil {
				return err
			}
			printSuccess("Wrote default configuration")
			printFile(path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// configCheckCommand validates a configuration file.
func (c *CLI) configCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [path]",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			cfg, err := config.Load(args[0])
			if err != nil {
				logger.Debug("config rejected", "path", args[0], "code", errors.GetCode(err))
				return err
			}
			logger.Debug("config accepted", "path", args[0], "hash", cfg.Hash())
			printSuccess("%s is valid", args[0])
			printKeyValue("iterates", fmt.Sprint(cfg.Iterates))
			printKeyValue("placement", cfg.Placement)
			printKeyValue("boundary", cfg.Boundary)
			return nil
		},
	}
}

// writeConfigFile encodes cfg to path in the format of its extension.
func writeConfigFile(path string, cfg config.Layout, force bool) (err error) {
	var buf bytes.Buffer
	if err := config.Encode(&buf, cfg, filepath.Ext(path)); err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if os.IsExist(err) {
		return errors.New(errors.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", path)
	}
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = f.Write(buf.Bytes())
	return err
}
