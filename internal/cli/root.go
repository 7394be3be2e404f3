package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "table" | "json" | "csv"
	ConfigFile string
	Database   string

	// Config is the merged configuration, populated by PersistentPreRunE.
	Config *Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"table", "json", "csv"}

// NewRootCommand creates the root command for the sift CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sift",
		Short: "sift - lazy query pipelines over tables",
		Long: `Build table pipelines from query files and render them against an
in-memory engine or a sqlite database. Pipelines accumulate filter,
mutate, summarise, arrange, group_by, and select steps; nothing
executes until render.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(opts.ConfigFile)
			if err != nil {
				return err
			}
			opts.Config = cfg

			// Flags beat config file and env.
			if !cmd.Flags().Changed("format") && cfg.Format != "" {
				opts.Format = cfg.Format
			}
			if !cmd.Flags().Changed("db") && cfg.Database != "" {
				opts.Database = cfg.Database
			}
			if !cmd.Flags().Changed("verbose") {
				opts.Verbose = cfg.Verbose
			}

			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "table", "output format (table|json|csv)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./sift.yaml, then ~/.sift.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", ":memory:", "sqlite database path")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSQLCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
