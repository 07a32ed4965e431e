// =============================================================================
// OFX to CSV Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (ofx2csv)
//   ├── convertCmd (ofx2csv convert)
//   ├── inspectCmd (ofx2csv inspect)
//   └── versionCmd (ofx2csv version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose, --log-format)
//   2. Loading the configuration before any subcommand runs
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/config"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/logger"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging and the per-transaction summary.
var verbose bool

// logFormat overrides the configured log format when set.
var logFormat string

// mainConfig is loaded in PersistentPreRunE and shared by the subcommands.
var mainConfig *config.MainConfig

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ofx2csv",
	Short: "OFX to CSV Converter - Turn bank statement exports into CSV files",
	Long: `OFX to CSV Converter reads OFX bank statement files (SGML or XML style)
line by line and writes each transaction as a row of a delimited text file.

Key Features:
  - Tolerant line-oriented parsing, no full OFX schema required
  - Optional account details block and Memo column
  - Configurable delimiter, date layouts and invalid amount policy
  - Field transformation rules and validation warnings
  - Optional XLSX export, input archival and batch reports

Example Usage:
  ofx2csv convert statement.ofx          # Writes statement.csv next to it
  ofx2csv convert --dir ./input          # Converts every .ofx in ./input
  ofx2csv convert --delimiter , --no-memo statement.ofx
  ofx2csv inspect statement.ofx          # Prints what would be converted`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initialize(cmd)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigFile,
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging and print every transaction",
	)

	rootCmd.PersistentFlags().StringVar(
		&logFormat,
		"log-format",
		"",
		"Log format: console or json (overrides log_format)",
	)
}

// initialize loads the configuration and installs the logger in the
// command context.
func initialize(cmd *cobra.Command) error {
	// The version command works without a configuration.
	if cmd == versionCmd {
		return nil
	}

	cfg, err := config.LoadMainConfig(cfgFile, cmd.Flags().Changed("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logger.WithContext(ctx, log))

	mainConfig = cfg
	return nil
}
