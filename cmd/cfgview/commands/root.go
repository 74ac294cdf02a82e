// Package commands provides the CLI commands for cfgview.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/cfgview/internal/config"
	"github.com/l3aro/cfgview/internal/log"
	"github.com/l3aro/cfgview/pkg/cfg"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cfgview",
	Short: "cfgview - Interactive control flow graph viewer",
	Long: `cfgview shows a function's control flow graph next to its source code.
Each basic block gets a color; the source lines it covers and its box in the
diagram share that color.

Commands:
  render      Write a static HTML page for a payload
  serve       Serve a live, interactive page for a payload
  table       Print the source/bytecode table on the terminal
  convert     Convert a payload between JSON and msgpack
  doctor      Check a payload against the current configuration
  init        Create a configuration file interactively

Use "cfgview [command] --help" for more information about a command.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Config file path (default: project, then global config)")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging")
	RootCmd.PersistentFlags().Bool("json-log", false, "Log as JSON lines")
}

// loadConfig returns the effective configuration and the file it came from.
// The path is empty when only defaults and environment apply.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		conf, err := config.LoadFromFile(path)
		if err != nil {
			return nil, "", err
		}
		return conf, path, nil
	}

	conf, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	for _, path := range []string{config.ProjectConfigFilePath(), config.GlobalConfigFilePath()} {
		if fileExists(path) {
			return conf, path, nil
		}
	}
	return conf, "", nil
}

// setup loads the config and builds the logger the flags ask for.
func setup(cmd *cobra.Command) (*config.Config, *log.DefaultLogger, error) {
	conf, _, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		conf.Log.Level = "debug"
	}
	if jsonLog, _ := cmd.Flags().GetBool("json-log"); jsonLog {
		conf.Log.JSON = true
	}
	return conf, conf.NewLogger(), nil
}

func loadPayload(path string, logger log.Logger) (*cfg.Function, error) {
	fn, err := cfg.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("payload loaded", "path", path, "function", fn.Name, "blocks", len(fn.Nodes), "edges", len(fn.Links))
	return fn, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
