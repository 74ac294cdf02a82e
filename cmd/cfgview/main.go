// Package main implements the cfgview CLI.
// It renders CFG payloads as static pages, serves them as live interactive
// pages and prints the paired source/bytecode table on the terminal.
package main

import (
	"os"

	"github.com/l3aro/cfgview/cmd/cfgview/commands"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	commands.RootCmd.Flags().Bool("version", false, "Print version information")
	commands.RootCmd.SetVersionTemplate(`cfgview version {{.Version}}
`)
	commands.RootCmd.Version = version
	if buildTime != "" {
		commands.RootCmd.Version = version + " (built " + buildTime + ")"
	}

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
