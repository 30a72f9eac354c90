// Command weft is the command line entry point for the Weft rendering
// engine. It can serve a directory of page templates, render a single
// template to stdout, and invalidate cached pages on a running server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const banner = `
 __      __        _____ _
/  \    /  \ _____/ ____\ |_
\   \/\/   // __ \   __\| __|
 \        /\  ___/|  |  | |_
  \__/\  /  \___  >__|  |__|
       \/       \/
`

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:           "weft",
	Short:         "Weft is a reactive HTML rendering engine",
	Long:          banner + "\nWeft renders directive-annotated HTML templates on the server\nand streams suspended fragments to the client as they resolve.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(invalidateCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		errorMsg("%v", err)
		os.Exit(1)
	}
}

func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m "+format+"\n", args...)
}

func info(format string, args ...any) {
	fmt.Printf("\033[36m→\033[0m "+format+"\n", args...)
}

func warn(format string, args ...any) {
	fmt.Printf("\033[33m!\033[0m "+format+"\n", args...)
}

func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m "+format+"\n", args...)
}
