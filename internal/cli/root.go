// Package cli contains the Cobra command tree for catalogctl.
package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagNoColor bool
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Operate the neurocare condition catalog",
	Long: `catalogctl seeds the condition catalog into the configured store and
scores answer files offline against a catalog file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (environment variables override it)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.AddCommand(seedCmd, scoreCmd)
}

// useColor reports whether output should be styled.
func useColor(f *os.File) bool {
	if flagNoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
