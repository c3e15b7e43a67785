package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is the embedded build version, overridden at release time via
// -ldflags "-X optipix/cmd.Version=...".
var Version = "1.2.0"

var rootCmd = &cobra.Command{
	Use:   "optipix",
	Short: "optipix - batch image optimizer for JPEG, PNG, WebP and SVG",
	Long: "optipix re-encodes images in a directory tree to smaller equivalents,\n" +
		"with optional resizing, backups and a mirrored output tree.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}
