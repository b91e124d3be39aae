package main

import (
	"github.com/spf13/cobra"
)

var logLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "ERROR", "zap log level")
}

var rootCmd = &cobra.Command{
	Use:           "ordercheck",
	Short:         "Verifies TON multisig v2 orders before they are signed",
	SilenceUsage:  true,
	SilenceErrors: true,
}
