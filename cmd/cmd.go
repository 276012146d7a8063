// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nlpgo/bert/envconfig"
	"github.com/nlpgo/bert/logutil"
)

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))

	rootCmd := &cobra.Command{
		Use:           "bert",
		Short:         "Bidirectional transformer encoder toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.AddCommand(
		newPresetsCmd(),
		newShowCmd(),
		newPullCmd(),
		newConvertCmd(),
	)

	return rootCmd
}
