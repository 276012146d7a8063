// cmd_convert.go - Convert Command
// Hauptfunktionen: ConvertHandler
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nlpgo/bert/convert"
)

// ConvertHandler - Konvertiert einen PyTorch-Checkpoint zu safetensors
func ConvertHandler(cmd *cobra.Command, args []string) error {
	input, output := args[0], args[1]
	if err := convert.Convert(input, output); err != nil {
		return err
	}

	fmt.Println(output)
	return nil
}

// newConvertCmd - Erstellt den convert Command
func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert INPUT OUTPUT",
		Short: "Convert a PyTorch checkpoint to safetensors",
		Args:  cobra.ExactArgs(2),
		RunE:  ConvertHandler,
	}
}
