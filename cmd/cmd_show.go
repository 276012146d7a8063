// cmd_show.go - Show Command
// Hauptfunktionen: ShowHandler
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nlpgo/bert/model"
	"github.com/nlpgo/bert/model/models/bert"
)

// ShowHandler - Zeigt die Konfiguration eines Presets
func ShowHandler(cmd *cobra.Command, args []string) error {
	p, ok := bert.LookupPreset(args[0])
	if !ok {
		return model.Configf("unbekanntes preset %q", args[0])
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p.Config)
	}

	fmt.Printf("%s\n%s\n\n", p.Name, p.Description)

	cfg := p.Config
	data := [][]string{
		{"vocabulary size", strconv.Itoa(cfg.VocabularySize)},
		{"layers", strconv.Itoa(cfg.NumLayers)},
		{"attention heads", strconv.Itoa(cfg.NumHeads)},
		{"hidden dim", strconv.Itoa(cfg.HiddenDim)},
		{"intermediate dim", strconv.Itoa(cfg.IntermediateDim)},
		{"dropout", fmt.Sprintf("%v", cfg.Dropout)},
		{"max sequence length", strconv.Itoa(cfg.MaxSequenceLength)},
		{"segments", strconv.Itoa(cfg.NumSegments)},
		{"parameters", humanCount(cfg.NumParameters())},
		{"weights", p.WeightsURL},
		{"digest", p.WeightsDigest},
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	return nil
}

// newShowCmd - Erstellt den show Command
func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show PRESET",
		Short: "Show the configuration of a preset",
		Args:  cobra.ExactArgs(1),
		RunE:  ShowHandler,
	}
	cmd.Flags().Bool("json", false, "Print the configuration as JSON")
	return cmd
}
