// cmd_presets.go - Presets Command
// Hauptfunktionen: PresetsHandler
package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nlpgo/bert/model/models/bert"
)

// PresetsHandler - Listet alle registrierten Presets auf
func PresetsHandler(cmd *cobra.Command, args []string) error {
	var data [][]string
	for _, p := range bert.Presets() {
		cfg := p.Config
		data = append(data, []string{
			p.Name,
			strconv.Itoa(cfg.NumLayers),
			strconv.Itoa(cfg.HiddenDim),
			strconv.Itoa(cfg.NumHeads),
			strconv.Itoa(cfg.VocabularySize),
			humanCount(cfg.NumParameters()),
		})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"NAME", "LAYERS", "HIDDEN", "HEADS", "VOCAB", "PARAMS"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	return nil
}

// humanCount formatiert eine Parameter-Anzahl, z.B. 109.5M
func humanCount(n int) string {
	switch {
	case n >= 1e9:
		return fmt.Sprintf("%.1fB", float64(n)/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.1fM", float64(n)/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.1fK", float64(n)/1e3)
	default:
		return strconv.Itoa(n)
	}
}

// newPresetsCmd - Erstellt den presets Command
func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List available model presets",
		Args:  cobra.NoArgs,
		RunE:  PresetsHandler,
	}
}
