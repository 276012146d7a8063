// cmd_pull.go - Pull Command
// Hauptfunktionen: PullHandler
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nlpgo/bert/hub"
	"github.com/nlpgo/bert/model"
	"github.com/nlpgo/bert/model/models/bert"
)

// PullHandler - Laedt die Gewichte eines Presets in den Cache
func PullHandler(cmd *cobra.Command, args []string) error {
	p, ok := bert.LookupPreset(args[0])
	if !ok {
		return model.Configf("unbekanntes preset %q", args[0])
	}

	opts := []hub.FetchOption{}
	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	if interactive {
		opts = append(opts, hub.WithProgress(func(downloaded, total int64) {
			if total <= 0 {
				fmt.Printf("\rpulling %s... %s", p.Name, humanBytes(downloaded))
				return
			}
			percent := float64(downloaded) / float64(total) * 100
			fmt.Printf("\rpulling %s... %3.0f%% (%s/%s)", p.Name, percent, humanBytes(downloaded), humanBytes(total))
		}))
	}

	path, err := hub.Fetch(cmd.Context(), p.Name, p.WeightsURL, p.WeightsDigest, opts...)
	if err != nil {
		return err
	}

	if interactive {
		fmt.Println()
	}
	fmt.Println(path)
	return nil
}

// humanBytes formatiert eine Byte-Anzahl, z.B. 418 MB
func humanBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// newPullCmd - Erstellt den pull Command
func newPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull PRESET",
		Short: "Download preset weights into the local cache",
		Args:  cobra.ExactArgs(1),
		RunE:  PullHandler,
	}
}
