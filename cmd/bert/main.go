// main.go - Einstiegspunkt des bert CLI
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nlpgo/bert/cmd"
)

func main() {
	if err := cmd.NewCLI().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
