// Command transition runs the civilization observer: a websocket server for
// the presentation layer and a headless simulator.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "transition",
		Short: "Civilization observer server",
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(serveCmd())
	root.AddCommand(simulateCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
