package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "drivethru-cli",
	Short: "Drive-thru CLI - lane simulator and menu tooling",
	Long: `drivethru-cli talks to a running drive-thru API and manages menu data.

Examples:
  # Replay a scripted customer against lane 1
  drivethru-cli lane run --file scripts/order.txt --lane lane-1

  # Type utterances interactively
  drivethru-cli lane run --lane lane-1

  # Menu seed files
  drivethru-cli menu validate --file config/menu.yaml
  drivethru-cli menu seed --file config/menu.yaml
  drivethru-cli menu schema > menu.schema.json

  # Effective configuration
  drivethru-cli config show`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(laneCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
}
