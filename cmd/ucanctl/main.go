// Command ucanctl builds and inspects delegations from the shell: gen
// signs a new delegation from a seed and prints its archive, parse
// extracts an archive and renders its chain as a table.
package main

import (
	"fmt"
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"
)

var log = logging.Logger("ucanctl")

var rootCmd = &cobra.Command{
	Use:           "ucanctl",
	Short:         "Build and inspect UCAN delegations",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(genCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(verifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Errorw("command failed", "error", err)
		fmt.Fprintln(os.Stderr, "ucanctl:", err)
		os.Exit(1)
	}
}
