package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumenmedia/encodebot/internal/stats"
)

// statsCmd prints the same host-resource block the bot's status report uses.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print host resource usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := stats.NewCollector(os.TempDir(), nil)
		fmt.Println(c.Collect(cmd.Context()).String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
