package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halcyonex/routerd/internal/config"
)

// initConfigCmd writes an annotated example configuration file.
var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write an example configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "routerd.toml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.SaveExampleConfig(path); err != nil {
			return err
		}
		fmt.Printf("wrote example configuration to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initConfigCmd)
}
