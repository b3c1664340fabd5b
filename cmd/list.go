package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"unpin.dev/pkg/unpin/internal/domain"
	m "unpin.dev/pkg/unpin/internal/model"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <decompiled-dir>",
		Short: "List classes with certificate pinning",
		Long:  listLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			le, err := lineEnding()
			if err != nil {
				return err
			}

			return workflow.Estimate(cmd.Context(), domain.EstimateArgs{
				Root:       m.Path(args[0]),
				Scan:       scanOptions(),
				Threads:    viper.GetInt(patchParallelConfigKey),
				LineEnding: le,
			})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
