package cmd

import (
	"github.com/spf13/cobra"
	"unpin.dev/pkg/unpin/internal/domain"
	m "unpin.dev/pkg/unpin/internal/model"
)

var nscForceFlag bool

// nscCmd represents the nsc command.
var nscCmd = newNSCCmd()

func newNSCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nsc <decompiled-dir>",
		Short: "Write a network security config that trusts user CAs",
		Long: `Write res/xml/nsc_mitm.xml, a network security config that trusts system
and user-installed certificate authorities and overrides declared pins.

Reference it from AndroidManifest.xml before rebuilding:

  <application android:networkSecurityConfig="@xml/nsc_mitm" ...>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := workflow.WriteNetworkConfig(cmd.Context(), domain.NetworkConfigArgs{
				Root:  m.Path(args[0]),
				Force: nscForceFlag,
			})
			if err != nil {
				return err
			}

			cmd.Printf("Wrote %s\n", path)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&nscForceFlag, forceFlagName, "f", false, "overwrite an existing config")

	return cmd
}

func init() {
	rootCmd.AddCommand(nscCmd)
}
