package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"unpin.dev/pkg/unpin/internal/domain"
	m "unpin.dev/pkg/unpin/internal/model"
)

var patchParallelFlag int
var patchLineEndingFlag string
var patchDryRunFlag bool
var patchDiffFlag bool
var patchBackupFlag string
var patchReportFlag string

// patchCmd represents the patch command.
var patchCmd = newPatchCmd()

func newPatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch <decompiled-dir>",
		Short: "Disable certificate pinning",
		Long:  patchLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			le, err := lineEnding()
			if err != nil {
				return err
			}

			_, err = workflow.Patch(cmd.Context(), domain.PatchArgs{
				Root:       m.Path(args[0]),
				Scan:       scanOptions(),
				Threads:    viper.GetInt(patchParallelConfigKey),
				LineEnding: le,
				DryRun:     viper.GetBool(patchDryRunConfigKey),
				ShowDiff:   viper.GetBool(patchDiffConfigKey),
				Backup:     m.Path(viper.GetString(patchBackupConfigKey)),
				Report:     m.Path(viper.GetString(reportOutputConfigKey)),
			})

			return err
		},
	}

	configurePatchFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(patchCmd)
}

func configurePatchFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.IntVarP(&patchParallelFlag, parallelFlagName, "p", defaultParallel, "number of parallel workers (0 uses one per CPU)")
	bindFlagToConfig(flags.Lookup(parallelFlagName), patchParallelConfigKey)

	flags.StringVar(&patchLineEndingFlag, lineEndingFlagName, defaultLineEnding, "line ending handling: auto, lf or crlf")
	bindFlagToConfig(flags.Lookup(lineEndingFlagName), patchLineEndingConfigKey)

	flags.BoolVarP(&patchDryRunFlag, dryRunFlagName, "n", defaultDryRun, "report what would be patched without writing files")
	bindFlagToConfig(flags.Lookup(dryRunFlagName), patchDryRunConfigKey)

	flags.StringVarP(&patchReportFlag, reportFlagName, "r", defaultReportOutput, "save the run report as YAML to this file")
	bindFlagToConfig(flags.Lookup(reportFlagName), reportOutputConfigKey)

	flags.BoolVar(&patchDiffFlag, diffFlagName, defaultDiff, "print a unified diff for every patched file")
	bindFlagToConfig(flags.Lookup(diffFlagName), patchDiffConfigKey)

	flags.StringVar(&patchBackupFlag, backupFlagName, defaultBackup, "copy the decompiled tree to this directory before patching")
	bindFlagToConfig(flags.Lookup(backupFlagName), patchBackupConfigKey)
}
