// Package cmd provides the root command and CLI setup for unpin.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"unpin.dev/pkg/unpin/internal/adapter"
	"unpin.dev/pkg/unpin/internal/controller"
	"unpin.dev/pkg/unpin/internal/domain"
	m "unpin.dev/pkg/unpin/internal/model"
)

var fsAdapter adapter.SourceFSAdapter
var reportStore adapter.ReportStore
var workflow domain.Workflow
var ui controller.UI

// excludePatterns is a root-level flag that filters files for scanning commands.
var excludePatterns []string

var prefixFlag string
var extensionFlag string
var verboseFlag bool
var logFileFlag string

func init() {
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	reportStore = adapter.NewReportStore()
	workflow = domain.NewWorkflow(fsAdapter, reportStore, ui)
}

const decompiledDirHelp = `<decompiled-dir> is the output directory of "apktool d": unpin scans the
top-level directories named smali, smali_classes2, ... for classes that
implement javax.net.ssl.X509TrustManager.`

const rootLongDescription = `Unpin disables certificate pinning in decompiled Android applications by
rewriting X509TrustManager implementations into trust-all no-ops. The
original method bodies are kept as comments.

` + decompiledDirHelp

const patchLongDescription = `Patch every X509TrustManager implementation below <decompiled-dir>.

checkClientTrusted and checkServerTrusted return immediately and
getAcceptedIssuers returns an empty array. Already patched methods are
left alone, so running patch twice is safe.

` + decompiledDirHelp

const listLongDescription = `List candidate classes and the methods patch would rewrite.

` + decompiledDirHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unpin",
		Short: "Disable certificate pinning in decompiled Android apps",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringArrayVarP(&excludePatterns, excludeFlagName, "x", nil, "exclude files whose relative path matches regex (can be repeated)")
	bindFlagToConfig(flags.Lookup(excludeFlagName), excludeConfigKey)

	flags.StringVar(&prefixFlag, prefixFlagName, defaultPrefix, "prefix of the top-level directories to scan")
	bindFlagToConfig(flags.Lookup(prefixFlagName), prefixConfigKey)

	flags.StringVar(&extensionFlag, extensionFlagName, defaultExtension, "extension of the files to scan")
	bindFlagToConfig(flags.Lookup(extensionFlagName), extensionConfigKey)

	flags.BoolVarP(&verboseFlag, verboseFlagName, "v", defaultLogVerbose, "log at debug level")
	bindFlagToConfig(flags.Lookup(verboseFlagName), logVerboseKey)

	flags.StringVar(&logFileFlag, logFileFlagName, defaultLogFilename, "log file path")
	bindFlagToConfig(flags.Lookup(logFileFlagName), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

func scanOptions() adapter.ScanOptions {
	return adapter.ScanOptions{
		Prefix:    viper.GetString(prefixConfigKey),
		Extension: viper.GetString(extensionConfigKey),
		Exclude:   viper.GetStringSlice(excludeConfigKey),
	}
}

func lineEnding() (m.LineEnding, error) {
	return m.ParseLineEnding(viper.GetString(patchLineEndingConfigKey))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}
