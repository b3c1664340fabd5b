package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "unpin"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	excludeFlagName    = "exclude"
	prefixFlagName     = "prefix"
	extensionFlagName  = "extension"
	verboseFlagName    = "verbose"
	logFileFlagName    = "log-file"
	parallelFlagName   = "parallel"
	lineEndingFlagName = "line-ending"
	dryRunFlagName     = "dry-run"
	diffFlagName       = "diff"
	backupFlagName     = "backup"
	reportFlagName     = "report"
	forceFlagName      = "force"

	patchParallelConfigKey   = "patch.parallel"
	patchLineEndingConfigKey = "patch.line_ending"
	patchDryRunConfigKey     = "patch.dry_run"
	patchDiffConfigKey       = "patch.diff"
	patchBackupConfigKey     = "patch.backup"
	prefixConfigKey          = "paths.prefix"
	extensionConfigKey       = "paths.extension"
	excludeConfigKey         = "paths.exclude"
	reportOutputConfigKey    = "report.output"

	defaultParallel     = 0 // one worker per CPU
	defaultLineEnding   = "auto"
	defaultDryRun       = false
	defaultDiff         = false
	defaultBackup       = ""
	defaultPrefix       = "smali"
	defaultExtension    = ".smali"
	defaultReportOutput = ""

	envPrefix = "UNPIN"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".unpin.log"
	defaultLogLevel      = "info"
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(patchParallelConfigKey, defaultParallel)
	viper.SetDefault(patchLineEndingConfigKey, defaultLineEnding)
	viper.SetDefault(patchDryRunConfigKey, defaultDryRun)
	viper.SetDefault(patchDiffConfigKey, defaultDiff)
	viper.SetDefault(patchBackupConfigKey, defaultBackup)
	viper.SetDefault(prefixConfigKey, defaultPrefix)
	viper.SetDefault(extensionConfigKey, defaultExtension)
	viper.SetDefault(excludeConfigKey, []string{})
	viper.SetDefault(reportOutputConfigKey, defaultReportOutput)

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("Failed to read config file", "file", configFileName, "error", err)
		}
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// numeric slog levels, e.g. -4 for debug
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger points the default slog logger at a rotating log file.
//
// It logs at log.level (Info by default); verbose forces Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	logLevel := parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	if verbose {
		logLevel = slog.LevelDebug
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
