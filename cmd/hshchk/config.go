package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/hshchk/pkg/hshchk/config"
	"github.com/jamesainslie/hshchk/pkg/hshchk/logging"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage hshchk configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/hshchk/config.yaml (if set)
  2. ~/.config/hshchk/config.yaml

Environment variables override config file settings using the HSHCHK_ prefix:
  HSHCHK_ALGORITHM=SHA256
  HSHCHK_CACHE_ENABLED=true
  HSHCHK_LOGGING_LEVEL=debug`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the configuration merged from defaults, the config file and the environment.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by $VISUAL, then $EDITOR, then vi. A default
config file is created first if none exists.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the merged configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return usageError(err)
	}

	out := cmd.OutOrStdout()
	if used := viper.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			fmt.Fprintf(out, "Config file: %s\n\n", used)
		} else {
			fmt.Fprintf(out, "Config file: (using defaults, no file found)\n\n")
		}
	} else {
		fmt.Fprintf(out, "Config file: (using defaults, no file found)\n\n")
	}

	logPath := cfg.Logging.Path
	if logPath == "" {
		logPath = logging.DefaultLogPath()
	}

	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintln(out, "----------------------")
	fmt.Fprintf(out, "algorithm:            %s\n", cfg.Algorithm)
	fmt.Fprintf(out, "format:               %s\n", cfg.Format)
	fmt.Fprintf(out, "size_only:            %t\n", cfg.SizeOnly)
	fmt.Fprintf(out, "report_extra:         %t\n", cfg.ReportExtra)
	fmt.Fprintf(out, "count:                %t\n", cfg.Count)
	fmt.Fprintf(out, "match:                %s\n", cfg.Match)
	fmt.Fprintf(out, "ignore:               %s\n", cfg.Ignore)
	fmt.Fprintf(out, "ignore_globs:         %v\n", cfg.IgnoreGlobs)
	fmt.Fprintf(out, "buffer_size:          %s\n", cfg.BufferSize)
	fmt.Fprintf(out, "progress_block_size:  %s\n", cfg.ProgressBlockSize)
	fmt.Fprintf(out, "refresh_interval:     %s\n", cfg.RefreshInterval)
	fmt.Fprintf(out, "cache.enabled:        %t\n", cfg.Cache.Enabled)
	fmt.Fprintf(out, "cache.path:           %s\n", cfg.CachePath())
	fmt.Fprintf(out, "report.path:          %s\n", cfg.Report.Path)
	fmt.Fprintf(out, "report.format:        %s\n", cfg.Report.Format)
	fmt.Fprintf(out, "metrics_file:         %s\n", cfg.MetricsFile)
	fmt.Fprintf(out, "logging.level:        %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "logging.path:         %s\n", logPath)

	fmt.Fprintln(out, "\nEnvironment Overrides:")
	fmt.Fprintln(out, "----------------------")
	anyOverrides := false
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, config.EnvPrefix+"_") {
			fmt.Fprintln(out, kv)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Fprintln(out, "(none)")
	}
	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, args []string) error {
	path, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", path, editor)

	editorCmd := exec.Command(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		printInfo("Config file already exists: %s", path)
		printInfo("Use 'hshchk config edit' to modify it.")
		return nil
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	printInfo("Created default config file: %s", path)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)

	if _, err := os.Stat(path); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}
	return nil
}
