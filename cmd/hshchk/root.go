package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/hshchk/pkg/hshchk/digest"
	"github.com/jamesainslie/hshchk/pkg/hshchk/report"
)

var (
	cfgFile     string
	forceCreate bool

	rootCmd = &cobra.Command{
		Use:   "hshchk [directory]",
		Short: "Create or verify checksum manifests for a directory tree",
		Long: `hshchk creates a checksum manifest for every file under a directory, or
verifies the files against an existing manifest.

The presence of a manifest in the directory selects the mode: with one, files
are verified; without one, a manifest is created. If no directory is given the
current directory is used.

Examples:
  hshchk                       # Create or verify in the current directory
  hshchk -t sha256 ~/photos    # Use SHA256 manifests
  hshchk -c .                  # Recreate the manifest
  hshchk -r -i '\.tmp$' .      # Verify, report extra files, skip *.tmp
  hshchk --report out.json --report-format json .`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCheck,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/hshchk/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output to stderr")

	flags := rootCmd.Flags()
	flags.StringP("type", "t", "", fmt.Sprintf("hash function type (%s)", strings.Join(digest.Names(), ", ")))
	flags.BoolVarP(&forceCreate, "create", "c", false, "force create mode and overwrite the manifest if it exists")
	flags.BoolP("size", "f", false, "check file sizes only")
	flags.BoolP("extra", "r", false, "report extra files")
	flags.BoolP("silent", "s", false, "don't write progress or the result to stdout")
	flags.StringP("match", "m", "", "process files whose path matches pattern")
	flags.StringP("ignore", "i", "", "ignore files whose path matches pattern")
	flags.StringSlice("ignore-glob", nil, "ignore files matching a shell glob (can be repeated)")
	flags.BoolP("hc", "u", false, "write manifests in the hshchk format instead of the sum format")
	flags.Bool("interactive", false, "show an interactive progress view")
	flags.Bool("count", false, "count files before processing to show overall progress")
	flags.Bool("cache", false, "reuse digests of unchanged files when creating")
	flags.String("report", "", "write a run report to this file")
	flags.String("report-format", "", fmt.Sprintf("report format (%s)", strings.Join(report.Available(), ", ")))
	flags.String("metrics-file", "", "write Prometheus metrics to this file")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("algorithm", flags.Lookup("type"))
	_ = viper.BindPFlag("size_only", flags.Lookup("size"))
	_ = viper.BindPFlag("report_extra", flags.Lookup("extra"))
	_ = viper.BindPFlag("silent", flags.Lookup("silent"))
	_ = viper.BindPFlag("match", flags.Lookup("match"))
	_ = viper.BindPFlag("ignore", flags.Lookup("ignore"))
	_ = viper.BindPFlag("ignore_globs", flags.Lookup("ignore-glob"))
	_ = viper.BindPFlag("hc", flags.Lookup("hc"))
	_ = viper.BindPFlag("interactive", flags.Lookup("interactive"))
	_ = viper.BindPFlag("count", flags.Lookup("count"))
	_ = viper.BindPFlag("cache.enabled", flags.Lookup("cache"))
	_ = viper.BindPFlag("report.path", flags.Lookup("report"))
	_ = viper.BindPFlag("report.format", flags.Lookup("report-format"))
	_ = viper.BindPFlag("metrics_file", flags.Lookup("metrics-file"))
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError("%v", err)
	}
	return err
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message to stdout.
func printInfo(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
