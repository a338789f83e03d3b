package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/atikulmunna/catloom/internal/output"
	"github.com/atikulmunna/catloom/internal/source"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "catloom: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "catloom",
		Short: "Colorful Android logcat viewer",
		Long: `catloom reads Android logcat output, classifies every line and prints it
in aligned, color-coded columns. Stack traces are indented under the entry
that threw them.

Input is taken from --file, from stdin when something is piped in, or from a
spawned "adb logcat" otherwise.

Examples:
  adb logcat | catloom
  catloom --file crash.txt -L W
  catloom --exec-logcat -T 'ActivityManager,Window.*' -M 'ANR'
  catloom --file live.txt --follow --output json`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.catloom.yaml)")

	flags.String("file", "", "path to an input file to read and process")
	flags.Bool("stdin", false, "read input from stdin [default when input is piped into the program]")
	flags.Bool("exec-logcat", false, `execute "adb logcat" and process its output [default when nothing is piped in]`)
	flags.Bool("follow", false, "keep reading --file as it grows")
	flags.String("adb", source.DefaultAdb, "adb executable used for --exec-logcat")
	cmd.MarkFlagsMutuallyExclusive("file", "stdin", "exec-logcat")

	flags.Uint32("pid", 0, "only include lines logged from a process with this pid")
	flags.Uint32("tid", 0, "only include lines logged from a thread with this tid")
	flags.StringP("level", "L", "", "only include lines with this level or higher (V|D|I|W|E|F)")
	flags.StringSliceP("tag", "T", nil, "only include lines whose whole tag matches one of these regexes (TAG[,TAG...])")
	flags.StringArrayP("message", "M", nil, "only include lines whose message contains a match for this regex (repeatable)")

	flags.StringP("output", "o", "text", "output format: text, json")
	flags.String("color", string(output.ColorAuto), "when to color output: auto, always, never")
	flags.Int("max-tag-width", output.DefaultMaxTagWidth, "widest the tag column may grow")
	flags.Bool("stats", false, "print a summary to stderr when input ends")
	flags.BoolP("verbose", "v", false, "report which input is being read")

	for _, key := range []string{
		"file", "stdin", "exec-logcat", "follow", "adb",
		"pid", "tid", "level",
		"output", "color", "max-tag-width", "stats", "verbose",
	} {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}

	cmd.SetVersionTemplate("catloom {{.Version}}\n")
	cmd.Version = version

	return cmd
}

// version is overridden at build time with -ldflags "-X".
var version = "dev"

func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".catloom")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("CATLOOM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}
