package cmd

import (
	"fmt"
	"strings"

	"github.com/atikulmunna/catloom/internal/filter"
	"github.com/atikulmunna/catloom/internal/model"
	"github.com/atikulmunna/catloom/internal/output"
	"github.com/atikulmunna/catloom/internal/source"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Settings is the resolved configuration for one run: flags first, then
// environment, then the config file.
type Settings struct {
	Input       source.Spec
	Filter      filter.Options
	Output      string
	Color       output.ColorMode
	MaxTagWidth int
	Stats       bool
	Verbose     bool
}

func loadSettings(cmd *cobra.Command, v *viper.Viper) (Settings, error) {
	s := Settings{
		Input: source.Spec{
			File:       strings.TrimSpace(v.GetString("file")),
			Stdin:      v.GetBool("stdin"),
			ExecLogcat: v.GetBool("exec-logcat"),
			Follow:     v.GetBool("follow"),
			Adb:        v.GetString("adb"),
		},
		Output:      strings.ToLower(strings.TrimSpace(v.GetString("output"))),
		MaxTagWidth: v.GetInt("max-tag-width"),
		Stats:       v.GetBool("stats"),
		Verbose:     v.GetBool("verbose"),
	}

	switch s.Output {
	case "", "text":
		s.Output = "text"
	case "json":
	default:
		return Settings{}, fmt.Errorf("unknown output format %q (want text or json)", s.Output)
	}

	color, err := output.ParseColorMode(v.GetString("color"))
	if err != nil {
		return Settings{}, err
	}
	s.Color = color

	if v.IsSet("pid") {
		pid := v.GetUint32("pid")
		s.Filter.PID = &pid
	}
	if v.IsSet("tid") {
		tid := v.GetUint32("tid")
		s.Filter.TID = &tid
	}
	if raw := strings.TrimSpace(v.GetString("level")); raw != "" {
		level, err := model.ParseLevel(raw)
		if err != nil {
			return Settings{}, err
		}
		s.Filter.Level = &level
	}

	s.Filter.Tags, err = patterns(cmd, v, "tag")
	if err != nil {
		return Settings{}, err
	}
	s.Filter.Messages, err = patterns(cmd, v, "message")
	if err != nil {
		return Settings{}, err
	}

	return s, nil
}

// patterns reads a list of regexes from the flag when given, or else from
// config. Message patterns are kept verbatim, so they are not bound to viper,
// whose flag handling would split them on commas.
func patterns(cmd *cobra.Command, v *viper.Viper, key string) ([]string, error) {
	flag := cmd.Flags().Lookup(key)
	if flag != nil && flag.Changed {
		if flag.Value.Type() == "stringArray" {
			return cmd.Flags().GetStringArray(key)
		}
		return cmd.Flags().GetStringSlice(key)
	}
	return v.GetStringSlice(key), nil
}
