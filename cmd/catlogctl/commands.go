package main

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ugorji/go/codec"
	"gopkg.in/yaml.v3"

	"github.com/ugorji/go-catlog/config"
	"github.com/ugorji/go-catlog/flagutil"
	"github.com/ugorji/go-catlog/level"
	"github.com/ugorji/go-catlog/logging"
	"github.com/ugorji/go-catlog/registry"
)

var knownGroups = map[string]bool{
	config.General: true,
	config.Format:  true,
	config.Rules:   true,
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "catlogctl",
		Short:         "catlog configuration tool",
		Long:          "catlogctl validates catlog configuration files, prints the rules they build, and emits test records through them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(newValidateCommand(), newDescribeCommand(), newEmitCommand())
	return root
}

// diagnostics reports the registry's own warnings on the command's stderr.
func diagnostics(cmd *cobra.Command) logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(cmd.ErrOrStderr())
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// build loads path and builds a registry from it. Stream sinks are
// discarded, so that building does not write to the tool's own output.
func build(cmd *cobra.Command, path string) (cfg *config.Config, reg *registry.Registry, err error) {
	if cfg, err = config.Load(path); err != nil {
		return
	}
	reg = registry.New(
		registry.WithDiagnostics(diagnostics(cmd)),
		registry.WithStdout(io.Discard),
		registry.WithStderr(io.Discard))
	if err = reg.Build(cfg); err != nil {
		reg = nil
	}
	return
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check that a configuration file builds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, reg, err := build(cmd, args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			defer reg.Close()
			for _, g := range cfg.Groups() {
				if !knownGroups[g] {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: unknown group [%s] ignored\n", args[0], g)
				}
			}
			cs := reg.Describe()
			n := 0
			for _, c := range cs {
				n += len(c.Rules)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d categories, %d rules)\n", args[0], len(cs), n)
			return nil
		},
	}
}

func newDescribeCommand() *cobra.Command {
	var match flagutil.RegexpFlagValue
	var accepts flagutil.MaskFlagValue
	cmd := &cobra.Command{
		Use:   "describe FILE",
		Short: "Print the categories and rules a configuration file builds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if output != "json" && output != "yaml" {
				return fmt.Errorf("invalid --output %q; use json|yaml", output)
			}
			_, reg, err := build(cmd, args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			defer reg.Close()
			cs := filter(reg.Describe(), match.Regexp(), &accepts)
			w := cmd.OutOrStdout()
			if output == "yaml" {
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err = enc.Encode(cs); err == nil {
					err = enc.Close()
				}
				return err
			}
			if err = codec.NewEncoder(w, &jsonHandle).Encode(cs); err == nil {
				_, err = io.WriteString(w, "\n")
			}
			return err
		},
	}
	cmd.Flags().StringP("output", "o", "json", "Output format: json|yaml")
	cmd.Flags().Var(&match, "match", "Only categories whose name matches this regexp")
	cmd.Flags().Var(&accepts, "accepts", "Only rules accepting some level of this filter, e.g. >=warn")
	return cmd
}

var jsonHandle = codec.JsonHandle{Indent: 2}

func filter(cs []registry.CategoryInfo, re *regexp.Regexp, accepts *flagutil.MaskFlagValue) (out []registry.CategoryInfo) {
	m, byMask := accepts.Mask()
	for _, c := range cs {
		if re != nil && !re.MatchString(c.Name) {
			continue
		}
		if byMask {
			rules := c.Rules[:0:0]
			for _, u := range c.Rules {
				if u.Mask&m != 0 {
					rules = append(rules, u)
				}
			}
			if len(rules) == 0 {
				continue
			}
			c.Rules = rules
		}
		out = append(out, c)
	}
	return
}

func newEmitCommand() *cobra.Command {
	var lc logging.Config
	var rules flagutil.RulesFlagValue
	lvl := flagutil.LevelFlagValue(level.Info)
	cmd := &cobra.Command{
		Use:   "emit MESSAGE...",
		Short: "Log a message through a configuration",
		Long:  "emit logs one record to a category, the way an application using the configuration would.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			category, _ := cmd.Flags().GetString("category")
			cfg := config.New()
			if lc.File != "" {
				if cfg, err = config.Load(lc.File); err != nil {
					return
				}
			}
			if err = rules.AddTo(cfg); err != nil {
				return
			}
			opts := append(lc.Options(),
				registry.WithDiagnostics(diagnostics(cmd)),
				registry.WithStdout(cmd.OutOrStdout()),
				registry.WithStderr(cmd.ErrOrStderr()))
			lg, err := logging.OpenConfig(cfg, opts...)
			if err != nil {
				return
			}
			defer lg.Close()
			if !lg.Enabled(category, lvl.Level()) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: no rule accepts %s at %s\n", category, lvl.Level())
			}
			return lg.Log(0, category, lvl.Level(), strings.Join(args, " "))
		},
	}
	lc.Flags(cmd.Flags())
	cmd.Flags().StringP("category", "c", "app", "Category to log to")
	cmd.Flags().VarP(&lvl, "level", "l", "Level: debug|info|notice|warn|error|fatal")
	cmd.Flags().Var(&rules, "rule", "Extra rule line, e.g. 'app.>=warn=;>stderr' (repeatable)")
	return cmd
}
