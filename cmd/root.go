package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/microlens/deflect/logging"
	"github.com/microlens/deflect/version"
)

// newRootCmd builds the deflect command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "deflect",
		Short:         "deflect computes microlensing deflection maps.",
		Version:       version.SourceVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "deflect version %s\n" .Version}}`)

	for _, name := range modeList() {
		root.AddCommand(newModeCmd(name))
	}
	root.AddCommand(newExampleConfigCmd(), newVersionCmd())
	return root
}

func modeList() []string {
	names := make([]string, 0, len(ModeNames))
	for name := range ModeNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newModeCmd(name string) *cobra.Command {
	var sets []string
	c := &cobra.Command{
		Use: fmt.Sprintf("%s [--set Name=value]... ____.config [____.%s.config]",
			name, name),
		Short: fmt.Sprintf("Run the %s mode.", name),
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(c *cobra.Command, args []string) error {
			lines, err := runMode(c.Context(), name, args, sets)
			for _, line := range lines {
				fmt.Fprintln(c.OutOrStdout(), line)
			}
			if err != nil {
				return fmt.Errorf("Error running mode %s:\n%w", name, err)
			}
			return nil
		},
	}
	c.Flags().StringArrayVar(&sets, "set", nil,
		"override a mode config variable, e.g. --set Nx=512")
	return c
}

// runMode reads the global and mode configs named by args and runs the mode.
func runMode(
	ctx context.Context, name string, args, flags []string,
) ([]string, error) {
	gName, modeName, err := configNames(args)
	if err != nil {
		return nil, err
	}

	gConfig := &GlobalConfig{}
	if err := gConfig.ReadConfig(gName, nil); err != nil {
		return nil, err
	}
	if err := gConfig.InitLogging(); err != nil {
		return nil, err
	}
	defer logging.Log().Sync()

	mode := newMode(name)
	if err := mode.ReadConfig(modeName, flags); err != nil {
		return nil, err
	}

	logging.Log().Debug("running mode", zap.String("mode", name),
		zap.String("config", gName), zap.String("mode_config", modeName))
	return mode.Run(ctx, gConfig)
}

// newMode returns a fresh Mode so that repeated runs don't share state.
func newMode(name string) Mode {
	switch name {
	case "map":
		return &MapConfig{}
	case "check":
		return &CheckConfig{}
	}
	panic(fmt.Sprintf("newMode given unknown mode '%s'.", name))
}

// configNames splits the positional arguments into the global config and the
// optional mode config. The global config may also come from
// $DEFLECT_GLOBAL_CONFIG.
func configNames(args []string) (global, mode string, err error) {
	if name := os.Getenv(GlobalConfigEnv); name != "" {
		if len(args) > 1 {
			return "", "", fmt.Errorf("$%s has been set, so you may only "+
				"pass a single config file as a parameter.", GlobalConfigEnv)
		}
		if len(args) == 1 {
			mode = args[0]
		}
		return name, mode, nil
	}

	switch len(args) {
	case 0:
		return "", "", fmt.Errorf("No config files provided in command " +
			"line arguments.")
	case 1:
		return args[0], "", nil
	default:
		return args[0], args[1], nil
	}
}

func newExampleConfigCmd() *cobra.Command {
	targets := append([]string{"config"}, modeList()...)
	return &cobra.Command{
		Use:       "example-config [ " + strings.Join(targets, " | ") + " ]",
		Short:     "Print an example config file.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: targets,
		RunE: func(c *cobra.Command, args []string) error {
			if args[0] == "config" {
				fmt.Fprint(c.OutOrStdout(), new(GlobalConfig).ExampleConfig())
				return nil
			}
			mode, ok := ModeNames[args[0]]
			if !ok {
				return fmt.Errorf("I don't recognize the config target '%s'.",
					args[0])
			}
			fmt.Fprint(c.OutOrStdout(), mode.ExampleConfig())
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the source version.",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			fmt.Fprintf(c.OutOrStdout(), "deflect version %s\n",
				version.SourceVersion)
		},
	}
}

// Execute runs the deflect command line. Interrupts cancel any running map.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
