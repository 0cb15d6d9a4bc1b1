package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/gdbmi/internal/config"
	"github.com/dshills/gdbmi/internal/logger"
)

type rootOptions struct {
	configPath string
	gdbPath    string
	target     string
	dir        string
	hooks      string
	views      []string
	noFrame    bool
}

func newRootCmd(log *logger.Logger, in io.Reader, out io.Writer) *cobra.Command {
	var opts rootOptions

	root := &cobra.Command{
		Use:   "gdbmi [flags] [program [args...]]",
		Short: "Runs gdb behind a GDB/MI protocol engine with an interactive console",
		Long: `gdbmi starts gdb in MI mode and gives you its console.

Lines you type are passed to gdb as they are, in MI or CLI syntax. Output
arrives as gdb produces it. Views listed with --views are refreshed and
printed whenever the debuggee stops or the selected thread changes.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := effectiveConfig(cmd, opts)
			if err != nil {
				return err
			}
			if !cmd.Flag("verbosity").Changed {
				if err := log.SetLevelString(cfg.Engine.LogLevel); err != nil {
					return err
				}
			}
			s := &session{
				cfg:         cfg,
				configPath:  path,
				followLevel: !cmd.Flag("verbosity").Changed,
				log:         log,
				in:          in,
				out:         out,
			}
			if len(args) > 0 {
				s.program, s.programArgs = args[0], args[1:]
			}
			return s.run(cmd.Context())
		},
	}
	root.CompletionOptions.HiddenDefaultCmd = true
	// Everything after the program name belongs to the program.
	root.Flags().SetInterspersed(false)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Configuration file (.toml, .yaml); defaults to the per-user config")
	log.AddLevelFlag(pf)

	f := root.Flags()
	f.StringVar(&opts.gdbPath, "gdb", "", "gdb executable")
	f.StringVar(&opts.target, "target", "", "Connect to a gdbserver at this address")
	f.StringVar(&opts.dir, "dir", "", "Working directory for gdb")
	f.StringVar(&opts.hooks, "hooks", "", "Lua hook script")
	f.StringSliceVar(&opts.views, "views", nil, fmt.Sprintf("Views to show (%v)", config.ViewNames))
	f.BoolVar(&opts.noFrame, "no-frame-tracking", false, "Do not query the current frame after stops")

	root.AddCommand(newConfigCmd(&opts, out), newVersionCmd(out))
	return root
}

// effectiveConfig loads the configuration file and applies flags on top.
func effectiveConfig(cmd *cobra.Command, opts rootOptions) (config.Config, string, error) {
	path := opts.configPath
	if path == "" {
		if p, err := config.DefaultPath(); err == nil {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, "", err
	}

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("gdb") {
		cfg.GDB.Path = opts.gdbPath
	}
	if changed("target") {
		cfg.GDB.Target = opts.target
	}
	if changed("dir") {
		cfg.GDB.Dir = opts.dir
	}
	if changed("hooks") {
		cfg.Hooks.Script = opts.hooks
	}
	if changed("views") {
		cfg.Views = opts.views
	}
	if changed("no-frame-tracking") {
		cfg.Engine.TrackFrame = !opts.noFrame
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, "", err
	}
	return cfg, path, nil
}

func newConfigCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Prints the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := effectiveConfig(cmd, *opts)
			if err != nil {
				return err
			}
			return config.Encode(out, config.Format(format), cfg)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(config.FormatTOML), "Output format (toml, yaml)")
	return cmd
}

func newVersionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints version information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(out, "gdbmi %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		},
	}
}
