// Package app implements the ibpair command line.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lsds/ibpair/srcs/go/ibpair/env"
	"github.com/lsds/ibpair/srcs/go/log"
	"github.com/lsds/ibpair/srcs/go/utils"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

type rootFlags struct {
	EnvFiles  []string
	Debug     bool
	Timestamp bool
	Logfile   string
}

func (f *rootFlags) apply() error {
	if err := env.LoadFiles(f.EnvFiles...); err != nil {
		return err
	}
	if f.Debug {
		log.SetLevel(log.Debug)
	}
	if f.Timestamp {
		log.SetFlags(log.ShowTimestamp)
	}
	if len(f.Logfile) > 0 {
		if err := os.MkdirAll(filepath.Dir(f.Logfile), os.ModePerm); err != nil {
			log.Warnf("failed to create log dir: %v", err)
		}
		lf, err := os.Create(f.Logfile)
		if err != nil {
			return err
		}
		atexit.Register(func() { lf.Close() })
		log.SetOutput(lf)
	}
	return nil
}

// NewRootCmd creates the ibpair command with all its subcommands.
func NewRootCmd() *cobra.Command {
	var f rootFlags
	root := &cobra.Command{
		Use:   "ibpair",
		Short: "Run ib_write_bw between pairs of nodes on every HCA.",
		Long: `ibpair runs one ib_write_bw per local rank. Odd ranks serve, even ranks ` +
			`connect to the node half a job away, every pair of ranks uses its own ` +
			`device and port.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return f.apply()
		},
	}
	pf := root.PersistentFlags()
	pf.StringSliceVar(&f.EnvFiles, "env-file", nil, "load variables from .env files, the environment takes precedence")
	pf.BoolVar(&f.Debug, "debug", false, "enable debug logs, same as "+log.DebugEnvKey+"=1")
	pf.BoolVar(&f.Timestamp, "timestamp", false, "prefix logs with the elapsed time")
	pf.StringVar(&f.Logfile, "logfile", "", "write logs to a file instead of stdout")

	root.AddCommand(
		newLaunchCmd(),
		newResolveCmd(),
		newHostlistCmd(),
		newSplitCmd(),
		newRrunCmd(),
		newVersionCmd(),
	)
	return root
}

// Main runs the command line and exits the process.
func Main(args []string) {
	root := NewRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		utils.ExitErr(err)
	}
	atexit.Exit(0)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), utils.BuildInfo())
		},
	}
}
