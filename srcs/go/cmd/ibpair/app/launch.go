package app

import (
	"context"
	"os"

	"github.com/lsds/ibpair/srcs/go/ibpair/bench"
	"github.com/lsds/ibpair/srcs/go/ibpair/env"
	"github.com/lsds/ibpair/srcs/go/ibpair/launch"
	"github.com/lsds/ibpair/srcs/go/ibpair/probe"
	"github.com/lsds/ibpair/srcs/go/log"
	"github.com/lsds/ibpair/srcs/go/plan"
	"github.com/lsds/ibpair/srcs/go/utils"
	"github.com/lsds/ibpair/srcs/go/utils/xterm"
	"github.com/spf13/cobra"
)

func newLaunchCmd() *cobra.Command {
	spec := bench.DefaultSpec(env.DefaultBench)
	policy := launch.DefaultPolicy()
	var quiet bool
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Run the benchmark of this process until it succeeds.",
		Long: `launch resolves the role, device, port and peer of this process from ` +
			`the scheduler environment and runs ib_write_bw, retrying failed runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := parseConfig(cmd)
			if err != nil {
				return err
			}
			a, err := plan.Resolve(cfg.Input())
			if err != nil {
				return err
			}
			log.SetTag(a.Tag())
			log.Infof("%s", a)
			warnAssignment(*a)
			spec.Prog = cfg.Bench
			policy.JobID = cfg.JobID
			if err := spec.Validate(); err != nil {
				return err
			}
			if err := policy.Validate(); err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			trap(cancel)
			probe.LogHostInfo(ctx)
			if log.IsDebug() {
				utils.LogSlurmEnv()
				utils.LogIBPairEnv()
			}
			r := launch.LocalRunner{
				Color:      xterm.BasicColors.Choose(a.LocalRank),
				VerboseLog: !quiet,
			}
			res, err := launch.New(r, policy).Run(ctx, *a, spec.Proc(*a))
			if res != nil {
				log.Infof("%s after %s, took %s", res.State, utils.Pluralize(res.Attempts, "attempt", "attempts"), res.Elapsed)
			}
			return err
		},
	}
	addEnvFlags(cmd)
	addBenchFlags(cmd, &spec)
	addPolicyFlags(cmd, &policy)
	cmd.Flags().StringVar(&spec.LogDir, "logdir", "", "keep the output of every attempt in this directory")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "don't print the benchmark output")
	return cmd
}

func warnAssignment(a plan.Assignment) {
	if a.IsLoopback() {
		log.Warnf("%s pairs with itself, the benchmark runs over loopback", a.Self)
	}
	if !a.IsSymmetric() {
		log.Warnf("odd number of nodes %d, %s serves one node and connects to another", a.NumNodes, a.Self)
	}
}

func trap(cancel context.CancelFunc) {
	utils.Trap(func(sig os.Signal) {
		log.Warnf("%s trapped", sig)
		cancel()
	})
}
