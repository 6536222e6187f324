package app

import (
	"fmt"

	"github.com/lsds/ibpair/srcs/go/ibpair/bench"
	"github.com/lsds/ibpair/srcs/go/ibpair/env"
	"github.com/lsds/ibpair/srcs/go/plan"
	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	spec := bench.DefaultSpec(env.DefaultBench)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print what launch would run, without running it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := parseConfig(cmd)
			if err != nil {
				return err
			}
			a, err := plan.Resolve(cfg.Input())
			if err != nil {
				return err
			}
			spec.Prog = cfg.Bench
			if err := spec.Validate(); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, a)
			fmt.Fprintln(w, spec.Proc(*a).CommandLine())
			return nil
		},
	}
	addEnvFlags(cmd)
	addBenchFlags(cmd, &spec)
	return cmd
}
