package app

import (
	"os"

	"github.com/lsds/ibpair/srcs/go/ibpair/bench"
	"github.com/lsds/ibpair/srcs/go/ibpair/env"
	"github.com/lsds/ibpair/srcs/go/ibpair/launch"
	"github.com/spf13/cobra"
)

// envFlags override the variable of the same meaning, so that the whole
// configuration is parsed and validated in one place.
var envFlags = []struct {
	name  string
	key   string
	usage string
}{
	{`local-rank`, env.LocalRankEnvKey, `local rank, defaults to $` + env.SlurmLocalIDEnvKey},
	{`node-index`, env.NodeIndexEnvKey, `index of this node in the node list, defaults to $` + env.SlurmNodeIDEnvKey},
	{`node-name`, env.NodeNameEnvKey, `name of this node, used when the node index is unknown`},
	{`nodes`, env.NodeListEnvKey, `node list in compressed form, defaults to $` + env.SlurmNodeListEnvKey},
	{`devices`, env.DevicesEnvKey, `comma separated HCA names`},
	{`base-port`, env.BasePortEnvKey, `port of the first device`},
	{`bench`, env.BenchEnvKey, `benchmark program`},
}

func addEnvFlags(cmd *cobra.Command) {
	for _, f := range envFlags {
		cmd.Flags().String(f.name, "", f.usage)
	}
}

func parseConfig(cmd *cobra.Command) (*env.Config, error) {
	for _, f := range envFlags {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		val, err := cmd.Flags().GetString(f.name)
		if err != nil {
			return nil, err
		}
		if err := os.Setenv(f.key, val); err != nil {
			return nil, err
		}
	}
	return env.ParseConfigFromEnv()
}

func addBenchFlags(cmd *cobra.Command, s *bench.Spec) {
	fs := cmd.Flags()
	fs.IntVar(&s.Size, "size", s.Size, "message size in bytes")
	fs.IntVar(&s.QueuePairs, "qps", s.QueuePairs, "number of queue pairs")
	fs.IntVar(&s.RetryCount, "retry-count", s.RetryCount, "IB retry count")
	fs.IntVar(&s.TrafficClass, "tclass", s.TrafficClass, "traffic class")
}

func addPolicyFlags(cmd *cobra.Command, p *launch.Policy) {
	fs := cmd.Flags()
	fs.IntVar(&p.MaxAttempts, "max-attempts", p.MaxAttempts, "give up after this many attempts, 0 retries forever")
	fs.DurationVar(&p.Backoff, "backoff", p.Backoff, "pause between attempts")
	fs.Var(&p.Rendezvous, "rendezvous", "how clients wait for servers: delay | file")
	fs.DurationVar(&p.RendezvousDelay, "rendezvous-delay", p.RendezvousDelay, "client delay before the first attempt")
	fs.StringVar(&p.RendezvousDir, "rendezvous-dir", p.RendezvousDir, "shared directory for file rendezvous")
	fs.DurationVar(&p.RendezvousTimeout, "rendezvous-timeout", p.RendezvousTimeout, "how long clients wait for the server marker")
}
