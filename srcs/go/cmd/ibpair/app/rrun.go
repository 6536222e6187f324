package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lsds/ibpair/srcs/go/ibpair/env"
	"github.com/lsds/ibpair/srcs/go/log"
	"github.com/lsds/ibpair/srcs/go/plan"
	"github.com/lsds/ibpair/srcs/go/plan/hostfile"
	"github.com/lsds/ibpair/srcs/go/plan/hostlist"
	"github.com/lsds/ibpair/srcs/go/proc"
	"github.com/lsds/ibpair/srcs/go/utils"
	"github.com/lsds/ibpair/srcs/go/utils/runner/local"
	"github.com/lsds/ibpair/srcs/go/utils/runner/remote"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/spf13/cobra"
)

type rrunFlags struct {
	Hosts        string
	HostFile     string
	RanksPerNode int
	Prog         string
	User         string
	KeyFile      string
	LogDir       string
	VerboseLog   bool
}

func newRrunCmd() *cobra.Command {
	f := rrunFlags{
		Prog:       "ibpair",
		VerboseLog: true,
	}
	cmd := &cobra.Command{
		Use:   "rrun [flags] -- [launch flags]",
		Short: "Run launch for every local rank of every node over ssh.",
		Long: `rrun starts the processes a scheduler would start: for each node and ` +
			`each local rank it runs "ibpair launch" with the IBPAIR_* variables set. ` +
			`Nodes named localhost are run without ssh.`,
		Example: "  ibpair rrun -H node[01-04] --ranks-per-node 4 -- --devices mlx5_0,mlx5_1",
		RunE: func(cmd *cobra.Command, args []string) error {
			nodes, err := f.nodes()
			if err != nil {
				return err
			}
			ranks, err := f.ranksPerNode(args)
			if err != nil {
				return err
			}
			ps := createProcs(nodes, ranks, f.Prog, args, f.LogDir)
			jobID := xid.New().String()
			for _, p := range ps {
				p.Envs[env.JobIDEnvKey] = jobID
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			trap(cancel)
			log.Infof("will run %s on %s", utils.Pluralize(len(ps), "process", "processes"), utils.Pluralize(len(nodes), "node", "nodes"))
			d, err := utils.Measure(func() error {
				if allLocal(nodes) {
					return local.RunAll(ctx, ps, f.VerboseLog)
				}
				return remote.RunAll(ctx, ps, remote.Options{
					User:       f.User,
					KeyFile:    f.KeyFile,
					VerboseLog: f.VerboseLog,
					LogDir:     f.LogDir,
				})
			})
			log.Infof("all %d processes finished, took %s", len(ps), d)
			return err
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&f.Hosts, "hosts", "H", "", "node list in compressed form")
	fs.StringVar(&f.HostFile, "hostfile", "", "file listing the nodes")
	fs.IntVar(&f.RanksPerNode, "ranks-per-node", f.RanksPerNode, "processes per node, defaults to two per device")
	fs.StringVar(&f.Prog, "prog", f.Prog, "path of ibpair on the nodes")
	fs.StringVarP(&f.User, "user", "u", "", "ssh user, defaults to $USER")
	fs.StringVar(&f.KeyFile, "key-file", "", "ssh private key, defaults to ~/.ssh/id_rsa")
	fs.StringVar(&f.LogDir, "logdir", "", "keep the output of every process in this directory")
	fs.BoolVarP(&f.VerboseLog, "verbose", "v", f.VerboseLog, "stream the output of every process")
	return cmd
}

func (f rrunFlags) nodes() ([]string, error) {
	switch {
	case len(f.Hosts) > 0 && len(f.HostFile) > 0:
		return nil, errors.New("-H and --hostfile are exclusive")
	case len(f.Hosts) > 0:
		return hostlist.Expand(f.Hosts)
	case len(f.HostFile) > 0:
		return hostfile.ParseFile(f.HostFile)
	}
	return nil, errors.New("one of -H and --hostfile is required")
}

// ranksPerNode checks the number of processes per node against the devices
// given to launch, which are the default devices unless --devices is passed.
func (f rrunFlags) ranksPerNode(launchArgs []string) (int, error) {
	devices := plan.DefaultDeviceList
	if val, ok := flagValue(launchArgs, "devices"); ok {
		dl, err := plan.ParseDeviceList(val)
		if err != nil {
			return 0, errors.Wrap(err, "invalid --devices")
		}
		devices = dl
	}
	if f.RanksPerNode == 0 {
		return devices.Slots(), nil
	}
	if f.RanksPerNode < 0 || f.RanksPerNode > devices.Slots() {
		return 0, errors.Errorf("%d ranks per node don't fit %d devices %s", f.RanksPerNode, len(devices), devices)
	}
	return f.RanksPerNode, nil
}

// flagValue finds --name value or --name=value in args.
func flagValue(args []string, name string) (string, bool) {
	for i, a := range args {
		if a == "--"+name && i+1 < len(args) {
			return args[i+1], true
		}
		if val, ok := strings.CutPrefix(a, "--"+name+"="); ok {
			return val, true
		}
	}
	return "", false
}

// createProcs creates one process per node and local rank, in node major
// order.
func createProcs(nodes []string, ranksPerNode int, prog string, launchArgs []string, logDir string) []proc.Proc {
	args := append([]string{"launch"}, launchArgs...)
	var ps []proc.Proc
	for i, node := range nodes {
		for lr := 0; lr < ranksPerNode; lr++ {
			ps = append(ps, proc.Proc{
				Name: fmt.Sprintf("%s.lr%d", node, lr),
				Prog: prog,
				Args: args,
				Envs: proc.Envs{
					env.LocalRankEnvKey: strconv.Itoa(lr),
					env.NodeIndexEnvKey: strconv.Itoa(i),
					env.NodeNameEnvKey:  node,
					env.NumNodesEnvKey:  strconv.Itoa(len(nodes)),
					env.NodeListEnvKey:  strings.Join(nodes, ","),
				},
				Hostname: node,
				LogDir:   logDir,
			})
		}
	}
	return ps
}

func allLocal(nodes []string) bool {
	for _, n := range nodes {
		if n != "localhost" && n != "127.0.0.1" {
			return false
		}
	}
	return true
}
