package app

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/lsds/ibpair/srcs/go/plan/hostfile"
	"github.com/lsds/ibpair/srcs/go/plan/topology"
	"github.com/lsds/ibpair/srcs/go/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type splitFlags struct {
	AllocatedNodesFile string
	TopologyFile       string
	Strategy           topology.Strategy
	NumA               int
	NumB               int
	OutputFile         string
}

func newSplitCmd() *cobra.Command {
	var f splitFlags
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split allocated nodes into two workloads by leaf switch.",
		Long: `split reads a slurm topology.conf and writes two comma separated node ` +
			`lists, one per line, for workload A and workload B.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b, err := runSplit(f)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(f.OutputFile) > 0 {
				out, err := os.Create(f.OutputFile)
				if err != nil {
					return err
				}
				defer out.Close()
				w = out
			}
			return writeSplit(w, a, b)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&f.AllocatedNodesFile, "allocated-nodes-file", "", "file listing the allocated nodes")
	fs.StringVar(&f.TopologyFile, "topology-file", "", "topology.conf, a path or an http(s) URL")
	fs.Var(&f.Strategy, "strategy", "compact | even")
	fs.IntVar(&f.NumA, "workload-a-nodes", 0, "number of nodes for workload A")
	fs.IntVar(&f.NumB, "workload-b-nodes", 0, "number of nodes for workload B")
	fs.StringVar(&f.OutputFile, "output-file", "", "write the node lists to this file instead of stdout")
	for _, name := range []string{"allocated-nodes-file", "topology-file", "workload-a-nodes", "workload-b-nodes"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runSplit(f splitFlags) ([]string, []string, error) {
	nodes, err := hostfile.ParseFile(f.AllocatedNodesFile)
	if err != nil {
		return nil, nil, err
	}
	t, err := readTopology(f.TopologyFile)
	if err != nil {
		return nil, nil, err
	}
	return t.Split(f.Strategy, nodes, f.NumA, f.NumB)
}

func readTopology(url string) (*topology.Topology, error) {
	r, err := utils.OpenURL(url, http.DefaultClient, utils.ProgName())
	if err != nil {
		return nil, err
	}
	defer r.Close()
	t, err := topology.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, url)
	}
	return t, nil
}

func writeSplit(w io.Writer, a, b []string) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n", strings.Join(a, ","), strings.Join(b, ","))
	return err
}
