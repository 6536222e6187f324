package app

import (
	"fmt"
	"strings"

	"github.com/lsds/ibpair/srcs/go/plan/hostlist"
	"github.com/spf13/cobra"
)

func newHostlistCmd() *cobra.Command {
	var sep string
	cmd := &cobra.Command{
		Use:     "hostlist <list>...",
		Short:   "Expand compressed node lists such as hgx-[001-004,007].",
		Example: "  ibpair hostlist \"$SLURM_JOB_NODELIST\"",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var all []string
			for _, arg := range args {
				nodes, err := hostlist.Expand(arg)
				if err != nil {
					return err
				}
				all = append(all, nodes...)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(all, sep))
			return nil
		},
	}
	cmd.Flags().StringVar(&sep, "sep", "\n", "separator between node names")
	return cmd
}
