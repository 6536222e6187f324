package launch

import (
	"context"

	"github.com/lsds/ibpair/srcs/go/proc"
	"github.com/lsds/ibpair/srcs/go/utils/runner/local"
	"github.com/lsds/ibpair/srcs/go/utils/xterm"
)

// LocalRunner runs each attempt as a child process. When p.LogDir is set the
// output of the attempt is kept in <logdir>/<name>.<attempt id>.std{out,err}.log.
type LocalRunner struct {
	Color      xterm.Color
	VerboseLog bool
}

func (r LocalRunner) Run(ctx context.Context, p proc.Proc, at Attempt) error {
	lr := local.Runner{
		Name:       p.Name,
		Color:      r.Color,
		VerboseLog: r.VerboseLog,
	}
	if len(p.LogDir) > 0 {
		lr.LogDir = p.LogDir
		lr.LogFilePrefix = p.Name + "." + at.ID
	}
	return lr.Run(ctx, p)
}
