// Package bench builds the ib_write_bw command line for an assignment.
package bench

import (
	"fmt"
	"strconv"

	"github.com/lsds/ibpair/srcs/go/plan"
	"github.com/lsds/ibpair/srcs/go/proc"
	"github.com/pkg/errors"
)

const (
	DefaultSize         = 1 << 20
	DefaultQueuePairs   = 4
	DefaultRetryCount   = 7
	DefaultTrafficClass = 0
)

// Spec holds the parameters which are the same for every process of a job.
type Spec struct {
	Prog         string
	Size         int
	QueuePairs   int
	RetryCount   int
	TrafficClass int
	LogDir       string
	Envs         proc.Envs
}

func DefaultSpec(prog string) Spec {
	return Spec{
		Prog:         prog,
		Size:         DefaultSize,
		QueuePairs:   DefaultQueuePairs,
		RetryCount:   DefaultRetryCount,
		TrafficClass: DefaultTrafficClass,
	}
}

// Validate rejects values ib_write_bw would refuse.
func (s Spec) Validate() error {
	if len(s.Prog) == 0 {
		return errors.New("empty benchmark program")
	}
	if s.Size <= 0 {
		return errors.Errorf("invalid message size %d", s.Size)
	}
	if s.QueuePairs <= 0 {
		return errors.Errorf("invalid number of queue pairs %d", s.QueuePairs)
	}
	if s.RetryCount < 0 {
		return errors.Errorf("invalid retry count %d", s.RetryCount)
	}
	if s.TrafficClass < 0 || s.TrafficClass > 255 {
		return errors.Errorf("invalid traffic class %d", s.TrafficClass)
	}
	return nil
}

// Args returns the arguments of ib_write_bw. The server listens so it has no
// peer, the client connects to the peer given as the last argument.
func (s Spec) Args(a plan.Assignment) []string {
	args := []string{
		`-d`, a.Device,
		`-s`, strconv.Itoa(s.Size),
		`--report_gbits`,
		`-q`, strconv.Itoa(s.QueuePairs),
		`-p`, strconv.Itoa(a.Port),
		`--run_infinitely`,
		`-F`,
		`--retry_count`, strconv.Itoa(s.RetryCount),
		`--report-both`,
		`--tclass`, strconv.Itoa(s.TrafficClass),
	}
	if a.Role == plan.Client {
		args = append(args, a.Peer)
	}
	return args
}

// Proc wraps the command for the local runner.
func (s Spec) Proc(a plan.Assignment) proc.Proc {
	return proc.Proc{
		Name:   Name(a),
		Prog:   s.Prog,
		Args:   s.Args(a),
		Envs:   s.Envs,
		LogDir: s.LogDir,
	}
}

// Name is unique among the processes of a job.
func Name(a plan.Assignment) string {
	return fmt.Sprintf("%s.lr%d", a.Self, a.LocalRank)
}
