// Package launch runs the benchmark of one process until it succeeds.
//
// A client first waits for its server (Rendezvous), then alternates between
// Attempting and Backoff until an attempt exits cleanly. A server starts in
// Attempting. Done is terminal.
package launch

import (
	"context"
	"fmt"
	"time"

	"github.com/lsds/ibpair/srcs/go/ibpair/probe"
	"github.com/lsds/ibpair/srcs/go/log"
	"github.com/lsds/ibpair/srcs/go/plan"
	"github.com/lsds/ibpair/srcs/go/proc"
	"github.com/lsds/ibpair/srcs/go/utils"
	"github.com/pkg/errors"
	"github.com/rs/xid"
)

type State int

const (
	StateRendezvous State = iota
	StateAttempting
	StateBackoff
	StateDone
)

var stateNames = map[State]string{
	StateRendezvous: `rendezvous`,
	StateAttempting: `attempting`,
	StateBackoff:    `backoff`,
	StateDone:       `done`,
}

func (s State) String() string {
	return stateNames[s]
}

// Attempt identifies one launch of the benchmark.
type Attempt struct {
	N  int
	ID string
}

// Runner runs one attempt and returns its exit error.
type Runner interface {
	Run(ctx context.Context, p proc.Proc, at Attempt) error
}

// PortOwnerFunc reports the process already listening on a port.
type PortOwnerFunc func(ctx context.Context, port int) (*probe.Listener, error)

var ErrAttemptsExhausted = errors.New("attempts exhausted")

type Launcher struct {
	Runner    Runner
	Clock     Clock
	Policy    Policy
	PortOwner PortOwnerFunc
}

func New(r Runner, p Policy) *Launcher {
	return &Launcher{
		Runner:    r,
		Clock:     RealClock{},
		Policy:    p,
		PortOwner: probe.PortOwner,
	}
}

type Result struct {
	Attempts int
	Elapsed  time.Duration
	State    State
}

// Run drives p through the state machine for assignment a.
func (l *Launcher) Run(ctx context.Context, a plan.Assignment, p proc.Proc) (*Result, error) {
	t0 := l.Clock.Now()
	state := StateAttempting
	if a.Role == plan.Client {
		state = StateRendezvous
	}
	if a.Role == plan.Server && l.Policy.Rendezvous == RendezvousFile {
		defer l.marker(a.Self, a.Port).remove()
	}
	var attempts int
	result := func() *Result {
		return &Result{Attempts: attempts, Elapsed: l.Clock.Now().Sub(t0), State: state}
	}
	for {
		log.Debugf("state: %s", state)
		switch state {
		case StateRendezvous:
			if err := l.rendezvous(ctx, a); err != nil {
				return result(), err
			}
			state = StateAttempting
		case StateAttempting:
			attempts++
			at := Attempt{N: attempts, ID: xid.New().String()}
			if a.Role == plan.Server {
				l.prepareServer(ctx, a, at)
			}
			log.Infof("attempt #%d (%s): %s", at.N, at.ID, p.CommandLine())
			err := l.Runner.Run(ctx, p, at)
			if err == nil {
				state = StateDone
				log.Infof("%s finished after %s", p.Name, utils.Pluralize(attempts, "attempt", "attempts"))
				return result(), nil
			}
			if ctx.Err() != nil {
				return result(), ctx.Err()
			}
			if !l.Policy.attemptsLeft(attempts) {
				return result(), errors.Wrapf(ErrAttemptsExhausted, "%s after %d: %v", p.Name, attempts, err)
			}
			log.Errorf("attempt #%d of %s failed: %v, retrying in %s", attempts, p.Name, err, l.Policy.Backoff)
			state = StateBackoff
		case StateBackoff:
			if err := l.Clock.Sleep(ctx, l.Policy.Backoff); err != nil {
				return result(), err
			}
			state = StateAttempting
		default:
			return result(), fmt.Errorf("unexpected state %s", state)
		}
	}
}

func (l *Launcher) prepareServer(ctx context.Context, a plan.Assignment, at Attempt) {
	if l.PortOwner != nil {
		if owner, err := l.PortOwner(ctx, a.Port); err != nil {
			log.Debugf("failed to check port %d: %v", a.Port, err)
		} else if owner != nil {
			log.Warnf("port %d is already used by %s", a.Port, owner)
		}
	}
	if l.Policy.Rendezvous == RendezvousFile {
		if err := l.marker(a.Self, a.Port).write(at.ID); err != nil {
			log.Warnf("failed to write rendezvous marker: %v", err)
		}
	}
}

func (l *Launcher) marker(node string, port int) marker {
	return marker{dir: l.Policy.RendezvousDir, job: l.Policy.JobID, node: node, port: port}
}

func (l *Launcher) rendezvous(ctx context.Context, a plan.Assignment) error {
	switch l.Policy.Rendezvous {
	case RendezvousFile:
		return l.waitMarker(ctx, a)
	default:
		log.Infof("waiting %s for server %s:%d", l.Policy.RendezvousDelay, a.Peer, a.Port)
		return l.Clock.Sleep(ctx, l.Policy.RendezvousDelay)
	}
}

// waitMarker falls back to attempting when the marker doesn't show up in
// time, the retry loop covers a server which is still not ready.
func (l *Launcher) waitMarker(ctx context.Context, a plan.Assignment) error {
	m := l.marker(a.Peer, a.Port)
	name := fmt.Sprintf("waiting for %s", m.path())
	log.Infof("%s", name)
	pollCtx := ctx
	if l.Policy.RendezvousTimeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, l.Policy.RendezvousTimeout)
		defer cancel()
	}
	sd := utils.InstallStallDetector(name, 10*time.Second)
	failed, ok := utils.PollEvery(pollCtx, m.exists, l.Policy.PollInterval)
	sd.Stop()
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ok {
		log.Warnf("server %s:%d not ready after %d polls, trying anyway", a.Peer, a.Port, failed)
		return nil
	}
	return l.Clock.Sleep(ctx, l.Policy.Grace)
}
