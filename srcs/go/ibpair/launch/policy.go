package launch

import (
	"fmt"
	"time"
)

// Rendezvous is how a client makes sure its server is up before the first
// attempt.
type Rendezvous int

const (
	// RendezvousDelay sleeps a fixed delay.
	RendezvousDelay Rendezvous = iota
	// RendezvousFile waits for the server's marker file in a shared
	// directory, then sleeps a short grace period.
	RendezvousFile
)

var rendezvousNames = map[Rendezvous]string{
	RendezvousDelay: `delay`,
	RendezvousFile:  `file`,
}

func (r Rendezvous) String() string {
	return rendezvousNames[r]
}

// Set implements flag.Value
func (r *Rendezvous) Set(val string) error {
	for k, v := range rendezvousNames {
		if v == val {
			*r = k
			return nil
		}
	}
	return fmt.Errorf("invalid rendezvous %q, options are: delay | file", val)
}

// Type implements pflag.Value
func (r *Rendezvous) Type() string { return "rendezvous" }

// Policy decides how long to wait and how often to retry.
type Policy struct {
	// MaxAttempts bounds the number of launches, 0 means no bound.
	MaxAttempts int
	// Backoff is the pause after a failed attempt.
	Backoff time.Duration

	Rendezvous      Rendezvous
	RendezvousDelay time.Duration
	// JobID, Dir, Timeout, PollInterval and Grace are used by RendezvousFile.
	JobID             string
	RendezvousDir     string
	RendezvousTimeout time.Duration
	PollInterval      time.Duration
	Grace             time.Duration
}

const (
	DefaultBackoff           = 5 * time.Second
	DefaultRendezvousDelay   = 30 * time.Second
	DefaultRendezvousTimeout = 10 * time.Minute
	DefaultPollInterval      = 1 * time.Second
	DefaultGrace             = 2 * time.Second
)

func DefaultPolicy() Policy {
	return Policy{
		Backoff:           DefaultBackoff,
		Rendezvous:        RendezvousDelay,
		RendezvousDelay:   DefaultRendezvousDelay,
		RendezvousTimeout: DefaultRendezvousTimeout,
		PollInterval:      DefaultPollInterval,
		Grace:             DefaultGrace,
	}
}

func (p Policy) Validate() error {
	if p.MaxAttempts < 0 {
		return fmt.Errorf("invalid max attempts %d", p.MaxAttempts)
	}
	if p.Backoff < 0 || p.RendezvousDelay < 0 {
		return fmt.Errorf("negative delay")
	}
	if p.Rendezvous == RendezvousFile {
		if len(p.RendezvousDir) == 0 {
			return fmt.Errorf("rendezvous %s needs a directory", p.Rendezvous)
		}
		if p.PollInterval <= 0 {
			return fmt.Errorf("invalid poll interval %s", p.PollInterval)
		}
	}
	return nil
}

func (p Policy) attemptsLeft(done int) bool {
	return p.MaxAttempts == 0 || done < p.MaxAttempts
}
