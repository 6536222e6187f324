package local

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lsds/ibpair/srcs/go/log"
	"github.com/lsds/ibpair/srcs/go/proc"
	"github.com/lsds/ibpair/srcs/go/utils"
	"github.com/lsds/ibpair/srcs/go/utils/iostream"
	"github.com/lsds/ibpair/srcs/go/utils/xterm"
	"github.com/pkg/errors"
)

type Runner struct {
	Name          string
	Color         xterm.Color
	LogDir        string
	LogFilePrefix string
	VerboseLog    bool
}

// ExitError is returned when the process ran but did not exit cleanly.
type ExitError struct {
	Err        error
	LastStderr string
}

func (e *ExitError) Error() string {
	if len(e.LastStderr) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.LastStderr)
}

func (e *ExitError) Unwrap() error { return e.Err }

func (r Runner) defaultRedirectors() []*iostream.StdWriters {
	var redirectors []*iostream.StdWriters
	if r.VerboseLog {
		redirectors = append(redirectors, iostream.NewXTermRedirector(r.Name, r.Color))
	}
	if len(r.LogDir) > 0 && len(r.LogFilePrefix) > 0 {
		redirectors = append(redirectors, iostream.NewFileRedirector(filepath.Join(r.LogDir, r.LogFilePrefix)))
	}
	return redirectors
}

// Run starts p and waits for it. The process is killed when ctx is done.
// Log files are written only when LogDir is set, and are closed on return.
func (r Runner) Run(ctx context.Context, p proc.Proc) error {
	redirectors := r.defaultRedirectors()
	defer func() {
		for _, w := range redirectors {
			w.Close()
		}
	}()
	return runWith(ctx, redirectors, p.Cmd())
}

func runWith(ctx context.Context, redirectors []*iostream.StdWriters, cmd *exec.Cmd) error {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	lastStderr := &iostream.LastLineWriter{}
	redirectors = append(redirectors, &iostream.StdWriters{Stdout: &iostream.Null{}, Stderr: lastStderr})
	results := iostream.StdReaders{Stdout: stdout, Stderr: stderr}
	if err := cmd.Start(); err != nil {
		return err
	}
	ioDone := results.Stream(redirectors...)
	done := make(chan error, 1)
	go func() {
		ioDone.Wait() // call this before cmd.Wait!
		done <- cmd.Wait()
	}()
	select {
	case <-ctx.Done():
		cmd.Process.Kill()
		<-done
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return &ExitError{Err: err, LastStderr: lastStderr.Last()}
		}
		return nil
	}
}

// RunAll runs all ps in parallel and cancels the others on the first failure.
func RunAll(ctx context.Context, ps []proc.Proc, verboseLog bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	errs := make([]error, len(ps))
	for i, p := range ps {
		wg.Add(1)
		go func(i int, p proc.Proc) {
			defer wg.Done()
			r := &Runner{
				Name:          p.Name,
				Color:         xterm.BasicColors.Choose(i),
				VerboseLog:    verboseLog,
				LogFilePrefix: strings.Replace(p.Name, "/", "-", -1),
				LogDir:        p.LogDir,
			}
			if err := r.Run(ctx, p); err != nil {
				log.Errorf("#<%s> exited with error: %v", p.Name, err)
				errs[i] = errors.Wrapf(err, "#<%s>", p.Name)
				cancel()
				return
			}
			log.Debugf("#<%s> finished successfully", p.Name)
		}(i, p)
	}
	wg.Wait()
	return utils.MergeErrors(errs, utils.Pluralize(len(ps), "task", "tasks"))
}
