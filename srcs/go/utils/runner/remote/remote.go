package remote

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/lsds/ibpair/srcs/go/log"
	"github.com/lsds/ibpair/srcs/go/proc"
	"github.com/lsds/ibpair/srcs/go/utils"
	"github.com/lsds/ibpair/srcs/go/utils/iostream"
	"github.com/lsds/ibpair/srcs/go/utils/ssh"
	"github.com/lsds/ibpair/srcs/go/utils/xterm"
	"github.com/pkg/errors"
)

// Options controls how RunAll logs in and where it keeps logs.
type Options struct {
	User       string
	KeyFile    string
	VerboseLog bool
	LogDir     string
}

type dialFunc func(ssh.Config) (watcher, error)

type watcher interface {
	Watch(ctx context.Context, cmd string, redirectors []*iostream.StdWriters) error
	Close() error
}

var dial dialFunc = func(cfg ssh.Config) (watcher, error) { return ssh.New(cfg) }

// RunAll runs every p on p.Hostname over ssh and cancels the others on the
// first failure.
func RunAll(ctx context.Context, ps []proc.Proc, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	errs := make([]error, len(ps))
	for i, p := range ps {
		wg.Add(1)
		go func(i int, p proc.Proc) {
			defer wg.Done()
			t0 := time.Now()
			config := ssh.Config{
				Host:    p.Hostname,
				User:    opts.User,
				KeyFile: opts.KeyFile,
			}
			client, err := dial(config)
			if err != nil {
				log.Errorf("#<%s> failed to new SSH Client with config: %v: %v", p.Name, config, err)
				errs[i] = errors.Wrapf(err, "#<%s>", p.Name)
				cancel()
				return
			}
			defer client.Close()
			var redirectors []*iostream.StdWriters
			if opts.VerboseLog {
				redirectors = append(redirectors, iostream.NewXTermRedirector(p.Name, xterm.BasicColors.Choose(i)))
			}
			if len(opts.LogDir) > 0 {
				files := iostream.NewFileRedirector(filepath.Join(opts.LogDir, p.Name))
				defer files.Close()
				redirectors = append(redirectors, files)
			}
			if err := client.Watch(ctx, p.Script(), redirectors); err != nil {
				log.Errorf("#<%s> exited with error: %v, took %s", p.Name, err, time.Since(t0))
				errs[i] = errors.Wrapf(err, "#<%s>", p.Name)
				cancel()
				return
			}
			log.Debugf("#<%s> finished successfully, took %s", p.Name, time.Since(t0))
		}(i, p)
	}
	wg.Wait()
	return utils.MergeErrors(errs, utils.Pluralize(len(ps), "task", "tasks"))
}
