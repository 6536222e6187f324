package iostream

import (
	"io"
	"os"
	"sync"
)

var Std = StdWriters{
	Stdout: os.Stdout,
	Stderr: os.Stderr,
}

type StdReaders struct {
	Stdout io.Reader
	Stderr io.Reader
}

type StdWriters struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Close closes the writers which are closers, e.g. log files.
func (w *StdWriters) Close() error {
	var err error
	for _, x := range []io.Writer{w.Stdout, w.Stderr} {
		if c, ok := x.(io.Closer); ok {
			if e := c.Close(); e != nil && err == nil {
				err = e
			}
		}
	}
	return err
}

// Stream starts copying both readers to all writers, the returned Wait blocks
// until both readers reach EOF.
func (r *StdReaders) Stream(ws ...*StdWriters) interface{ Wait() } {
	var outs, errs []io.Writer
	for _, w := range ws {
		outs = append(outs, w.Stdout)
		errs = append(errs, w.Stderr)
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		Tee(r.Stdout, outs...)
		wg.Done()
	}()
	go func() {
		Tee(r.Stderr, errs...)
		wg.Done()
	}()
	return &wg
}

// LastLineWriter remembers the last non-empty line written to it.
type LastLineWriter struct {
	mu   sync.Mutex
	last string
}

func (w *LastLineWriter) Write(bs []byte) (int, error) {
	s := string(bs)
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	if len(s) > 0 {
		w.mu.Lock()
		w.last = s
		w.mu.Unlock()
	}
	return len(bs), nil
}

func (w *LastLineWriter) Last() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Null implements /dev/null
type Null struct{}

func (w *Null) Write(bs []byte) (int, error) {
	return len(bs), nil
}
