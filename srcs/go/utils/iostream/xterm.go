package iostream

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/lsds/ibpair/srcs/go/utils/xterm"
)

type XtermWriter struct {
	prefix string
	w      io.Writer
	mu     *sync.Mutex
}

func (x XtermWriter) Write(bs []byte) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	fmt.Fprintf(x.w, "[%s] %s", x.prefix, string(bs))
	return len(bs), nil
}

// NewXTermRedirector prefixes every line with a colored name.
func NewXTermRedirector(name string, c xterm.Color) *StdWriters {
	return newXTermRedirector(name, c, os.Stdout, os.Stderr)
}

func newXTermRedirector(name string, c xterm.Color, stdout, stderr io.Writer) *StdWriters {
	if c == nil {
		c = xterm.NoColor
	}
	mu := &sync.Mutex{}
	return &StdWriters{
		Stdout: &XtermWriter{
			prefix: c.S(name) + "::stdout",
			w:      stdout,
			mu:     mu,
		},
		Stderr: &XtermWriter{
			prefix: c.S(name) + "::" + xterm.Warn.S("stderr"),
			w:      stderr,
			mu:     mu,
		},
	}
}
