package iostream

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/tebeka/atexit"
)

type lazyFile struct {
	mu   sync.Mutex
	name string
	f    *os.File
}

// openFiles holds the files not yet closed by their owners, they are closed by a
// single atexit handler.
var openFiles = struct {
	sync.Mutex
	once  sync.Once
	files map[*lazyFile]struct{}
}{files: make(map[*lazyFile]struct{})}

func track(f *lazyFile) {
	openFiles.once.Do(func() { atexit.Register(closeAll) })
	openFiles.Lock()
	defer openFiles.Unlock()
	openFiles.files[f] = struct{}{}
}

func untrack(f *lazyFile) {
	openFiles.Lock()
	defer openFiles.Unlock()
	delete(openFiles.files, f)
}

func closeAll() {
	openFiles.Lock()
	var fs []*lazyFile
	for f := range openFiles.files {
		fs = append(fs, f)
	}
	openFiles.Unlock()
	for _, f := range fs {
		f.Close()
	}
}

// NewLazyFile returns a writer which creates filename on first write.
func NewLazyFile(filename string) io.WriteCloser {
	return &lazyFile{name: filename}
}

func (f *lazyFile) Write(bs []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.f == nil {
		if err := f.create(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log file %s: %v\n", f.name, err)
			return 0, err
		}
	}
	return f.f.Write(bs)
}

func (f *lazyFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.f == nil {
		return nil
	}
	err := f.f.Close()
	f.f = nil
	untrack(f)
	return err
}

func (f *lazyFile) create() error {
	if err := os.MkdirAll(filepath.Dir(f.name), os.ModePerm); err != nil {
		return err
	}
	file, err := os.OpenFile(f.name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	f.f = file
	track(f)
	return nil
}

func NewFileRedirector(name string) *StdWriters {
	return &StdWriters{
		Stdout: NewLazyFile(name + ".stdout.log"),
		Stderr: NewLazyFile(name + ".stderr.log"),
	}
}
