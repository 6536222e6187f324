package launch

import (
	"fmt"
	"os"
	"path/filepath"
)

// marker is the file by which the server of node:port announces itself. The
// job id is part of the name so that a marker left by a killed server never
// matches a later job using the same directory.
type marker struct {
	dir  string
	job  string
	node string
	port int
}

func (m marker) path() string {
	name := fmt.Sprintf("%s.%d.ready", m.node, m.port)
	if len(m.job) > 0 {
		name = m.job + "." + name
	}
	return filepath.Join(m.dir, name)
}

func (m marker) write(attemptID string) error {
	if err := os.MkdirAll(m.dir, os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(m.path(), []byte(attemptID+"\n"), 0644)
}

func (m marker) remove() {
	os.Remove(m.path())
}

func (m marker) exists() bool {
	_, err := os.Stat(m.path())
	return err == nil
}
