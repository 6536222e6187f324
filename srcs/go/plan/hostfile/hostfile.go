package hostfile

import (
	"os"
	"strings"

	"github.com/lsds/ibpair/srcs/go/plan/hostlist"
	"github.com/pkg/errors"
)

// ParseFile reads an allocated node list, e.g. the output of
// `scontrol show hostnames`, or an mpirun hostfile.
func ParseFile(filename string) ([]string, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	nodes, err := Parse(string(bs))
	if err != nil {
		return nil, errors.Wrap(err, filename)
	}
	return nodes, nil
}

// Parse accepts whitespace separated host names, compressed host lists and
// '#' comments. Tokens like slots=4 are ignored.
func Parse(text string) ([]string, error) {
	var nodes []string
	for _, line := range strings.Split(text, "\n") {
		line = trimComment(line)
		for _, tok := range strings.Fields(line) {
			if strings.Contains(tok, "=") {
				continue
			}
			hs, err := hostlist.Expand(tok)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, hs...)
		}
	}
	return nodes, nil
}

func trimComment(line string) string {
	parts := strings.SplitN(line, "#", 2)
	return parts[0]
}
