// Package topology reads the switch tree printed by `scontrol show topology`
// and splits an allocation between two workloads by leaf switch.
package topology

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/lsds/ibpair/srcs/go/plan/hostlist"
	"github.com/pkg/errors"
)

// Topology maps nodes to their leaf switch, and leaf switches to parents.
type Topology struct {
	NodeSwitch map[string]string
	Parents    map[string]string
	Children   map[string][]string
}

func New() *Topology {
	return &Topology{
		NodeSwitch: make(map[string]string),
		Parents:    make(map[string]string),
		Children:   make(map[string][]string),
	}
}

// Parse reads lines like
//
//	SwitchName=leaf01 Level=0 LinkSpeed=1 Nodes=node[01-16] Switches=spine01
//	SwitchName=spine01 Level=1 LinkSpeed=1 Switches=leaf[01-04]
//
// Nodes lines without a preceding SwitchName are ignored.
func Parse(r io.Reader) (*Topology, error) {
	t := New()
	var current string
	scanner := bufio.NewScanner(r)
	var lineno int
	for scanner.Scan() {
		lineno++
		kvs := parseLine(scanner.Text())
		if name, ok := kvs[`SwitchName`]; ok {
			level, err := strconv.Atoi(kvs[`Level`])
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: invalid Level", lineno)
			}
			current = name
			if parents, ok := kvs[`Switches`]; ok && level == 0 {
				t.Parents[current] = parents
				for _, p := range strings.Split(parents, ",") {
					t.Children[p] = append(t.Children[p], current)
				}
			}
		}
		if nodes, ok := kvs[`Nodes`]; ok && len(current) > 0 {
			names, err := hostlist.Expand(nodes)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", lineno)
			}
			for _, n := range names {
				t.NodeSwitch[n] = current
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func parseLine(line string) map[string]string {
	kvs := make(map[string]string)
	for _, tok := range strings.Fields(line) {
		parts := strings.SplitN(tok, "=", 2)
		if len(parts) == 2 {
			kvs[parts[0]] = parts[1]
		}
	}
	return kvs
}

// GroupBySwitch groups nodes by leaf switch, nodes not in the topology are
// returned separately.
func (t *Topology) GroupBySwitch(nodes []string) (map[string][]string, []string) {
	groups := make(map[string][]string)
	var missing []string
	for _, n := range nodes {
		if sw, ok := t.NodeSwitch[n]; ok {
			groups[sw] = append(groups[sw], n)
		} else {
			missing = append(missing, n)
		}
	}
	return groups, missing
}

// Distance is 0 for the same switch, 1 for switches sharing their parents,
// and 2 otherwise.
func (t *Topology) Distance(a, b string) int {
	if a == b {
		return 0
	}
	pa, okA := t.Parents[a]
	pb, okB := t.Parents[b]
	if !okA || !okB {
		return 2
	}
	if len(pa) > 0 && pa == pb {
		return 1
	}
	return 2
}

// Switches returns the group keys in order.
func Switches(groups map[string][]string) []string {
	var names []string
	for sw := range groups {
		names = append(names, sw)
	}
	sort.Strings(names)
	return names
}

func sorted(ss []string) []string {
	c := append([]string(nil), ss...)
	sort.Strings(c)
	return c
}
