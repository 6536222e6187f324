package topology

import (
	"fmt"
	"math"
	"sort"

	"github.com/lsds/ibpair/srcs/go/log"
	"github.com/pkg/errors"
)

type Strategy int

const (
	Compact Strategy = iota
	Even
)

var strategyNames = map[Strategy]string{
	Compact: `compact`,
	Even:    `even`,
}

func (s Strategy) String() string {
	return strategyNames[s]
}

// Set implements flag.Value
func (s *Strategy) Set(val string) error {
	for k, v := range strategyNames {
		if v == val {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("invalid strategy %q, options are: compact | even", val)
}

// Type implements pflag.Value
func (s *Strategy) Type() string { return "strategy" }

// Split assigns numA nodes to workload A and numB nodes to workload B.
func (t *Topology) Split(s Strategy, nodes []string, numA, numB int) ([]string, []string, error) {
	if numA < 0 || numB < 0 {
		return nil, nil, errors.New("negative node count")
	}
	if numA+numB > len(nodes) {
		return nil, nil, fmt.Errorf("requested nodes (%d) exceeds available nodes (%d)", numA+numB, len(nodes))
	}
	groups, missing := t.GroupBySwitch(nodes)
	if len(missing) > 0 {
		log.Warnf("%d node(s) not found in topology: %q", len(missing), missing)
	}
	var a, b []string
	switch s {
	case Even:
		a, b = SplitEven(groups, numA, numB)
	default:
		a, b = t.SplitCompact(groups, numA, numB)
	}
	if len(a) != numA || len(b) != numB {
		return nil, nil, fmt.Errorf("requested %d nodes for workload A and %d nodes for workload B, but got %d and %d nodes respectively",
			numA, numB, len(a), len(b))
	}
	return a, b, nil
}

func splitSingleSwitch(groups map[string][]string, numA, numB int) ([]string, []string) {
	var all []string
	for _, sw := range Switches(groups) {
		all = append(all, sorted(groups[sw])...)
	}
	a := all[:min(numA, len(all))]
	rest := all[len(a):]
	return a, rest[:min(numB, len(rest))]
}

// SplitEven walks the switches in name order and divides each switch's nodes
// between A and B in proportion to what each workload still needs.
func SplitEven(groups map[string][]string, numA, numB int) ([]string, []string) {
	if len(groups) == 1 {
		return splitSingleSwitch(groups, numA, numB)
	}
	var a, b []string
	var totalA, totalB int
	allocated := make(map[string]bool)
	for _, sw := range Switches(groups) {
		if totalA >= numA && totalB >= numB {
			break
		}
		nodes := sorted(groups[sw])
		n := len(nodes)
		leftA := max(0, numA-totalA)
		leftB := max(0, numB-totalB)
		var countA, countB int
		if n <= leftA+leftB {
			switch {
			case leftA == 0:
				countB = min(n, leftB)
			case leftB == 0:
				countA = min(n, leftA)
			default:
				countA = proportion(n, leftA, leftB)
				countA = min(countA, leftA)
				countB = min(n-countA, leftB)
			}
		} else {
			switch {
			case numA == 0:
				countB = min(n, leftB)
			case numB == 0:
				countA = min(n, leftA)
			default:
				countA = proportion(n, numA, numB)
				countA = min(countA, leftA)
				countB = min(n-countA, leftB)
			}
		}
		a = append(a, nodes[:countA]...)
		b = append(b, nodes[countA:countA+countB]...)
		for _, node := range nodes[:countA+countB] {
			allocated[node] = true
		}
		totalA += countA
		totalB += countB
	}
	return a, fillFrom(groups, allocated, b, numB)
}

// proportion rounds half to even.
func proportion(n, x, y int) int {
	return int(math.RoundToEven(float64(n) * float64(x) / float64(x+y)))
}

// SplitCompact puts one node of the largest switch into A, fills B from the
// same switch, then fills A from the switches closest to it.
func (t *Topology) SplitCompact(groups map[string][]string, numA, numB int) ([]string, []string) {
	if len(groups) == 1 {
		return splitSingleSwitch(groups, numA, numB)
	}
	var largest string
	var most int
	for _, sw := range Switches(groups) {
		if n := len(groups[sw]); n > most {
			most = n
			largest = sw
		}
	}
	if most == 0 {
		log.Infof("unable to find the largest switch, returning empty workloads")
		return nil, nil
	}
	nodes := sorted(groups[largest])
	log.Infof("largest switch: %s, node count: %d", largest, len(nodes))

	var a, b []string
	if numA > 0 {
		a = append(a, nodes[0])
		nodes = nodes[1:]
	}
	takeB := min(numB, len(nodes))
	b = append(b, nodes[:takeB]...)
	nodes = nodes[takeB:]

	var others []string
	for _, sw := range Switches(groups) {
		if sw != largest {
			others = append(others, sw)
		}
	}
	sort.SliceStable(others, func(i, j int) bool {
		return t.Distance(largest, others[i]) < t.Distance(largest, others[j])
	})
	needed := numA - len(a)
	for _, sw := range others {
		if needed <= 0 {
			break
		}
		swNodes := sorted(groups[sw])
		take := min(needed, len(swNodes))
		a = append(a, swNodes[:take]...)
		needed -= take
	}
	if needed > 0 {
		a = append(a, nodes[:min(needed, len(nodes))]...)
	}

	allocated := make(map[string]bool)
	for _, n := range a {
		allocated[n] = true
	}
	for _, n := range b {
		allocated[n] = true
	}
	return a, fillFrom(groups, allocated, b, numB)
}

// fillFrom tops b up to size with unallocated nodes in name order.
func fillFrom(groups map[string][]string, allocated map[string]bool, b []string, size int) []string {
	var rest []string
	for _, sw := range Switches(groups) {
		for _, n := range groups[sw] {
			if !allocated[n] {
				rest = append(rest, n)
			}
		}
	}
	sort.Strings(rest)
	for _, n := range rest {
		if len(b) >= size {
			break
		}
		b = append(b, n)
	}
	return b
}
