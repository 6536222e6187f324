package env

import (
	"fmt"
	"os"
	"strconv"

	"github.com/lsds/ibpair/srcs/go/plan"
	"github.com/lsds/ibpair/srcs/go/plan/hostlist"
	"github.com/pkg/errors"
)

// DefaultBench is looked up in PATH.
const DefaultBench = `ib_write_bw`

// Config is built once at process start and never changes.
type Config struct {
	LocalRank int
	NodeIndex int
	Nodes     []string
	Devices   plan.DeviceList
	BasePort  int
	Bench     string
	// JobID is empty outside of a scheduler job.
	JobID string
}

func (c Config) Input() plan.Input {
	return plan.Input{
		LocalRank: c.LocalRank,
		NodeIndex: c.NodeIndex,
		Nodes:     c.Nodes,
		Devices:   c.Devices,
		BasePort:  c.BasePort,
	}
}

var (
	lookupEnv = os.LookupEnv
	hostname  = os.Hostname
)

// lookupFirst returns the value of the first key that is set.
func lookupFirst(keys ...string) (string, string, bool) {
	for _, k := range keys {
		if val, ok := lookupEnv(k); ok {
			return k, val, true
		}
	}
	return "", "", false
}

func parseIntFrom(keys ...string) (int, error) {
	k, val, ok := lookupFirst(keys...)
	if !ok {
		return 0, fmt.Errorf("none of %q is set", keys)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", k)
	}
	return n, nil
}

// ParseConfigFromEnv reads the scheduler and IBPAIR_* variables, failing on
// anything missing or malformed.
func ParseConfigFromEnv() (*Config, error) {
	localRank, err := parseIntFrom(LocalRankEnvKey, SlurmLocalIDEnvKey)
	if err != nil {
		return nil, err
	}
	if localRank < 0 {
		return nil, fmt.Errorf("negative local rank %d", localRank)
	}
	nodes, err := getNodesFromEnv()
	if err != nil {
		return nil, err
	}
	nodeIndex, err := getNodeIndexFromEnv(nodes)
	if err != nil {
		return nil, err
	}
	devices, err := getDevicesFromEnv()
	if err != nil {
		return nil, err
	}
	basePort, err := getBasePortFromEnv()
	if err != nil {
		return nil, err
	}
	bench := DefaultBench
	if val, ok := lookupEnv(BenchEnvKey); ok && len(val) > 0 {
		bench = val
	}
	_, jobID, _ := lookupFirst(JobIDEnvKey, SlurmJobIDEnvKey)
	return &Config{
		JobID:     jobID,
		LocalRank: localRank,
		NodeIndex: nodeIndex,
		Nodes:     nodes,
		Devices:   devices,
		BasePort:  basePort,
		Bench:     bench,
	}, nil
}

func getNodesFromEnv() ([]string, error) {
	k, val, ok := lookupFirst(NodeListEnvKey, SlurmNodeListEnvKey)
	if !ok {
		return nil, fmt.Errorf("%s not set", SlurmNodeListEnvKey)
	}
	nodes, err := hostlist.Expand(val)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", k)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s is empty", k)
	}
	if _, _, ok := lookupFirst(NumNodesEnvKey, SlurmNumNodesEnvKey); ok {
		n, err := parseIntFrom(NumNodesEnvKey, SlurmNumNodesEnvKey)
		if err != nil {
			return nil, err
		}
		if n != len(nodes) {
			return nil, fmt.Errorf("node count %d doesn't match %d nodes in %s", n, len(nodes), k)
		}
	}
	return nodes, nil
}

func getNodeIndexFromEnv(nodes []string) (int, error) {
	if _, _, ok := lookupFirst(NodeIndexEnvKey, SlurmNodeIDEnvKey); ok {
		idx, err := parseIntFrom(NodeIndexEnvKey, SlurmNodeIDEnvKey)
		if err != nil {
			return 0, err
		}
		if idx < 0 || idx >= len(nodes) {
			return 0, fmt.Errorf("node index %d out of range [0, %d)", idx, len(nodes))
		}
		return idx, nil
	}
	name, err := selfName()
	if err != nil {
		return 0, err
	}
	for i, n := range nodes {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%s not in %q", name, nodes)
}

func selfName() (string, error) {
	if _, val, ok := lookupFirst(NodeNameEnvKey, SlurmNodeNameEnvKey); ok {
		return val, nil
	}
	return hostname()
}

func getDevicesFromEnv() (plan.DeviceList, error) {
	val, ok := lookupEnv(DevicesEnvKey)
	if !ok {
		return plan.DefaultDeviceList, nil
	}
	devices, err := plan.ParseDeviceList(val)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", DevicesEnvKey)
	}
	return devices, nil
}

func getBasePortFromEnv() (int, error) {
	val, ok := lookupEnv(BasePortEnvKey)
	if !ok {
		return plan.DefaultBasePort, nil
	}
	port, err := plan.ParsePort(val)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", BasePortEnvKey)
	}
	return port, nil
}
