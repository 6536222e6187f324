package plan

import (
	"fmt"

	"github.com/pkg/errors"
)

// Input is everything the resolver needs, typically built from scheduler
// variables by the env package.
type Input struct {
	LocalRank int
	NodeIndex int
	Nodes     []string
	Devices   DeviceList
	BasePort  int
}

// Assignment is what one process does for the whole of its life.
type Assignment struct {
	LocalRank   int
	Role        Role
	DeviceIndex int
	Device      string
	Port        int
	NodeIndex   int
	PeerIndex   int
	Self        string
	Peer        string
	NumNodes    int
}

var (
	errNegativeRank  = errors.New("negative local rank")
	errEmptyNodeList = errors.New("empty node list")
)

// Resolve derives the role, device, port and peer of a process.
func Resolve(in Input) (*Assignment, error) {
	if in.LocalRank < 0 {
		return nil, errNegativeRank
	}
	n := len(in.Nodes)
	if n == 0 {
		return nil, errEmptyNodeList
	}
	if in.NodeIndex < 0 || in.NodeIndex >= n {
		return nil, errors.Errorf("node index %d out of range [0, %d)", in.NodeIndex, n)
	}
	devIdx := DeviceIndexOf(in.LocalRank)
	dev, err := in.Devices.Lookup(devIdx)
	if err != nil {
		return nil, errors.Wrapf(err, "local rank %d", in.LocalRank)
	}
	if err := CheckPortRange(in.BasePort, len(in.Devices)); err != nil {
		return nil, err
	}
	peerIdx := PeerIndexOf(in.NodeIndex, n)
	return &Assignment{
		LocalRank:   in.LocalRank,
		Role:        RoleOf(in.LocalRank),
		DeviceIndex: devIdx,
		Device:      dev,
		Port:        PortOf(in.BasePort, devIdx),
		NodeIndex:   in.NodeIndex,
		PeerIndex:   peerIdx,
		Self:        in.Nodes[in.NodeIndex],
		Peer:        in.Nodes[peerIdx],
		NumNodes:    n,
	}, nil
}

// IsSymmetric is false when the peer will be paired with a third node.
func (a Assignment) IsSymmetric() bool {
	return IsSymmetricPair(a.NodeIndex, a.NumNodes)
}

// IsLoopback is true when a node is paired with itself, i.e. a single node job.
func (a Assignment) IsLoopback() bool {
	return a.NodeIndex == a.PeerIndex
}

// Tag is a short name for logs and log files.
func (a Assignment) Tag() string {
	return fmt.Sprintf("%s/lr%d", a.Self, a.LocalRank)
}

func (a Assignment) String() string {
	return fmt.Sprintf("%s %s dev=%s(#%d) port=%d peer=%s(#%d of %d)",
		a.Tag(), a.Role, a.Device, a.DeviceIndex, a.Port, a.Peer, a.PeerIndex, a.NumNodes)
}
