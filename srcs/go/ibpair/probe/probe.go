// Package probe inspects the local host before and between benchmark runs.
package probe

import (
	"context"
	"fmt"

	"github.com/lsds/ibpair/srcs/go/log"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/net"
	"github.com/shirou/gopsutil/process"
)

var connections = func(ctx context.Context) ([]net.ConnectionStat, error) {
	return net.ConnectionsWithContext(ctx, "tcp")
}

// Listener is a local process listening on a TCP port.
type Listener struct {
	Pid  int32
	Name string
}

func (l Listener) String() string {
	if len(l.Name) == 0 {
		return fmt.Sprintf("pid %d", l.Pid)
	}
	return fmt.Sprintf("%s (pid %d)", l.Name, l.Pid)
}

// PortOwner finds the process listening on port, if any.
func PortOwner(ctx context.Context, port int) (*Listener, error) {
	conns, err := connections(ctx)
	if err != nil {
		return nil, err
	}
	pid, ok := findListener(conns, port)
	if !ok {
		return nil, nil
	}
	l := &Listener{Pid: pid}
	if pid > 0 {
		l.Name, _ = ProcessName(pid)
	}
	return l, nil
}

func ProcessName(pid int32) (string, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return "", err
	}
	return p.Name()
}

func findListener(conns []net.ConnectionStat, port int) (int32, bool) {
	for _, c := range conns {
		if c.Status == "LISTEN" && int(c.Laddr.Port) == port {
			return c.Pid, true
		}
	}
	return 0, false
}

// LogHostInfo logs what the benchmark output should be read against.
func LogHostInfo(ctx context.Context) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		log.Warnf("failed to get host info: %v", err)
		return
	}
	log.Infof("host %s: %s %s, kernel %s, up %ds",
		info.Hostname, info.Platform, info.PlatformVersion, info.KernelVersion, info.Uptime)
}
