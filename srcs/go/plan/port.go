package plan

import (
	"strconv"

	"github.com/pkg/errors"
)

// DefaultBasePort is the default port of the perftest tools.
const DefaultBasePort = 18515

const maxPort = 65535

// PortOf gives each device of a node its own port.
func PortOf(basePort, deviceIndex int) int {
	return basePort + deviceIndex
}

// CheckPortRange makes sure every device gets a valid port.
func CheckPortRange(basePort int, devices int) error {
	if basePort <= 0 {
		return errors.Errorf("invalid base port %d", basePort)
	}
	if last := PortOf(basePort, devices-1); last > maxPort {
		return errors.Errorf("base port %d leaves no room for %d devices", basePort, devices)
	}
	return nil
}

func ParsePort(val string) (int, error) {
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, err
	}
	if n <= 0 || n > maxPort {
		return 0, errors.Errorf("port %d out of range", n)
	}
	return n, nil
}
