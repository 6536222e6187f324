package plan

import (
	"strings"

	"github.com/pkg/errors"
)

// DeviceIndexOf drops the role bit from the local rank.
func DeviceIndexOf(localRank int) int {
	return localRank >> 1
}

// DeviceList is the ordered list of HCA names on every node.
type DeviceList []string

var DefaultDeviceList = DeviceList{
	`mlx5_0`, `mlx5_1`, `mlx5_2`, `mlx5_3`,
	`mlx5_4`, `mlx5_5`, `mlx5_6`, `mlx5_7`,
}

var (
	errEmptyDeviceList  = errors.New("empty device list")
	errDeviceOutOfRange = errors.New("device index out of range")
)

func ParseDeviceList(val string) (DeviceList, error) {
	var dl DeviceList
	for _, d := range strings.Split(val, ",") {
		d = strings.TrimSpace(d)
		if len(d) == 0 {
			continue
		}
		dl = append(dl, d)
	}
	if len(dl) == 0 {
		return nil, errEmptyDeviceList
	}
	return dl, nil
}

func (dl DeviceList) String() string {
	return strings.Join(dl, ",")
}

// Set implements flag.Value
func (dl *DeviceList) Set(val string) error {
	value, err := ParseDeviceList(val)
	if err != nil {
		return err
	}
	*dl = value
	return nil
}

// Type implements pflag.Value
func (dl *DeviceList) Type() string { return "devices" }

// Lookup returns the device driven by the given index.
func (dl DeviceList) Lookup(idx int) (string, error) {
	if idx < 0 || idx >= len(dl) {
		return "", errors.Wrapf(errDeviceOutOfRange, "%d not in [0, %d)", idx, len(dl))
	}
	return dl[idx], nil
}

// Slots is the number of local ranks needed to drive all devices.
func (dl DeviceList) Slots() int {
	return 2 * len(dl)
}
