package utils

import (
	"fmt"
	"strconv"
	"time"
)

var (
	// -ldflags "-X github.com/lsds/ibpair/srcs/go/utils.buildtimeString=$bt -X github.com/lsds/ibpair/srcs/go/utils.version=$v"
	buildtimeString string
	version         = "dev"

	buildtime int64
)

func init() {
	buildtime, _ = strconv.ParseInt(buildtimeString, 10, 64)
}

func BuildInfo() string {
	if buildtime == 0 {
		return fmt.Sprintf("ibpair %s", version)
	}
	bt := time.Unix(buildtime, 0)
	return fmt.Sprintf("ibpair %s, built %s ago", version, time.Since(bt).Round(time.Second))
}
