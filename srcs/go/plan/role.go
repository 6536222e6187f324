package plan

import "fmt"

// Role tells whether a process listens for its peer or connects to it.
type Role int

const (
	Client Role = iota
	Server
)

var roleNames = map[Role]string{
	Client: `client`,
	Server: `server`,
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// RoleOf returns Server for odd local ranks and Client for even local ranks.
// Two consecutive local ranks drive the two ends of one device.
func RoleOf(localRank int) Role {
	if localRank&1 == 1 {
		return Server
	}
	return Client
}
