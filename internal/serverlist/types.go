package serverlist

import (
	"net"
	"strconv"
	"time"
)

// Server describes one game server as advertised to the masterserver.
type Server struct {
	GlestVersion      string
	Platform          string
	BinaryCompileDate string

	Title     string
	IPAddress string

	Tech    string
	Map     string
	Tileset string

	ActiveSlots      int
	NetworkSlots     int
	ConnectedClients int
	ExternalPort     int

	// Country is the two-letter origin code; empty when the line did not carry one.
	Country  string
	LastSeen time.Time
}

// Address returns the host:port clients connect to and identifies the server
// in the recent servers list.
func (s Server) Address() string {
	return net.JoinHostPort(s.IPAddress, strconv.Itoa(s.ExternalPort))
}
