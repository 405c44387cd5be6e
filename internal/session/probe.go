package session

import "net"

// DefaultOnlineProbe reports whether any non-loopback interface is up with
// an address assigned. It is a cheap local check, not a reachability test:
// the broker may still be away, but at least a dial has somewhere to go.
//
// The interface table lookup never touches the network, so calling this
// every loop iteration is fine.
func DefaultOnlineProbe() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		// Can't tell; let the dial find out.
		return true
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil || len(addrs) == 0 {
			continue
		}
		return true
	}
	return false
}
