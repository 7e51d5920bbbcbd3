package server

import (
	"net"
	"sort"
	"strings"
)

// LocalIPCandidates collects best-effort local addresses so the sender
// can share a reachable URL with receivers on the same LAN. Loopback
// always comes last in usefulness but is always included.
func LocalIPCandidates() []string {
	seen := map[string]bool{}

	// UDP connect trick: no packets are sent, the kernel just picks
	// the outbound interface. TEST-NET-1 does not need to be reachable.
	if conn, err := net.Dial("udp4", "192.0.2.1:80"); err == nil {
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
			seen[addr.IP.String()] = true
		}
		_ = conn.Close()
	}

	// Interface scan catches hosts with several NICs.
	if addrs, err := net.InterfaceAddrs(); err == nil {
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipNet.IP.To4()
			if ip == nil || ip.IsLoopback() {
				continue
			}
			seen[ip.String()] = true
		}
	}

	seen["127.0.0.1"] = true

	out := make([]string, 0, len(seen))
	for ip := range seen {
		out = append(out, ip)
	}
	sort.Slice(out, func(i, j int) bool {
		// Loopback sorts last; the rest lexically.
		li, lj := strings.HasPrefix(out[i], "127."), strings.HasPrefix(out[j], "127.")
		if li != lj {
			return lj
		}
		return out[i] < out[j]
	})
	return out
}
