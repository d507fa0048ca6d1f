// Package allowlist matches client addresses against a list of IPs and
// CIDRs.
package allowlist

import (
	"fmt"
	"net/netip"
	"strings"
	"sync/atomic"
)

// A List is an immutable set of allowed addresses. The zero List, with no
// entries, allows every address.
type List struct {
	prefixes []netip.Prefix
}

// Parse builds a List from IPs and CIDRs. Blank entries are ignored; an
// entry that is neither an IP nor a CIDR is an error.
func Parse(entries []string) (List, error) {
	var l List
	for _, raw := range entries {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			l.prefixes = append(l.prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return List{}, fmt.Errorf("bad white list entry %q", s)
		}
		addr = addr.Unmap()
		l.prefixes = append(l.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return l, nil
}

// MustParse is like Parse but panics on error.
func MustParse(entries ...string) List {
	l, err := Parse(entries)
	if err != nil {
		panic(err)
	}
	return l
}

// AllowsAll reports whether the list has no entries.
func (l List) AllowsAll() bool { return len(l.prefixes) == 0 }

// Allows reports whether addr is allowed. An IPv4-mapped IPv6 address
// matches its IPv4 entry.
func (l List) Allows(addr netip.Addr) bool {
	if l.AllowsAll() {
		return true
	}
	addr = addr.Unmap()
	for _, p := range l.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// AllowsHost is like Allows for a "host:port" or bare host string, as found
// in http.Request.RemoteAddr. Unparsable hosts are only allowed by an empty
// list.
func (l List) AllowsHost(hostport string) bool {
	if l.AllowsAll() {
		return true
	}
	if ap, err := netip.ParseAddrPort(hostport); err == nil {
		return l.Allows(ap.Addr())
	}
	addr, err := netip.ParseAddr(strings.Trim(hostport, "[]"))
	if err != nil {
		return false
	}
	return l.Allows(addr)
}

func (l List) String() string {
	if l.AllowsAll() {
		return "*"
	}
	parts := make([]string, len(l.prefixes))
	for i, p := range l.prefixes {
		if p.IsSingleIP() {
			parts[i] = p.Addr().String()
		} else {
			parts[i] = p.String()
		}
	}
	return strings.Join(parts, ",")
}

// Atomic holds a List that can be swapped while it is being read.
type Atomic struct {
	p atomic.Pointer[List]
}

func (a *Atomic) Load() List {
	if l := a.p.Load(); l != nil {
		return *l
	}
	return List{}
}

func (a *Atomic) Store(l List) { a.p.Store(&l) }
