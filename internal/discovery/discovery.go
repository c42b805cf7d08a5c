// Package discovery finds development backends on the local network over mDNS and lets a backend announce itself.
package discovery

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ambiencectl/internal/shared"
	"github.com/grandcat/zeroconf"
)

const (
	ServiceType = "_ambiencectl._tcp"
	Domain      = "local."

	wsPathKey   = "ws"
	authPathKey = "auth"
)

// Backend is one announced backend.
type Backend struct {
	Instance string
	Host     string
	Port     int
	WSPath   string
	AuthPath string
}

// Addr returns host:port.
func (b Backend) Addr() string {
	return net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
}

// WSURL returns the websocket endpoint.
func (b Backend) WSURL() string {
	return "ws://" + b.Addr() + b.WSPath
}

// AuthURL returns the base URL the authentication gate is served from, or "" when the backend has none.
func (b Backend) AuthURL() string {
	if b.AuthPath == "" {
		return ""
	}
	return "http://" + b.Addr()
}

// Announcement is a running mDNS registration.
type Announcement struct {
	server *zeroconf.Server
}

// Shutdown withdraws the announcement.
func (a *Announcement) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}

// Advertise announces a backend listening on port under instance.
func Advertise(instance string, port int, wsPath, authPath string) (*Announcement, error) {
	if instance == "" {
		return nil, fmt.Errorf("%w: empty instance name", shared.ErrInvalidInput)
	}
	if port <= 0 {
		return nil, fmt.Errorf("%w: port %d", shared.ErrInvalidInput, port)
	}

	server, err := zeroconf.Register(instance, ServiceType, Domain, port, TXT(wsPath, authPath), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return &Announcement{server: server}, nil
}

// TXT builds the TXT records describing the endpoint paths.
func TXT(wsPath, authPath string) []string {
	txt := []string{wsPathKey + "=" + wsPath}
	if authPath != "" {
		txt = append(txt, authPathKey+"="+authPath)
	}
	return txt
}

// Browse collects announced backends until timeout elapses or ctx is cancelled.
//
// Results are deduplicated by instance and sorted by instance name.
func Browse(ctx context.Context, timeout time.Duration, logger *log.Logger) ([]Backend, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, ServiceType, Domain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for backends: %w", err)
	}

	found := map[string]Backend{}
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return sorted(found), nil
			}
			b, ok := FromEntry(entry)
			if !ok {
				continue
			}
			if _, exists := found[b.Instance]; !exists && logger != nil {
				logger.Debug("discovered backend", "instance", b.Instance, "addr", b.Addr())
			}
			found[b.Instance] = b
		case <-ctx.Done():
			return sorted(found), nil
		}
	}
}

// FromEntry converts a resolved entry, preferring IPv4. Entries without an address are skipped.
func FromEntry(entry *zeroconf.ServiceEntry) (Backend, bool) {
	if entry == nil || entry.Port <= 0 {
		return Backend{}, false
	}

	var host string
	switch {
	case len(entry.AddrIPv4) > 0:
		host = entry.AddrIPv4[0].String()
	case len(entry.AddrIPv6) > 0:
		host = entry.AddrIPv6[0].String()
	default:
		return Backend{}, false
	}

	b := Backend{Instance: entry.Instance, Host: host, Port: entry.Port, WSPath: "/ws"}
	for _, kv := range entry.Text {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch k {
		case wsPathKey:
			if v != "" {
				b.WSPath = v
			}
		case authPathKey:
			b.AuthPath = v
		}
	}
	return b, true
}

func sorted(found map[string]Backend) []Backend {
	out := make([]Backend, 0, len(found))
	for _, b := range found {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out
}
