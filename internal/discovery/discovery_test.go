package discovery

import (
	"errors"
	"net"
	"testing"

	"github.com/desertthunder/ambiencectl/internal/shared"
	"github.com/grandcat/zeroconf"
)

func entry(instance string, port int, v4, v6 []net.IP, txt ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, ServiceType, Domain)
	e.Port = port
	e.AddrIPv4 = v4
	e.AddrIPv6 = v6
	e.Text = txt
	return e
}

func TestFromEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   *zeroconf.ServiceEntry
		ok      bool
		ws      string
		auth    string
		authURL string
	}{
		{
			name:    "ipv4 with paths",
			entry:   entry("den", 8090, []net.IP{net.ParseIP("192.168.1.5")}, nil, "ws=/socket", "auth=/auth_check"),
			ok:      true,
			ws:      "ws://192.168.1.5:8090/socket",
			auth:    "/auth_check",
			authURL: "http://192.168.1.5:8090",
		},
		{
			name:  "ipv6 fallback with default path",
			entry: entry("den", 8090, nil, []net.IP{net.ParseIP("fe80::1")}, "junk", "ws="),
			ok:    true,
			ws:    "ws://[fe80::1]:8090/ws",
		},
		{
			name:  "no address",
			entry: entry("den", 8090, nil, nil),
		},
		{
			name:  "no port",
			entry: entry("den", 0, []net.IP{net.ParseIP("10.0.0.1")}, nil),
		},
		{
			name: "nil entry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := FromEntry(tt.entry)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if !ok {
				return
			}
			if b.WSURL() != tt.ws {
				t.Errorf("expected %s, got %s", tt.ws, b.WSURL())
			}
			if b.AuthPath != tt.auth || b.AuthURL() != tt.authURL {
				t.Errorf("unexpected auth %q / %q", b.AuthPath, b.AuthURL())
			}
		})
	}
}

func TestTXT(t *testing.T) {
	if got := TXT("/ws", ""); len(got) != 1 || got[0] != "ws=/ws" {
		t.Errorf("unexpected TXT %v", got)
	}
	if got := TXT("/ws", "/auth_check"); len(got) != 2 || got[1] != "auth=/auth_check" {
		t.Errorf("unexpected TXT %v", got)
	}
}

func TestSorted(t *testing.T) {
	got := sorted(map[string]Backend{"b": {Instance: "b"}, "a": {Instance: "a"}})
	if len(got) != 2 || got[0].Instance != "a" {
		t.Errorf("expected sorted backends, got %v", got)
	}
}

func TestAdvertiseValidation(t *testing.T) {
	if _, err := Advertise("", 8090, "/ws", ""); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty instance, got %v", err)
	}
	if _, err := Advertise("den", 0, "/ws", ""); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero port, got %v", err)
	}

	var a *Announcement
	a.Shutdown()
}
