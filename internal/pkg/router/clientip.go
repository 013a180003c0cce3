package router

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/shandysiswandi/loginguard/internal/pkg/config"
)

// forwardedHeaders are consulted in order; the first valid address wins.
// X-Forwarded-For contributes its first (client side) hop.
var forwardedHeaders = []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"}

// trustedProxies parses app.server.trusted_proxies (CIDRs or bare
// addresses). An empty list trusts forwarded headers from any peer.
func trustedProxies(cfg config.Config) []netip.Prefix {
	if cfg == nil {
		return nil
	}

	var out []netip.Prefix
	for _, raw := range cfg.GetArray("app.server.trusted_proxies") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if p, err := netip.ParsePrefix(raw); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(raw); err == nil {
			out = append(out, netip.PrefixFrom(a.Unmap(), a.Unmap().BitLen()))
			continue
		}
		slog.Warn("ignoring malformed trusted proxy", "value", raw)
	}
	return out
}

// middlewareClientIP rewrites RemoteAddr to the bare client address so
// handlers, rate keys and block checks all see the same value.
func middlewareClientIP(trusted []netip.Prefix) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := clientIP(r, trusted); ip != "" {
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := peerAddr(r.RemoteAddr)

	if len(trusted) == 0 || (peer.IsValid() && contains(trusted, peer)) {
		for _, h := range forwardedHeaders {
			v := r.Header.Get(h)
			if h == "X-Forwarded-For" {
				v, _, _ = strings.Cut(v, ",")
			}
			if a, err := netip.ParseAddr(strings.TrimSpace(v)); err == nil {
				return a.Unmap().String()
			}
		}
	}

	if peer.IsValid() {
		return peer.String()
	}
	return ""
}

func peerAddr(remote string) netip.Addr {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	a, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return a.Unmap()
}

func contains(prefixes []netip.Prefix, a netip.Addr) bool {
	for _, p := range prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
