package admission

import (
	"net"
	"net/http"
	"strings"
)

var defaultTrustedProxies = []string{"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}

// ProxyResolver extracts the client IP from a request, only honouring
// forwarding headers when the direct peer is a trusted proxy.
type ProxyResolver struct {
	trusted []*net.IPNet
}

func NewProxyResolver(cidrs []string) *ProxyResolver {
	if len(cidrs) == 0 {
		cidrs = defaultTrustedProxies
	}

	p := &ProxyResolver{}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err == nil {
			p.trusted = append(p.trusted, network)
		}
	}
	return p
}

func (p *ProxyResolver) isTrusted(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, network := range p.trusted {
		if network.Contains(parsed) {
			return true
		}
	}
	return false
}

func (p *ProxyResolver) ClientIP(r *http.Request) string {
	directIP, _, _ := net.SplitHostPort(r.RemoteAddr)
	if directIP == "" {
		directIP = r.RemoteAddr
	}

	if p.isTrusted(directIP) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			clientIP := strings.TrimSpace(strings.Split(xff, ",")[0])
			if net.ParseIP(clientIP) != nil {
				return clientIP
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-Ip")); xri != "" {
			if net.ParseIP(xri) != nil {
				return xri
			}
		}
	}

	return directIP
}
