package remote

import (
	"net"
	"net/url"
	"strings"
)

// DefaultBaseURL is the local development backend.
const DefaultBaseURL = "http://localhost:8000"

// ResolveBaseURL picks the backend base URL. An explicit override wins. A site
// origin on a loopback host maps to the local backend; one on a standard port
// is assumed to sit behind a reverse proxy serving /api; any other port maps
// to the backend port on the same host.
func ResolveBaseURL(override, siteOrigin string) string {
	if o := strings.TrimSpace(override); o != "" {
		return strings.TrimRight(o, "/")
	}
	origin := strings.TrimSpace(siteOrigin)
	if origin == "" {
		return DefaultBaseURL
	}
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return DefaultBaseURL
	}

	host := u.Hostname()
	if isLoopback(host) {
		return DefaultBaseURL
	}
	hostPart := host
	if strings.Contains(host, ":") {
		hostPart = "[" + host + "]"
	}
	switch u.Port() {
	case "", "80", "443":
		return u.Scheme + "://" + hostPart + "/api"
	}
	return u.Scheme + "://" + net.JoinHostPort(host, "8000")
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
