// Package httpclient builds the tuned HTTP client used by vendor fetchers.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// New creates an HTTP client for paginated API fetching. Redirects are
// not followed: the GitHub API signals moved repositories with redirects
// and following them silently would fetch the wrong resource.
func New(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		DialContext:            dialer.DialContext,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		IdleConnTimeout:        60 * time.Second,
		MaxIdleConns:           20,
		MaxIdleConnsPerHost:    5,
		MaxResponseHeaderBytes: 1 << 20, // 1 MiB
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
