package httpx

import (
	"net"
	"net/http"
	"time"
)

// Doer abstracts HTTP client operations so callers can swap in fakes
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewClient creates the shared outbound HTTP client
func NewClient() Doer {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}
