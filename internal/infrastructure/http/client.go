package http

import (
	"net/http"
	"time"
)

const (
	DefaultClientTimeout   = 60 * time.Second
	DefaultMaxConnsPerHost = 50
)

// PoolSettings sizes the connection pool of an outbound client.
type PoolSettings struct {
	Timeout         time.Duration
	MaxConnsPerHost int
}

func (p PoolSettings) withDefaults() PoolSettings {
	if p.Timeout <= 0 {
		p.Timeout = DefaultClientTimeout
	}
	if p.MaxConnsPerHost <= 0 {
		p.MaxConnsPerHost = DefaultMaxConnsPerHost
	}
	return p
}

// NewPooledClient returns a client with its own transport that never follows
// redirects. A redirected POST would be replayed without its body.
func NewPooledClient(settings PoolSettings) *http.Client {
	settings = settings.withDefaults()
	return &http.Client{
		Timeout: settings.Timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          2 * settings.MaxConnsPerHost,
			MaxIdleConnsPerHost:   settings.MaxConnsPerHost,
			MaxConnsPerHost:       settings.MaxConnsPerHost,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: settings.Timeout,
			ExpectContinueTimeout: time.Second,
		},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
