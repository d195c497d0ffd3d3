package telemetry

import (
	"net/http"
	"net/url"
	"time"

	"codeberg.org/mutker/thermosense/internal/errors"
)

const statsPath = "/system_stats"

type Config struct {
	BaseURL string
	Client  *http.Client

	// OpenTimeout bounds how long a tripped breaker refuses calls.
	OpenTimeout time.Duration
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.BaseURL == "" {
		return errFactory.New(ErrInvalidBaseURL)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errFactory.WithData(ErrInvalidBaseURL, c.BaseURL)
	}

	return nil
}
