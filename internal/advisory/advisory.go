// Package advisory requests a heat-risk advisory for a fused reading.
package advisory

import (
	"context"
	"net/http"
	"strings"
	"time"

	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/fusion"
	"codeberg.org/mutker/thermosense/internal/httpx"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	advisoryPath    = "/advisory"
	requestIDHeader = "X-Request-ID"
)

// AlertLevel is the advisory severity. Values outside the known set are
// kept verbatim; classification treats them as safe.
type AlertLevel string

const (
	AlertSafe    AlertLevel = "safe"
	AlertWarning AlertLevel = "warning"
	AlertDanger  AlertLevel = "danger"
)

// Known reports whether l is one of the defined levels.
func (l AlertLevel) Known() bool {
	switch l {
	case AlertSafe, AlertWarning, AlertDanger:
		return true
	default:
		return false
	}
}

type Result struct {
	AlertLevel            AlertLevel `json:"alert_level"`
	NarrativeTip          string     `json:"natural_language_tip"`
	OptionalAction        *string    `json:"optional_action"`
	PredictedHealthImpact float64    `json:"predicted_health_impact"`
	ResolvedAt            time.Time  `json:"resolved_at"`
}

// Fetcher produces advisories.
type Fetcher interface {
	FetchAdvisory(ctx context.Context, r fusion.Reading) (Result, error)
}

type Client struct {
	client   *httpx.Client
	url      string
	validate *validator.Validate
	newID    func() string
	now      func() time.Time
}

func NewClient(baseURL string, client *http.Client, opts ...httpx.Option) *Client {
	return &Client{
		client:   httpx.New("advisory", client, opts...),
		url:      strings.TrimRight(baseURL, "/") + advisoryPath,
		validate: validator.New(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

type wireResult struct {
	AlertLevel            *string  `json:"alert_level"`
	NarrativeTip          string   `json:"natural_language_tip"`
	OptionalAction        *string  `json:"optional_action"`
	PredictedHealthImpact *float64 `json:"predicted_health_impact"`
}

// FetchAdvisory validates r and posts it. Invalid readings are rejected
// without a request.
func (c *Client) FetchAdvisory(ctx context.Context, r fusion.Reading) (Result, error) {
	errFactory := errors.New()

	if err := c.validate.Struct(r); err != nil {
		return Result{}, errFactory.Wrap(errors.ErrInvalidArgument, errFactory.Wrap(ErrInvalidReading, err))
	}

	header := http.Header{}
	header.Set(requestIDHeader, c.newID())

	var wire wireResult
	if err := c.client.PostJSON(ctx, c.url, r, header, &wire); err != nil {
		return Result{}, err
	}

	if wire.AlertLevel == nil || wire.PredictedHealthImpact == nil {
		return Result{}, errFactory.WithMessage(errors.ErrMalformedResponse, "advisory response missing alert_level or predicted_health_impact")
	}

	res := Result{
		AlertLevel:            AlertLevel(strings.ToLower(strings.TrimSpace(*wire.AlertLevel))),
		NarrativeTip:          wire.NarrativeTip,
		PredictedHealthImpact: *wire.PredictedHealthImpact,
		ResolvedAt:            c.now(),
	}
	if wire.OptionalAction != nil && strings.TrimSpace(*wire.OptionalAction) != "" {
		res.OptionalAction = wire.OptionalAction
	}

	return res, nil
}
