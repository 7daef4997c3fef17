// Package rooms provisions ephemeral video rooms on Daily.
package rooms

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"tutoring-service/internal/logging"
	"tutoring-service/internal/observability"
)

const (
	DefaultBaseURL = "https://api.daily.co/v1"
	DefaultExpiry  = 2 * time.Hour
	DefaultLabel   = "Video Session"

	breakerName = "daily-api"
)

var (
	ErrNotConfigured = errors.New("DAILY_API_KEY not configured")
	ErrNoRoomURL     = errors.New("no room URL returned")
)

// APIError is a non-2xx answer from the provider; Body is passed through verbatim.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Daily API error: %s", e.Body)
}

// Room is a provisioned room. Label is the human-readable class name and is
// not sent to the provider.
type Room struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Label     string    `json:"label"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Provisioner creates video rooms.
type Provisioner interface {
	CreateRoom(ctx context.Context, label string) (Room, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	Expiry     time.Duration
	HTTPClient *http.Client
}

// DailyClient calls the Daily REST API. Each call creates a new room; nothing
// is retried.
type DailyClient struct {
	apiKey  string
	baseURL string
	expiry  time.Duration
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[Room]
	log     zerolog.Logger

	now    func() time.Time
	suffix func() string
}

var _ Provisioner = (*DailyClient)(nil)

type createRoomRequest struct {
	Name       string         `json:"name"`
	Privacy    string         `json:"privacy"`
	Properties roomProperties `json:"properties"`
}

type roomProperties struct {
	Exp               int64 `json:"exp"`
	EnableChat        bool  `json:"enable_chat"`
	EnableScreenshare bool  `json:"enable_screenshare"`
}

type createRoomResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func NewDailyClient(cfg Config) *DailyClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultExpiry
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}

	c := &DailyClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		expiry:  cfg.Expiry,
		http:    cfg.HTTPClient,
		log:     logging.With("rooms"),
		now:     time.Now,
		suffix:  randomSuffix,
	}

	c.cb = gobreaker.NewCircuitBreaker[Room](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A 4xx means the provider is up; only transport errors and 5xx count.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return c
}

// CreateRoom provisions a public room named class-<unix-ms>-<random> that
// expires after the configured expiry with chat and screenshare enabled.
func (c *DailyClient) CreateRoom(ctx context.Context, label string) (Room, error) {
	if c.apiKey == "" {
		observability.IncRoomProvisioned("not_configured")
		return Room{}, ErrNotConfigured
	}
	if strings.TrimSpace(label) == "" {
		label = DefaultLabel
	}

	room, err := c.cb.Execute(func() (Room, error) {
		return c.createRoom(ctx, label)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		observability.IncRoomProvisioned("rejected")
		return Room{}, fmt.Errorf("create room: %w", err)
	case err != nil:
		observability.IncRoomProvisioned("error")
		c.log.Error().Err(err).Str("label", label).Msg("room provisioning failed")
		return Room{}, err
	}

	observability.IncRoomProvisioned("ok")
	c.log.Info().Str("room", room.Name).Str("label", label).Msg("room provisioned")
	return room, nil
}

func (c *DailyClient) createRoom(ctx context.Context, label string) (Room, error) {
	now := c.now()
	expiresAt := now.Add(c.expiry)
	name := fmt.Sprintf("class-%d-%s", now.UnixMilli(), c.suffix())

	body, err := json.Marshal(createRoomRequest{
		Name:    name,
		Privacy: "public",
		Properties: roomProperties{
			Exp:               expiresAt.Unix(),
			EnableChat:        true,
			EnableScreenshare: true,
		},
	})
	if err != nil {
		return Room{}, fmt.Errorf("encode room request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rooms", bytes.NewReader(body))
	if err != nil {
		return Room{}, fmt.Errorf("build room request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Room{}, fmt.Errorf("call Daily API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Room{}, fmt.Errorf("read room response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Room{}, &APIError{Status: resp.StatusCode, Body: string(raw)}
	}

	var created createRoomResponse
	if err := json.Unmarshal(raw, &created); err != nil {
		return Room{}, fmt.Errorf("decode room response: %w", err)
	}
	if created.URL == "" {
		return Room{}, ErrNoRoomURL
	}
	if created.Name == "" {
		created.Name = name
	}

	return Room{Name: created.Name, URL: created.URL, Label: label, ExpiresAt: expiresAt}, nil
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
