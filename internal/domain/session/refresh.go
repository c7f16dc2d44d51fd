package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rokto/rokto/internal/platform/backend"
	"github.com/rokto/rokto/internal/platform/telemetry"
)

var (
	// ErrUnavailable means the backend could not answer: transport failure,
	// timeout or a 5xx.
	ErrUnavailable = errors.New("refresh endpoint unavailable")
	// ErrRejected means the backend answered without a usable token.
	ErrRejected = errors.New("refresh rejected")
)

// Outcome classifies a refresh attempt.
type Outcome int

const (
	// NoSession: no token stored, no network call made.
	NoSession Outcome = iota
	// Refreshed: a new token was stored.
	Refreshed
	// Reauthenticate: the stored token was deleted; the caller must log in again.
	Reauthenticate
	// Unavailable: the backend could not be reached; the token was kept.
	Unavailable
)

func (o Outcome) String() string {
	switch o {
	case NoSession:
		return "no_session"
	case Refreshed:
		return "refreshed"
	case Reauthenticate:
		return "reauthenticate"
	case Unavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// RefreshResult is returned by Refresh. Payload and Token are set only when
// Outcome is Refreshed.
type RefreshResult struct {
	Outcome Outcome
	Payload json.RawMessage
	Token   string
}

// Backend is the subset of the backend client used for refreshes.
type Backend interface {
	PostJSON(ctx context.Context, path string, body any, bearer string) (*backend.Response, error)
}

// grant is a usable refresh response.
type grant struct {
	payload json.RawMessage
	token   string
}

// Options tune a Refresher.
type Options struct {
	// Revalidate is how long a successful response is reused for the same
	// token. Zero disables caching.
	Revalidate time.Duration
	// StrictLogout deletes the token on any failure, including outages.
	StrictLogout bool
}

type Refresher struct {
	backend Backend
	cache   *responseCache
	strict  bool
	logger  zerolog.Logger
	metrics *telemetry.Metrics
}

// NewRefresher creates a Refresher. metrics may be nil.
func NewRefresher(b Backend, opts Options, logger zerolog.Logger, metrics *telemetry.Metrics) *Refresher {
	return &Refresher{
		backend: b,
		cache:   newResponseCache(opts.Revalidate),
		strict:  opts.StrictLogout,
		logger:  logger.With().Str("component", "session").Logger(),
		metrics: metrics,
	}
}

// Refresh exchanges the token in store for a new one.
func (r *Refresher) Refresh(ctx context.Context, store TokenStore) RefreshResult {
	res := r.refresh(ctx, store)
	r.metrics.Refresh(res.Outcome.String())
	return res
}

func (r *Refresher) refresh(ctx context.Context, store TokenStore) RefreshResult {
	token, ok := store.Token()
	if !ok {
		return RefreshResult{Outcome: NoSession}
	}

	// The shared call must not die with whichever caller started it; the
	// backend client applies its own deadline.
	detached := context.WithoutCancel(ctx)
	g, err := r.cache.do(token, TagRefreshToken, func() (grant, error) {
		return r.fetch(detached, token)
	})
	if err != nil {
		if errors.Is(err, ErrUnavailable) && !r.strict {
			r.logger.Warn().Err(err).Msg("session refresh unavailable, keeping token")
			return RefreshResult{Outcome: Unavailable}
		}
		r.logger.Info().Err(err).Msg("session refresh failed, token deleted")
		store.Delete()
		return RefreshResult{Outcome: Reauthenticate}
	}

	store.Replace(g.token)
	return RefreshResult{Outcome: Refreshed, Payload: g.payload, Token: g.token}
}

func (r *Refresher) fetch(ctx context.Context, token string) (grant, error) {
	resp, err := r.backend.PostJSON(ctx, backend.PathRefreshToken, map[string]string{"token": token}, token)
	if err != nil {
		return grant{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if resp.ServerError() {
		return grant{}, fmt.Errorf("%w: backend status %d", ErrUnavailable, resp.StatusCode)
	}
	if !resp.OK() {
		return grant{}, fmt.Errorf("%w: backend status %d", ErrRejected, resp.StatusCode)
	}
	next, err := refreshToken(resp.Body)
	if err != nil {
		return grant{}, err
	}
	return grant{payload: json.RawMessage(resp.Body), token: next}, nil
}

// refreshToken reads refreshToken from the top level of body or from under
// data.
func refreshToken(body []byte) (string, error) {
	var doc struct {
		RefreshToken string `json:"refreshToken"`
		Data         *struct {
			RefreshToken string `json:"refreshToken"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrRejected, err)
	}
	if doc.RefreshToken != "" {
		return doc.RefreshToken, nil
	}
	if doc.Data != nil && doc.Data.RefreshToken != "" {
		return doc.Data.RefreshToken, nil
	}
	return "", fmt.Errorf("%w: no refreshToken in response", ErrRejected)
}

// Invalidate drops every cached refresh response.
func (r *Refresher) Invalidate() int {
	return r.cache.invalidateTag(TagRefreshToken)
}

// Forget drops the cached response for one token.
func (r *Refresher) Forget(token string) {
	r.cache.forget(token)
}
