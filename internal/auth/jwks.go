package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	// DefaultRefreshInterval is the minimum time between key set re-fetches
	// triggered by an unknown kid.
	DefaultRefreshInterval = time.Minute

	// DefaultFetchTimeout bounds a single key set request.
	DefaultFetchTimeout = 5 * time.Second
)

// RemoteKeySet loads signing keys from a JWKS endpoint. The set is fetched
// when the key set is created and re-fetched when a token names an unknown
// kid, at most once per refresh interval. A failed fetch keeps the previously
// loaded keys.
type RemoteKeySet struct {
	url      string
	client   *http.Client
	interval time.Duration
	timeout  time.Duration

	storage jwkset.Storage
	group   singleflight.Group
}

// KeySetOption configures a RemoteKeySet.
type KeySetOption func(*RemoteKeySet)

// WithHTTPClient sets the client used to fetch the key set.
func WithHTTPClient(c *http.Client) KeySetOption {
	return func(s *RemoteKeySet) {
		s.client = c
	}
}

// WithRefreshInterval sets the minimum interval between refreshes on kid miss.
func WithRefreshInterval(d time.Duration) KeySetOption {
	return func(s *RemoteKeySet) {
		s.interval = d
	}
}

// WithFetchTimeout bounds each key set request, including the wait for the
// refresh limiter.
func WithFetchTimeout(d time.Duration) KeySetOption {
	return func(s *RemoteKeySet) {
		s.timeout = d
	}
}

// NewRemoteKeySet creates a key set backed by the JWKS document at url and
// performs the first fetch. An unreachable endpoint is not an error here;
// the fetch is retried on the first unknown kid.
func NewRemoteKeySet(url string, opts ...KeySetOption) (*RemoteKeySet, error) {
	s := &RemoteKeySet{
		url:      url,
		client:   http.DefaultClient,
		interval: DefaultRefreshInterval,
		timeout:  DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	remote, err := jwkset.NewStorageFromHTTP(url, jwkset.HTTPClientStorageOptions{
		Client:                    s.client,
		HTTPTimeout:               s.timeout,
		NoErrorReturnFirstHTTPReq: true,
		RefreshErrorHandler: func(ctx context.Context, err error) {
			slog.WarnContext(ctx, "signing key set fetch failed", "url", url, "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create key set storage: %w", err)
	}

	s.storage, err = jwkset.NewHTTPClient(jwkset.HTTPClientOptions{
		HTTPURLs:          map[string]jwkset.Storage{url: remote},
		RateLimitWaitMax:  s.timeout,
		RefreshUnknownKID: rate.NewLimiter(rate.Every(s.interval), 1),
	})
	if err != nil {
		return nil, fmt.Errorf("create key set client: %w", err)
	}

	return s, nil
}

// Key returns the RSA signature key for kid. Concurrent lookups of the same
// kid share one refresh, which is not tied to the caller's cancellation.
func (s *RemoteKeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v, err, _ := s.group.Do(kid, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.lookup(ctx, kid)
	})
	if err != nil {
		return nil, err
	}
	return v.(*rsa.PublicKey), nil
}

func (s *RemoteKeySet) lookup(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	jwk, err := s.storage.KeyRead(ctx, kid)
	if err != nil {
		loaded, readErr := s.storage.KeyReadAll(ctx)
		if readErr != nil || len(loaded) == 0 {
			return nil, fmt.Errorf("%w: no keys loaded from %s", ErrKeySetUnavailable, s.url)
		}
		if errors.Is(err, jwkset.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		// Refresh throttled.
		return nil, fmt.Errorf("%w: %v", ErrKeyNotFound, err)
	}

	if use := jwk.Marshal().USE; use != "" && use != jwkset.UseSig {
		return nil, ErrKeyNotFound
	}
	key, ok := jwk.Key().(*rsa.PublicKey)
	if !ok {
		return nil, ErrKeyNotFound
	}
	return key, nil
}

// StaticKeySet is a fixed set of signing keys by kid.
type StaticKeySet map[string]*rsa.PublicKey

// Key returns the public key for kid.
func (s StaticKeySet) Key(_ context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := s[kid]; ok {
		return key, nil
	}
	return nil, ErrKeyNotFound
}
