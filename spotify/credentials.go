package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultTokenURL = "https://accounts.spotify.com/api/token"
	DefaultAPIURL   = "https://api.spotify.com"

	// 期限切れ直前のトークンは使わない
	tokenSkew = 30 * time.Second
)

var (
	ErrInvalidPlaylistURL = errors.New("not a spotify playlist url")
	ErrCredentials        = errors.New("spotify credentials rejected")
	ErrPlaylistNotFound   = errors.New("playlist not found")
	ErrTrackSource        = errors.New("spotify request failed")
)

// appTokenSource fetches a fresh app token on every call; caching is left
// to the oauth2 reuse wrapper.
type appTokenSource struct {
	ctx context.Context
	cfg *clientcredentials.Config
}

func (s appTokenSource) Token() (*oauth2.Token, error) {
	return s.cfg.Token(s.ctx)
}

// ClientCredentials holds the app token obtained with the client
// credentials grant. Safe for concurrent use.
type ClientCredentials struct {
	fetch appTokenSource

	mu  sync.Mutex
	src oauth2.TokenSource
}

func NewClientCredentials(clientID, clientSecret, tokenURL string, httpClient *http.Client) *ClientCredentials {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	c := &ClientCredentials{
		fetch: appTokenSource{
			ctx: context.WithValue(context.Background(), oauth2.HTTPClient, httpClient),
			cfg: cfg,
		},
	}
	c.src = c.newSource()
	return c
}

func (c *ClientCredentials) newSource() oauth2.TokenSource {
	return oauth2.ReuseTokenSourceWithExpiry(nil, c.fetch, tokenSkew)
}

// Token returns the cached token, requesting a new one when it is missing or about to expire.
func (c *ClientCredentials) Token(ctx context.Context) (*oauth2.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	src := c.src
	c.mu.Unlock()

	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentials, err)
	}
	return tok, nil
}

// Invalidate drops the cached token so the next call to Token fetches a new one.
func (c *ClientCredentials) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.src = c.newSource()
}
