package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	playlistHost = "open.spotify.com"
	pageLimit    = 100
	maxPages     = 100
)

// ParsePlaylistID extracts the playlist id from a share link such as
// https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=...
func ParsePlaylistID(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPlaylistURL, err)
	}
	if !strings.EqualFold(u.Hostname(), playlistHost) {
		return "", fmt.Errorf("%w: host %q", ErrInvalidPlaylistURL, u.Hostname())
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg != "playlist" {
			// ロケール (/intl-es/) と埋め込み (/embed/) だけ許可
			if !strings.HasPrefix(seg, "intl-") && seg != "embed" {
				break
			}
			continue
		}
		if i+1 < len(segments) && isPlaylistID(segments[i+1]) {
			return segments[i+1], nil
		}
		break
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidPlaylistURL, raw)
}

func isPlaylistID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

type artist struct {
	Name string `json:"name"`
}

type track struct {
	Name    string   `json:"name"`
	IsLocal bool     `json:"is_local"`
	Artists []artist `json:"artists"`
}

type tracksPage struct {
	Items []struct {
		Track *track `json:"track"`
	} `json:"items"`
	Next string `json:"next"`
}

// Label formats a track the way it is printed on a card.
func (t track) Label() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	if len(names) == 0 {
		return t.Name
	}
	return fmt.Sprintf("%s - %s", t.Name, strings.Join(names, ", "))
}

// Client reads playlists from the Web API with an app token.
type Client struct {
	creds      *ClientCredentials
	apiURL     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(creds *ClientCredentials, apiURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		creds:      creds,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// PlaylistTracks returns every track of the playlist as "title - artist1, artist2",
// in playlist order. Removed and local tracks are skipped.
func (c *Client) PlaylistTracks(ctx context.Context, id string) ([]string, error) {
	next := fmt.Sprintf("%s/v1/playlists/%s/tracks?limit=%d", c.apiURL, url.PathEscape(id), pageLimit)

	var tracks []string
	for pages := 0; next != ""; pages++ {
		if pages == maxPages {
			return nil, fmt.Errorf("%w: playlist has more than %d pages", ErrTrackSource, maxPages)
		}
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Track == nil || item.Track.IsLocal || strings.TrimSpace(item.Track.Name) == "" {
				continue
			}
			tracks = append(tracks, item.Track.Label())
		}
		if page.Next != "" && !c.onAPIHost(page.Next) {
			// トークンを API 以外のホストに送らない
			return nil, fmt.Errorf("%w: next page outside the api: %s", ErrTrackSource, page.Next)
		}
		next = page.Next
	}
	return tracks, nil
}

// onAPIHost reports whether pageURL points at the configured Web API.
func (c *Client) onAPIHost(pageURL string) bool {
	api, err := url.Parse(c.apiURL)
	if err != nil {
		return false
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, api.Scheme) && strings.EqualFold(u.Host, api.Host)
}

// TracksFromURL resolves a share link into track labels.
func (c *Client) TracksFromURL(ctx context.Context, playlistURL string) ([]string, error) {
	id, err := ParsePlaylistID(playlistURL)
	if err != nil {
		return nil, err
	}
	tracks, err := c.PlaylistTracks(ctx, id)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Playlist fetched", zap.String("playlist", id), zap.Int("tracks", len(tracks)))
	return tracks, nil
}

// fetchPage GETs one page. A rejected token is refreshed and the request retried once.
func (c *Client) fetchPage(ctx context.Context, pageURL string) (*tracksPage, error) {
	for attempt := 0; ; attempt++ {
		token, err := c.creds.Token(ctx)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTrackSource, err)
		}
		token.SetAuthHeader(req)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTrackSource, err)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized && attempt == 0:
			resp.Body.Close()
			c.logger.Debug("Spotify token rejected, refreshing")
			c.creds.Invalidate()
			continue
		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: token rejected twice", ErrCredentials)
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, ErrPlaylistNotFound
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: status %d", ErrTrackSource, resp.StatusCode)
		}

		var page tracksPage
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: decode page: %v", ErrTrackSource, err)
		}
		return &page, nil
	}
}
