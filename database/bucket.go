package database

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"musicbingo/models"
)

// BucketStore reads and replaces the table at a hosted JSON bucket URL:
// GET returns the mapping (404 when nothing was ever saved), PUT replaces it.
type BucketStore struct {
	url    string
	client *http.Client
}

// NewBucketStore uses client, or a client with a 10s timeout when nil.
func NewBucketStore(url string, client *http.Client) *BucketStore {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &BucketStore{url: url, client: client}
}

func (s *BucketStore) Load(ctx context.Context) (models.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, loadError(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, loadError(err)
	}
	defer resp.Body.Close()

	// 404 はまだ一度も保存されていないだけ
	if resp.StatusCode == http.StatusNotFound {
		return models.Table{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, loadError(fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, loadError(err)
	}
	table, err := decodeTable(body)
	if err != nil {
		return nil, loadError(err)
	}
	return table, nil
}

func (s *BucketStore) Save(ctx context.Context, table models.Table) error {
	body, err := encodeTable(table)
	if err != nil {
		return saveError(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.url, bytes.NewReader(body))
	if err != nil {
		return saveError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return saveError(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return saveError(fmt.Errorf("unexpected status %s", resp.Status))
	}
	return nil
}
