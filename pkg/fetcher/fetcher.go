package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dtnitsch/inbox-digest/pkg/storage"
)

// maxBodyBytes bounds a fetched page.
const maxBodyBytes = 16 << 20

type Fetcher struct {
	client  *http.Client
	storage *storage.Storage
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client:  &http.Client{},
		storage: &storage.Storage{},
	}
}

// IsURL reports whether location should be fetched over HTTP rather than read from disk.
func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Load returns the raw HTML at location, a URL or a file path. A URL fragment
// such as "#inbox" is ignored when fetching.
func (f *Fetcher) Load(ctx context.Context, location string) ([]byte, error) {
	if IsURL(location) {
		return f.GetHtmlBytes(ctx, location)
	}
	path, _, _ := strings.Cut(location, "#")
	return f.storage.ReadFile(path)
}

// LoadDocument is Load followed by parsing.
func (f *Fetcher) LoadDocument(ctx context.Context, location string) (*goquery.Document, []byte, error) {
	body, err := f.Load(ctx, location)
	if err != nil {
		return nil, nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, body, nil
}

func (f *Fetcher) GetHtml(ctx context.Context, url string) (*goquery.Document, error) {
	doc, _, err := f.LoadDocument(ctx, url)
	return doc, err
}

func (f *Fetcher) GetHtmlBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch HTML, status code: %d", resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return bodyBytes, nil
}
