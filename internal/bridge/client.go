package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dtnitsch/inbox-digest/models"
	"github.com/dtnitsch/inbox-digest/pkg/summarizer"
)

// Client sends requests to a Server.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Summaries can take as long as the model needs; ctx bounds the wait.
		client: &http.Client{},
	}
}

func (c *Client) Send(ctx context.Context, req models.SummaryRequest) (models.SummaryResponse, bool, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.SummaryResponse{}, false, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+EndPointSummary, bytes.NewReader(body))
	if err != nil {
		return models.SummaryResponse{}, false, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if id := summarizer.CycleID(ctx); id != "" {
		httpReq.Header.Set(HeaderCycleID, id)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return models.SummaryResponse{}, false, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out models.SummaryResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return models.SummaryResponse{}, false, fmt.Errorf("failed to decode response: %w", err)
		}
		return out, true, nil
	case http.StatusNoContent:
		return models.SummaryResponse{}, false, nil
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.SummaryResponse{}, false, fmt.Errorf("bridge returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
}
