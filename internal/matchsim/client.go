package matchsim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/arena/internal/domain/model"
)

// Submission outcomes.
const (
	ResultAccepted  = "accepted"
	ResultDuplicate = "duplicate"
	ResultFailed    = "failed"
)

// ErrUnexpectedStatus is returned for responses outside the replay API contract.
var ErrUnexpectedStatus = errors.New("unexpected status")

type ackResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Client talks to a running replay service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("matchsim.health: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("matchsim.health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("matchsim.health: %w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

// Submit posts tl to /replays and reports whether it was accepted or a
// duplicate.
func (c *Client) Submit(ctx context.Context, tl *model.Timeline) (string, error) {
	const op = "matchsim.submit"
	body, err := json.Marshal(tl)
	if err != nil {
		return ResultFailed, fmt.Errorf("%s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/replays", bytes.NewReader(body))
	if err != nil {
		return ResultFailed, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return ResultFailed, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	var ack ackResponse
	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
			return ResultFailed, fmt.Errorf("%s: decode ack: %w", op, err)
		}
		if ack.Duplicate {
			return ResultDuplicate, nil
		}
		return ResultAccepted, nil
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ResultFailed, fmt.Errorf("%s: %w: %d", op, ErrUnexpectedStatus, resp.StatusCode)
	}
}

// Count returns the number of replays the service lists.
func (c *Client) Count(ctx context.Context) (int, error) {
	const op = "matchsim.count"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/replays", nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, fmt.Errorf("%s: %w: %d", op, ErrUnexpectedStatus, resp.StatusCode)
	}
	var infos []model.TimelineInfo
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return len(infos), nil
}
