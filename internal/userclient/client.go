// Package userclient is a thin HTTP client for the user service's internal
// endpoints.
package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "probsvc/pkg/errors"
)

const defaultTimeout = 5 * time.Second

// Config holds user service connection settings.
type Config struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client calls the user service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a user service client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("user service base url is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type updateUserInfoRequest struct {
	UserID        string  `json:"_id"`
	ProblemSolved []int64 `json:"problemSolved"`
}

type updateUserInfoResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UpdateSolvedProblems replaces the user's solved-problem list on the user
// service. The payload carries the full list, not a delta.
func (c *Client) UpdateSolvedProblems(ctx context.Context, userID string, problemIDs []int64) error {
	body, err := json.Marshal(updateUserInfoRequest{
		UserID:        userID,
		ProblemSolved: problemIDs,
	})
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.InternalServerError)
	}

	reqURL := c.baseURL + "/api/v1/service/updateuserinfo"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.InternalServerError)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.SolvedEventDeliverFailed, "user service unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return pkgerrors.Newf(pkgerrors.SolvedEventDeliverFailed,
			"user service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var payload updateUserInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.SolvedEventDeliverFailed, "decode user service response: %v", err)
	}
	if !payload.Success {
		return pkgerrors.Newf(pkgerrors.SolvedEventDeliverFailed, "user service rejected update: %s", payload.Message)
	}
	return nil
}
