package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "probsvc/pkg/errors"
	"probsvc/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultPollInterval    = time.Second
	defaultMaxPollAttempts = 60
	defaultHTTPTimeout     = 15 * time.Second
)

// Judge is the remote code-execution interface consumed by the submission
// and problem services. Implemented by Client; faked in tests.
type Judge interface {
	// SubmitBatch dispatches all cases in one call and returns one opaque
	// token per case in input order.
	SubmitBatch(ctx context.Context, cases []CaseSubmission) ([]string, error)

	// PollBatch fetches results for the tokens until every case is terminal,
	// returning results in token order.
	PollBatch(ctx context.Context, tokens []string) ([]CaseResult, error)
}

// Config holds the judge endpoint settings. Endpoint and APIKey are
// mandatory: the platform never sends unauthenticated judge requests.
type Config struct {
	Endpoint string        `yaml:"endpoint"` // e.g. https://judge0-ce.p.rapidapi.com
	APIKey   string        `yaml:"apiKey"`
	APIHost  string        `yaml:"apiHost"` // host header required by the API gateway
	Timeout  time.Duration `yaml:"timeout"`

	// PollInterval is the fixed wait between poll rounds.
	PollInterval time.Duration `yaml:"pollInterval"`

	// MaxPollAttempts bounds polling so a hung judge case fails with a
	// timeout instead of blocking the request forever.
	MaxPollAttempts int `yaml:"maxPollAttempts"`
}

// Client talks to a Judge0-compatible batch submission API.
type Client struct {
	endpoint        string
	apiKey          string
	apiHost         string
	pollInterval    time.Duration
	maxPollAttempts int
	httpClient      *http.Client
}

// NewClient creates a judge client. It fails fast when the endpoint or API
// key is missing so a misconfigured deployment is caught at startup.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("judge endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("judge api key is required")
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxPollAttempts == 0 {
		cfg.MaxPollAttempts = defaultMaxPollAttempts
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	apiHost := cfg.APIHost
	if apiHost == "" {
		if u, err := url.Parse(cfg.Endpoint); err == nil {
			apiHost = u.Host
		}
	}
	return &Client{
		endpoint:        strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:          cfg.APIKey,
		apiHost:         apiHost,
		pollInterval:    cfg.PollInterval,
		maxPollAttempts: cfg.MaxPollAttempts,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type batchSubmitRequest struct {
	Submissions []CaseSubmission `json:"submissions"`
}

type batchTokenResponse struct {
	Token string `json:"token"`
}

type batchResultsResponse struct {
	Submissions []CaseResult `json:"submissions"`
}

// SubmitBatch sends every case in a single batch call. Any transport or
// judge-side error aborts the whole batch; nothing is retried because the
// judge may already be executing some of the cases.
func (c *Client) SubmitBatch(ctx context.Context, cases []CaseSubmission) ([]string, error) {
	if len(cases) == 0 {
		return nil, pkgerrors.New(pkgerrors.InvalidParams).WithMessage("no test cases to submit")
	}

	body, err := json.Marshal(batchSubmitRequest{Submissions: cases})
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.InternalServerError)
	}

	reqURL := c.endpoint + "/submissions/batch?base64_encoded=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.InternalServerError)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.JudgeUnavailable, "judge batch submit failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.apiError("batch submit", resp)
	}

	var tokens []batchTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.JudgeUnavailable, "decode batch submit response failed: %v", err)
	}
	if len(tokens) != len(cases) {
		return nil, pkgerrors.Newf(pkgerrors.JudgeUnavailable, "judge returned %d tokens for %d cases", len(tokens), len(cases))
	}

	out := make([]string, len(tokens))
	for i, t := range tokens {
		if t.Token == "" {
			return nil, pkgerrors.Newf(pkgerrors.JudgeUnavailable, "judge returned empty token for case %d", i)
		}
		out[i] = t.Token
	}
	return out, nil
}

// PollBatch repeatedly fetches all tokens until every case has a terminal
// status, then returns the full result set in token order. Polling is
// bounded by MaxPollAttempts and the caller's context deadline; exceeding
// either yields a timeout error rather than looping forever.
func (c *Client) PollBatch(ctx context.Context, tokens []string) ([]CaseResult, error) {
	if len(tokens) == 0 {
		return nil, pkgerrors.New(pkgerrors.InvalidParams).WithMessage("no tokens to poll")
	}

	for attempt := 1; ; attempt++ {
		results, err := c.fetchBatch(ctx, tokens)
		if err != nil {
			return nil, err
		}

		if allTerminal(results) {
			return results, nil
		}
		logger.Debug(ctx, "judge cases still running",
			zap.Int("attempt", attempt),
			zap.Int("cases", len(tokens)),
		)

		if attempt >= c.maxPollAttempts {
			logger.Warn(ctx, "judge polling exhausted",
				zap.Int("attempts", attempt),
				zap.Int("cases", len(tokens)),
			)
			return nil, pkgerrors.Newf(pkgerrors.JudgeTimeout,
				"judge did not finish %d cases after %d polls", len(tokens), attempt)
		}

		select {
		case <-ctx.Done():
			return nil, pkgerrors.Wrapf(ctx.Err(), pkgerrors.JudgeTimeout, "judge polling cancelled: %v", ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) fetchBatch(ctx context.Context, tokens []string) ([]CaseResult, error) {
	query := url.Values{}
	query.Set("tokens", strings.Join(tokens, ","))
	query.Set("base64_encoded", "false")
	query.Set("fields", "*")

	reqURL := c.endpoint + "/submissions/batch?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.InternalServerError)
	}
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.JudgeUnavailable, "judge poll failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.apiError("poll", resp)
	}

	var batch batchResultsResponse
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.JudgeUnavailable, "decode poll response failed: %v", err)
	}
	if len(batch.Submissions) != len(tokens) {
		return nil, pkgerrors.Newf(pkgerrors.JudgeUnavailable,
			"judge returned %d results for %d tokens", len(batch.Submissions), len(tokens))
	}
	return batch.Submissions, nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("x-rapidapi-key", c.apiKey)
	if c.apiHost != "" {
		req.Header.Set("x-rapidapi-host", c.apiHost)
	}
}

func (c *Client) apiError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	message := strings.TrimSpace(string(body))

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			message = payload.Message
		} else if payload.Error != "" {
			message = payload.Error
		}
	}
	if message == "" {
		message = resp.Status
	}
	return pkgerrors.Newf(pkgerrors.JudgeUnavailable, "judge %s returned %d: %s", op, resp.StatusCode, message)
}

func allTerminal(results []CaseResult) bool {
	for _, r := range results {
		if !r.StatusCode().Terminal() {
			return false
		}
	}
	return true
}
