package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AlexZinkM/flow-wallet/internal/logger"
	"github.com/AlexZinkM/flow-wallet/internal/model"

	"github.com/go-resty/resty/v2"
)

// BackendConfig configures BackendClient.
type BackendConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// BackendClient talks to the order backend: it opens and commits flow phases
// and stores wallet records.
type BackendClient struct {
	client *resty.Client
	log    *logger.Logger
}

// NewBackendClient validates the base URL and prepares the HTTP client.
func NewBackendClient(cfg BackendConfig, log *logger.Logger) (*BackendClient, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend address: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}

	cli := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if token := strings.TrimSpace(cfg.Token); token != "" {
		cli.SetAuthToken(token)
	}

	return &BackendClient{client: cli, log: log}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

func flowPath(kind model.FlowKind, action string) string {
	return "/api/flows/" + url.PathEscape(string(kind)) + "/" + action
}

// Init opens a flow phase. POST /api/flows/{kind}/init
func (b *BackendClient) Init(ctx context.Context, req model.InitRequest) (*model.InitResult, error) {
	var result model.InitResult

	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post(flowPath(req.Kind, "init"))
	if err != nil {
		return nil, fmt.Errorf("%w: init request: %v", ErrBackendUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	if err = result.Wallet.Validate(); err != nil {
		return nil, fmt.Errorf("%w: init returned an unusable wallet record: %v", ErrBackendFailure, err)
	}
	return &result, nil
}

// Commit records a confirmed on-ledger step. POST /api/flows/{kind}/commit
func (b *BackendClient) Commit(ctx context.Context, req model.CommitRequest) error {
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(flowPath(req.Kind, "commit"))
	if err != nil {
		return fmt.Errorf("%w: commit request: %v", ErrBackendUnavailable, err)
	}
	return mapHTTPError(resp)
}

// RegisterWallet stores a freshly created wallet record. POST /api/wallets
func (b *BackendClient) RegisterWallet(ctx context.Context, record model.WalletRecord) error {
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(record).
		Post("/api/wallets")
	if err != nil {
		return fmt.Errorf("%w: register wallet request: %v", ErrBackendUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return err
	}

	b.log.Info().Str("address", record.PublicKey.String()).Msg("wallet registered with backend")
	return nil
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrBackendUnauthorized, body)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrBackendConflict, body)
	default:
		return fmt.Errorf("%w: http %d: %s", ErrBackendFailure, resp.StatusCode(), body)
	}
}
