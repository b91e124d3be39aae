package toncenter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"

	"github.com/arnac-io/ordercheck/pkg/core"
	"github.com/arnac-io/ordercheck/pkg/multisig"
)

const (
	MainnetURL = "https://toncenter.com/api"
	TestnetURL = "https://testnet.toncenter.com/api"
)

var requestTimeHistogramVec = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "toncenter_requests_time",
		Help:    "Toncenter requests duration distribution in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	},
	[]string{"method"},
)

// Client reads accounts from the toncenter v3 index and runs get-methods through the v2 API.
type Client struct {
	logger     *zap.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client
	attempts   uint
}

type Options struct {
	logger     *zap.Logger
	apiKey     string
	httpClient *http.Client
	attempts   uint
}

type Option func(o *Options)

func WithAPIKey(key string) Option {
	return func(o *Options) {
		o.apiKey = key
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *Options) {
		o.httpClient = c
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

// WithAttempts sets how many times a transient failure is retried.
func WithAttempts(n uint) Option {
	return func(o *Options) {
		o.attempts = n
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	o := &Options{
		logger:     zap.NewNop(),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		attempts:   3,
	}
	for i := range opts {
		opts[i](o)
	}
	if o.apiKey == "" {
		o.logger.Warn("toncenter API key is not set, requests are rate limited", zap.String("url", baseURL))
	}
	return &Client{
		logger:     o.logger,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     o.apiKey,
		httpClient: o.httpClient,
		attempts:   o.attempts,
	}
}

type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("toncenter: status %d: %s", e.code, e.message)
}

type requestError struct {
	err error
}

func (e *requestError) Error() string {
	return "toncenter: build request: " + e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

func isTransient(err error) bool {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return false
	}
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return statusErr.code == http.StatusTooManyRequests || statusErr.code >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) do(ctx context.Context, method string, req func() (*http.Request, error), dest any) error {
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		requestTimeHistogramVec.WithLabelValues(method).Observe(v)
	}))
	defer timer.ObserveDuration()
	return retry.Do(func() error {
		r, err := req()
		if err != nil {
			return &requestError{err: err}
		}
		r.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			r.Header.Set("X-API-Key", c.apiKey)
		}
		resp, err := c.httpClient.Do(r)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			var apiErr struct {
				Error string `json:"error"`
			}
			_ = json.Unmarshal(body, &apiErr)
			return &statusError{code: resp.StatusCode, message: apiErr.Error}
		}
		return json.Unmarshal(body, dest)
	},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying toncenter request", zap.String("method", method), zap.Uint("attempt", n), zap.Error(err))
		}),
	)
}

type accountResponse struct {
	Balance           string  `json:"balance"`
	Code              *string `json:"code"`
	Data              *string `json:"data"`
	LastTransactionLt string  `json:"last_transaction_lt"`
	Status            string  `json:"status"`
}

// GetRawAccount returns the account state from the v3 index.
// A missing account is reported as core.ErrEntityNotFound.
func (c *Client) GetRawAccount(ctx context.Context, id ton.AccountID) (*core.Account, error) {
	var resp accountResponse
	err := c.do(ctx, "account", func() (*http.Request, error) {
		query := url.Values{"address": []string{id.ToRaw()}}
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v3/account?"+query.Encode(), nil)
	}, &resp)
	var statusErr *statusError
	if errors.As(err, &statusErr) && statusErr.code == http.StatusNotFound {
		return nil, errors.Wrap(core.ErrEntityNotFound, statusErr.message)
	}
	if err != nil {
		return nil, err
	}
	return convertAccount(id, resp)
}

func convertAccount(id ton.AccountID, resp accountResponse) (*core.Account, error) {
	account := &core.Account{
		AccountAddress: id,
		Status:         convertStatus(resp.Status),
	}
	var err error
	if resp.Balance != "" {
		if account.TonBalance, err = strconv.ParseInt(resp.Balance, 10, 64); err != nil {
			return nil, errors.Wrap(err, "balance")
		}
	}
	if resp.LastTransactionLt != "" {
		if account.LastTransactionLt, err = strconv.ParseUint(resp.LastTransactionLt, 10, 64); err != nil {
			return nil, errors.Wrap(err, "last transaction lt")
		}
	}
	if resp.Code != nil {
		if account.Code, err = base64.StdEncoding.DecodeString(*resp.Code); err != nil {
			return nil, errors.Wrap(err, "code")
		}
	}
	if resp.Data != nil {
		if account.Data, err = base64.StdEncoding.DecodeString(*resp.Data); err != nil {
			return nil, errors.Wrap(err, "data")
		}
	}
	return account, nil
}

func convertStatus(status string) tlb.AccountStatus {
	switch status {
	case "active":
		return tlb.AccountActive
	case "uninit":
		return tlb.AccountUninit
	case "frozen":
		return tlb.AccountFrozen
	}
	return tlb.AccountNone
}

type runGetMethodRequest struct {
	Address string     `json:"address"`
	Method  string     `json:"method"`
	Stack   [][]string `json:"stack"`
}

type runGetMethodResponse struct {
	Ok     bool   `json:"ok"`
	Error  string `json:"error"`
	Result struct {
		ExitCode int               `json:"exit_code"`
		Stack    []json.RawMessage `json:"stack"`
	} `json:"result"`
}

// RunGetMethod runs a get-method without arguments through the v2 API.
func (c *Client) RunGetMethod(ctx context.Context, id ton.AccountID, method string) ([]core.StackValue, error) {
	payload, err := json.Marshal(runGetMethodRequest{Address: id.ToRaw(), Method: method, Stack: [][]string{}})
	if err != nil {
		return nil, err
	}
	var resp runGetMethodResponse
	err = c.do(ctx, "runGetMethod", func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/runGetMethod", bytes.NewReader(payload))
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Ok {
		return nil, errors.Errorf("toncenter: %s", resp.Error)
	}
	if resp.Result.ExitCode != 0 && resp.Result.ExitCode != 1 {
		return nil, errors.Errorf("%s failed with exit code %d", method, resp.Result.ExitCode)
	}
	stack := make([]core.StackValue, 0, len(resp.Result.Stack))
	for i, raw := range resp.Result.Stack {
		value, err := parseStackEntry(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "stack entry %d", i)
		}
		stack = append(stack, value)
	}
	return stack, nil
}

// GetOrderData runs get_order_data on an order contract.
func (c *Client) GetOrderData(ctx context.Context, id ton.AccountID) (*core.GetMethodObservation, error) {
	stack, err := c.RunGetMethod(ctx, id, multisig.GetOrderDataMethod)
	if err != nil {
		return nil, err
	}
	return multisig.ParseGetOrderData(stack)
}
