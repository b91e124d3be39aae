package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/cespare/xxhash/v2"
	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"
	"go.uber.org/zap"

	"github.com/arnac-io/ordercheck/pkg/core"
	"github.com/arnac-io/ordercheck/pkg/multisig"
)

const maxRequestSize = 64 << 10

type orderChecker interface {
	CheckOrder(ctx context.Context, p multisig.CheckParams) (*core.OrderInfo, error)
}

type Handler struct {
	logger           *zap.Logger
	checker          orderChecker
	orderCode        *boc.Cell
	notActiveRetries uint
	retryDelay       time.Duration
}

type HandlerOptions struct {
	orderCode        *boc.Cell
	notActiveRetries uint
	retryDelay       time.Duration
}

type HandlerOption func(o *HandlerOptions)

// WithOrderCode sets the order code used when a request does not carry one.
func WithOrderCode(code *boc.Cell) HandlerOption {
	return func(o *HandlerOptions) {
		o.orderCode = code
	}
}

func WithNotActiveRetries(n uint, delay time.Duration) HandlerOption {
	return func(o *HandlerOptions) {
		o.notActiveRetries = n
		o.retryDelay = delay
	}
}

func NewHandler(logger *zap.Logger, checker orderChecker, opts ...HandlerOption) *Handler {
	options := &HandlerOptions{retryDelay: 5 * time.Second}
	for _, o := range opts {
		o(options)
	}
	return &Handler{
		logger:           logger,
		checker:          checker,
		orderCode:        options.orderCode,
		notActiveRetries: options.notActiveRetries,
		retryDelay:       options.retryDelay,
	}
}

func (h *Handler) CheckOrder(w http.ResponseWriter, r *http.Request) {
	lang := normalizeLanguage(r.Header.Get("Accept-Language"))
	var req CheckOrderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize)).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	params, err := ConvertCheckParams(req, h.orderCode, lang)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	info, err := CheckWithRetry(r.Context(), h.logger, h.checker, params, h.notActiveRetries, h.retryDelay)
	if err != nil {
		writeError(w, statusCode(err), convertError(err, lang))
		return
	}
	body, err := json.Marshal(ConvertOrderInfo(info))
	if err != nil {
		writeError(w, http.StatusInternalServerError, convertError(err, lang))
		return
	}
	etag := fmt.Sprintf(`"%x"`, xxhash.Sum64(body))
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// CheckWithRetry repeats the check while it fails with ErrNotActive, at most retries times.
func CheckWithRetry(ctx context.Context, logger *zap.Logger, checker orderChecker, params multisig.CheckParams, retries uint, delay time.Duration) (*core.OrderInfo, error) {
	var info *core.OrderInfo
	err := retry.Do(func() error {
		var err error
		info, err = checker.CheckOrder(ctx, params)
		return err
	},
		retry.Context(ctx),
		retry.Attempts(retries+1),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, core.ErrNotActive)
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("order is not active yet", zap.Uint("attempt", n+1), zap.Stringer("order", params.Order))
		}),
	)
	return info, err
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func statusCode(err error) int {
	switch core.ErrorKind(err) {
	case "NotActive", "NotFound":
		return http.StatusNotFound
	case "Internal":
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, errorJSON{Error: err.Error(), Kind: "BadRequest"})
}

func writeError(w http.ResponseWriter, status int, e errorJSON) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&e)
}
