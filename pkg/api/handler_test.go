package api

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"

	"github.com/arnac-io/ordercheck/pkg/core"
	"github.com/arnac-io/ordercheck/pkg/multisig"
)

var (
	orderAddr    = ton.MustParseAccountID("0:1111111111111111111111111111111111111111111111111111111111111111")
	multisigAddr = ton.MustParseAccountID("0:2222222222222222222222222222222222222222222222222222222222222222")
	signerAddr   = ton.MustParseAccountID("0:3333333333333333333333333333333333333333333333333333333333333333")
)

type mockChecker struct {
	errs   []error
	calls  int
	params multisig.CheckParams
}

func (m *mockChecker) CheckOrder(ctx context.Context, p multisig.CheckParams) (*core.OrderInfo, error) {
	m.calls++
	m.params = p
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &core.OrderInfo{
		Address:       core.AddressInfo{Address: orderAddr, Friendly: "order", URL: "https://tonviewer.com/order"},
		TonBalance:    100,
		OrderID:       big.NewInt(5),
		ApprovalsNum:  1,
		ApprovalsMask: big.NewInt(1),
		Threshold:     2,
		Signers:       []core.AddressInfo{{Address: signerAddr, Friendly: "signer"}},
		ExpiresAt:     time.Unix(1735689600, 0),
		Actions:       []string{"<div>send</div>"},
		DecodedActions: []core.Action{
			{Key: 0, Type: core.ActionSendMessage},
		},
		Risk:             &core.Risk{Ton: 1_500_000_000, Jettons: map[ton.AccountID]big.Int{}},
		StateInitMatches: true,
	}, nil
}

func testCode(t *testing.T) *boc.Cell {
	c := boc.NewCell()
	require.NoError(t, c.WriteUint(1, 8))
	return c
}

func checkRequest() string {
	body, _ := json.Marshal(CheckOrderRequest{
		OrderAddress: orderAddr.ToRaw(),
		Multisig: MultisigRequest{
			Address:   multisigAddr.ToHuman(true, false),
			Threshold: 2,
			Signers:   []string{signerAddr.ToRaw()},
		},
		DeepCheck: true,
	})
	return string(body)
}

func serve(h http.Handler, method, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/v2/multisig/order/check", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CheckOrder(t *testing.T) {
	checker := &mockChecker{}
	handler := NewHandler(zap.NewNop(), checker, WithOrderCode(testCode(t)))
	mux := NewMux(zap.NewNop(), handler)

	rec := serve(mux, http.MethodPost, checkRequest(), map[string]string{"Accept-Language": "ru-RU"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("ETag"))

	var info OrderInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.Equal(t, "5", info.OrderID)
	require.Equal(t, int64(1735689600), info.ExpiresAt)
	require.Equal(t, []Action{{Key: 0, Type: "SendMessage", HTML: "<div>send</div>"}}, info.Actions)
	require.Equal(t, uint64(1_500_000_000), info.Risk.Ton)
	require.Len(t, info.Signers, 1)
	require.Equal(t, signerAddr.ToRaw(), info.Signers[0].Raw)

	require.Equal(t, orderAddr, checker.params.Order)
	require.Equal(t, multisigAddr, checker.params.Multisig.Address)
	require.Equal(t, []ton.AccountID{signerAddr}, checker.params.Multisig.Signers)
	require.True(t, checker.params.DeepCheck)
	require.Equal(t, "ru", checker.params.Lang)

	notModified := serve(mux, http.MethodPost, checkRequest(), map[string]string{"If-None-Match": rec.Header().Get("ETag")})
	require.Equal(t, http.StatusNotModified, notModified.Code)
}

func TestHandler_CheckOrderErrors(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		body    string
		code    *boc.Cell
		errs    []error
		status  int
		kind    string
		fields  []string
		message string
	}{
		{
			name:   "wrong method",
			method: http.MethodGet,
			status: http.StatusMethodNotAllowed,
			kind:   "BadRequest",
		},
		{
			name:   "broken json",
			method: http.MethodPost,
			body:   "{",
			status: http.StatusBadRequest,
			kind:   "BadRequest",
		},
		{
			name:   "missing order code",
			method: http.MethodPost,
			body:   checkRequest(),
			status: http.StatusBadRequest,
			kind:   "BadRequest",
		},
		{
			name:    "code mismatch",
			method:  http.MethodPost,
			body:    checkRequest(),
			code:    testCode(t),
			errs:    []error{errors.Wrap(core.ErrCodeMismatch, "hash")},
			status:  http.StatusUnprocessableEntity,
			kind:    "CodeMismatch",
			message: "The order contract code does NOT match the order code template",
		},
		{
			name:   "cross source mismatch",
			method: http.MethodPost,
			body:   checkRequest(),
			code:   testCode(t),
			errs:   []error{&multisig.CrossSourceError{Fields: []string{"threshold"}}},
			status: http.StatusUnprocessableEntity,
			kind:   "CrossSourceMismatch",
			fields: []string{"threshold"},
		},
		{
			name:   "not active after retries",
			method: http.MethodPost,
			body:   checkRequest(),
			code:   testCode(t),
			errs:   []error{core.ErrNotActive, core.ErrNotActive, core.ErrNotActive},
			status: http.StatusNotFound,
			kind:   "NotActive",
		},
		{
			name:   "source failure",
			method: http.MethodPost,
			body:   checkRequest(),
			code:   testCode(t),
			errs:   []error{errors.New("connection refused")},
			status: http.StatusBadGateway,
			kind:   "Internal",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &mockChecker{errs: tt.errs}
			handler := NewHandler(zap.NewNop(), checker, WithOrderCode(tt.code), WithNotActiveRetries(2, time.Millisecond))
			rec := serve(NewMux(zap.NewNop(), handler), tt.method, tt.body, nil)
			require.Equal(t, tt.status, rec.Code)

			var e errorJSON
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
			require.Equal(t, tt.kind, e.Kind)
			require.Equal(t, tt.fields, e.Fields)
			if tt.message != "" {
				require.Equal(t, tt.message, e.Error)
			}
		})
	}
}

func TestHandler_NotActiveRetry(t *testing.T) {
	checker := &mockChecker{errs: []error{core.ErrNotActive, nil}}
	handler := NewHandler(zap.NewNop(), checker, WithOrderCode(testCode(t)), WithNotActiveRetries(3, time.Millisecond))
	rec := serve(NewMux(zap.NewNop(), handler), http.MethodPost, checkRequest(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, checker.calls)
}

func TestRateLimit(t *testing.T) {
	handler := NewHandler(zap.NewNop(), &mockChecker{}, WithOrderCode(testCode(t)))
	mux := NewMux(zap.NewNop(), handler, WithHttpMiddleware(RateLimit(2)))

	var limited bool
	for i := 0; i < 10; i++ {
		if serve(mux, http.MethodPost, checkRequest(), nil).Code == http.StatusTooManyRequests {
			limited = true
		}
	}
	require.True(t, limited)
}

func TestNormalizeLanguage(t *testing.T) {
	require.Equal(t, "ru", normalizeLanguage("ru-RU,ru;q=0.9"))
	require.Equal(t, "en", normalizeLanguage("de"))
	require.Equal(t, "en", normalizeLanguage(""))
}

func TestHandler_Openapi(t *testing.T) {
	mux := NewMux(zap.NewNop(), NewHandler(zap.NewNop(), &mockChecker{}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v2/openapi.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Contains(t, doc["paths"], "/v2/multisig/order/check")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v2/openapi.yml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "operationId: checkOrder")
}
