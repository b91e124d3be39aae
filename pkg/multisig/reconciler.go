package multisig

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc/iter"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/arnac-io/ordercheck/pkg/core"
	"github.com/arnac-io/ordercheck/pkg/sentry"
	"github.com/arnac-io/ordercheck/pkg/wallet"
)

type accountSource interface {
	GetRawAccount(ctx context.Context, id ton.AccountID) (*core.Account, error)
}

type getMethodSource interface {
	GetOrderData(ctx context.Context, id ton.AccountID) (*core.GetMethodObservation, error)
}

// network bundles the collaborators of one blockchain network.
type network struct {
	accounts   accountSource
	getMethods getMethodSource
	formatter  addressFormatter
}

// Reconciler verifies deployed orders against their parent multisig.
type Reconciler struct {
	logger  *zap.Logger
	mainnet *network
	testnet *network
	// formatConcurrency bounds concurrent signer formatting.
	formatConcurrency int
}

type Options struct {
	logger            *zap.Logger
	mainnet           *network
	testnet           *network
	formatConcurrency int
}

type Option func(o *Options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

func WithMainnet(accounts accountSource, getMethods getMethodSource, formatter addressFormatter) Option {
	return func(o *Options) {
		o.mainnet = &network{accounts: accounts, getMethods: getMethods, formatter: formatter}
	}
}

func WithTestnet(accounts accountSource, getMethods getMethodSource, formatter addressFormatter) Option {
	return func(o *Options) {
		o.testnet = &network{accounts: accounts, getMethods: getMethods, formatter: formatter}
	}
}

func WithFormatConcurrency(n int) Option {
	return func(o *Options) {
		o.formatConcurrency = n
	}
}

func NewReconciler(opts ...Option) (*Reconciler, error) {
	options := &Options{formatConcurrency: 4}
	for _, o := range opts {
		o(options)
	}
	if options.mainnet == nil && options.testnet == nil {
		return nil, errors.New("at least one network must be configured")
	}
	if options.logger == nil {
		options.logger = zap.NewNop()
	}
	return &Reconciler{
		logger:            options.logger,
		mainnet:           options.mainnet,
		testnet:           options.testnet,
		formatConcurrency: options.formatConcurrency,
	}, nil
}

// CheckParams describes a single order verification.
type CheckParams struct {
	Order     ton.AccountID
	OrderCode *boc.Cell
	Multisig  core.MultisigContext
	Testnet   bool
	DeepCheck bool
	// Lang is an Accept-Language value used to render actions.
	Lang string
}

var tracer = otel.Tracer("github.com/arnac-io/ordercheck/pkg/multisig")

// CheckOrder fetches the order contract, verifies it against the multisig
// and renders its actions. It fails on the first violated invariant and
// never returns a partial result.
func (r *Reconciler) CheckOrder(ctx context.Context, p CheckParams) (info *core.OrderInfo, err error) {
	ctx, span := tracer.Start(ctx, "CheckOrder", trace.WithAttributes(
		attribute.String("order", p.Order.ToRaw()),
		attribute.Bool("testnet", p.Testnet),
		attribute.Bool("deep_check", p.DeepCheck),
	))
	defer span.End()
	timer := prometheus.NewTimer(checkDuration.WithLabelValues(strconv.FormatBool(p.DeepCheck)))
	defer timer.ObserveDuration()
	defer func() {
		kind := "OK"
		if err != nil {
			kind = core.ErrorKind(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, kind)
			r.logger.Info("order check failed",
				zap.Stringer("order", p.Order),
				zap.String("kind", kind),
				zap.Error(err))
		}
		checkResults.WithLabelValues(kind).Inc()
	}()

	net, err := r.network(p.Testnet)
	if err != nil {
		return nil, err
	}
	if p.OrderCode == nil {
		return nil, errors.New("order code template is required")
	}
	r.logger.Debug("checking order", zap.Stringer("order", p.Order), zap.Bool("testnet", p.Testnet))

	obs, err := r.observe(ctx, net, p)
	if err != nil {
		return nil, err
	}
	if err := validate(obs); err != nil {
		return nil, err
	}
	if obs.MultisigAddress != p.Multisig.Address {
		return nil, errors.Wrapf(core.ErrMultisigMismatch, "order multisig %v, expected %v", obs.MultisigAddress.ToRaw(), p.Multisig.Address.ToRaw())
	}
	derived, err := OrderAddress(p.Multisig.Address, obs.OrderSeqno, p.OrderCode)
	if err != nil {
		return nil, err
	}
	if derived != p.Order {
		return nil, errors.Wrapf(core.ErrAddressMismatch, "derived %v", derived.ToRaw())
	}
	if !obs.IsExecuted {
		if p.Multisig.Threshold > obs.Threshold {
			return nil, errors.Wrapf(core.ErrConfigDrift, "multisig threshold %d exceeds order threshold %d", p.Multisig.Threshold, obs.Threshold)
		}
		if !slices.Equal(p.Multisig.Signers, obs.Signers) {
			return nil, errors.Wrap(core.ErrConfigDrift, "signers differ")
		}
	}
	if p.DeepCheck {
		if net.getMethods == nil {
			return nil, errors.New("deep check requires a get-method source")
		}
		getData, err := net.getMethods.GetOrderData(ctx, p.Order)
		if err != nil {
			return nil, errors.Wrap(err, "get_order_data")
		}
		if err := crossCheck(obs, getData); err != nil {
			return nil, err
		}
	}
	// Same derivation from the observed multisig; it can only differ from
	// the check above when the caller context is inconsistent.
	stateInitAddress, err := OrderAddress(obs.MultisigAddress, obs.OrderSeqno, p.OrderCode)
	if err != nil {
		return nil, err
	}

	actions, err := DecodeActions(obs.Order)
	if err != nil {
		if errors.Is(err, core.ErrUnsupportedAction) || errors.Is(err, core.ErrUnknownActionOpcode) {
			sentry.Send("order action rejected", sentry.SentryInfoData{
				"order": p.Order.ToRaw(),
				"error": err.Error(),
			}, sentry.LevelWarning)
		}
		return nil, err
	}
	orderActions.Record(ctx, int64(len(actions)), metric.WithAttributes(attribute.Bool("testnet", p.Testnet)))
	rendered, err := NewRenderer(net.formatter, p.Lang).Render(ctx, actions)
	if err != nil {
		return nil, errors.Wrap(err, "render actions")
	}
	address, err := net.formatter.FormatAddress(ctx, p.Order)
	if err != nil {
		return nil, errors.Wrap(err, "format order address")
	}
	mapper := iter.Mapper[ton.AccountID, core.AddressInfo]{MaxGoroutines: r.formatConcurrency}
	signers, err := mapper.MapErr(obs.Signers, func(id *ton.AccountID) (core.AddressInfo, error) {
		return net.formatter.FormatAddress(ctx, *id)
	})
	if err != nil {
		return nil, errors.Wrap(err, "format signers")
	}
	return &core.OrderInfo{
		Address:          address,
		TonBalance:       obs.TonBalance,
		OrderID:          obs.OrderSeqno,
		IsExecuted:       obs.IsExecuted,
		ApprovalsNum:     obs.ApprovalsNum,
		ApprovalsMask:    obs.ApprovalsMask,
		Threshold:        obs.Threshold,
		Signers:          signers,
		ExpiresAt:        time.Unix(obs.ExpirationDate, 0).UTC(),
		Actions:          rendered,
		DecodedActions:   actions,
		Risk:             wallet.ExtractRisk(actions),
		StateInitMatches: stateInitAddress == p.Order,
	}, nil
}

func (r *Reconciler) network(testnet bool) (*network, error) {
	net := r.mainnet
	if testnet {
		net = r.testnet
	}
	if net == nil {
		return nil, errors.Errorf("network is not configured (testnet=%v)", testnet)
	}
	return net, nil
}

// observe fetches the order account and decodes its storage.
func (r *Reconciler) observe(ctx context.Context, net *network, p CheckParams) (*core.OrderObservation, error) {
	account, err := net.accounts.GetRawAccount(ctx, p.Order)
	if errors.Is(err, core.ErrEntityNotFound) {
		return nil, errors.Wrap(core.ErrNotActive, "account not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "get account")
	}
	if account.Status != tlb.AccountActive {
		return nil, errors.Wrapf(core.ErrNotActive, "account status %v", account.Status)
	}
	code, err := deserializeCell(account.Code)
	if err != nil {
		return nil, errors.Wrap(core.ErrCodeMismatch, err.Error())
	}
	codeHash, err := code.Hash256()
	if err != nil {
		return nil, err
	}
	templateHash, err := p.OrderCode.Hash256()
	if err != nil {
		return nil, err
	}
	if codeHash != templateHash {
		return nil, core.ErrCodeMismatch
	}
	data, err := deserializeCell(account.Data)
	if err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, err.Error())
	}
	obs, err := ParseOrderData(data)
	if err != nil {
		return nil, err
	}
	obs.Address = p.Order
	obs.TonBalance = account.TonBalance
	return obs, nil
}

func validate(obs *core.OrderObservation) error {
	if obs.Threshold <= 0 || obs.Threshold > len(obs.Signers) {
		return errors.Wrapf(core.ErrInvalidThreshold, "threshold %d with %d signers", obs.Threshold, len(obs.Signers))
	}
	if obs.ApprovalsNum > len(obs.Signers) {
		return errors.Wrapf(core.ErrInvalidApprovals, "%d approvals with %d signers", obs.ApprovalsNum, len(obs.Signers))
	}
	if obs.OrderSeqno == nil || obs.OrderSeqno.Sign() < 0 || obs.ApprovalsMask == nil || obs.ApprovalsMask.Sign() < 0 || obs.ExpirationDate < 0 {
		return errors.Wrap(core.ErrMalformedData, "undefined or negative numeric field")
	}
	return nil
}

func deserializeCell(raw []byte) (*boc.Cell, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty boc")
	}
	cells, err := boc.DeserializeBoc(raw)
	if err != nil {
		return nil, err
	}
	if len(cells) != 1 {
		return nil, errors.Errorf("expected one root cell, got %d", len(cells))
	}
	return cells[0], nil
}
