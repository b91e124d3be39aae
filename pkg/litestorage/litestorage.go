package litestorage

import (
	"context"
	"math/big"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tonkeeper/tongo"
	"github.com/tonkeeper/tongo/config"
	"github.com/tonkeeper/tongo/liteapi"
	"github.com/tonkeeper/tongo/tlb"
	"go.uber.org/zap"

	"github.com/arnac-io/ordercheck/pkg/core"
	"github.com/arnac-io/ordercheck/pkg/multisig"
)

var storageTimeHistogramVec = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "litestorage_functions_time",
		Help:    "LiteStorage functions execution duration distribution in seconds",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 1, 5, 10},
	},
	[]string{"method"},
)

// LiteStorage reads order contracts directly from lite servers.
type LiteStorage struct {
	logger *zap.Logger
	client *liteapi.Client
}

type Options struct {
	servers []config.LiteServer
	testnet bool
}

type Option func(o *Options)

func WithLiteServers(servers []config.LiteServer) Option {
	return func(o *Options) {
		o.servers = servers
	}
}

// WithTestnet makes the storage fall back to the public testnet config when no servers are given.
func WithTestnet() Option {
	return func(o *Options) {
		o.testnet = true
	}
}

func NewLiteStorage(log *zap.Logger, opts ...Option) (*LiteStorage, error) {
	o := &Options{}
	for i := range opts {
		opts[i](o)
	}
	var err error
	var client *liteapi.Client
	switch {
	case len(o.servers) > 0:
		client, err = liteapi.NewClient(liteapi.WithLiteServers(o.servers))
	case o.testnet:
		log.Warn("USING PUBLIC TESTNET CONFIG! BE CAREFUL!")
		client, err = liteapi.NewClientWithDefaultTestnet()
	default:
		log.Warn("USING PUBLIC CONFIG! BE CAREFUL!")
		client, err = liteapi.NewClientWithDefaultMainnet()
	}
	if err != nil {
		return nil, err
	}
	return &LiteStorage{logger: log, client: client}, nil
}

// GetRawAccount returns low-level information about an account taken directly from the blockchain.
func (s *LiteStorage) GetRawAccount(ctx context.Context, address tongo.AccountID) (*core.Account, error) {
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		storageTimeHistogramVec.WithLabelValues("get_raw_account").Observe(v)
	}))
	defer timer.ObserveDuration()
	var account tlb.ShardAccount
	err := retry.Do(func() error {
		state, err := s.client.GetAccountState(ctx, address)
		if err != nil {
			return err
		}
		account = state
		return nil
	}, retry.Context(ctx), retry.Attempts(10), retry.Delay(10*time.Millisecond))
	if err != nil {
		return nil, err
	}
	return core.ConvertToAccount(address, account)
}

func (s *LiteStorage) RunSmcMethod(ctx context.Context, id tongo.AccountID, method string, stack tlb.VmStack) (uint32, tlb.VmStack, error) {
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		storageTimeHistogramVec.WithLabelValues("run_smc_method").Observe(v)
	}))
	defer timer.ObserveDuration()
	return s.client.RunSmcMethod(ctx, id, method, stack)
}

// GetOrderData runs get_order_data on an order contract.
func (s *LiteStorage) GetOrderData(ctx context.Context, id tongo.AccountID) (*core.GetMethodObservation, error) {
	exitCode, stack, err := s.RunSmcMethod(ctx, id, multisig.GetOrderDataMethod, tlb.VmStack{})
	if err != nil {
		return nil, err
	}
	if exitCode != 0 && exitCode != 1 {
		return nil, errors.Errorf("%s failed with exit code %d", multisig.GetOrderDataMethod, exitCode)
	}
	values, err := convertStack(stack)
	if err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, err.Error())
	}
	return multisig.ParseGetOrderData(values)
}

func convertStack(stack tlb.VmStack) ([]core.StackValue, error) {
	values := make([]core.StackValue, 0, len(stack))
	for i, v := range stack {
		switch v.SumType {
		case "VmStkNull":
			values = append(values, core.StackValue{Type: core.StackNull})
		case "VmStkTinyInt":
			values = append(values, core.StackValue{Type: core.StackNum, Num: big.NewInt(v.VmStkTinyInt)})
		case "VmStkInt":
			n := big.Int(v.VmStkInt)
			values = append(values, core.StackValue{Type: core.StackNum, Num: &n})
		case "VmStkCell":
			cell := v.VmStkCell.Value
			values = append(values, core.StackValue{Type: core.StackCell, Cell: &cell})
		case "VmStkSlice":
			values = append(values, core.StackValue{Type: core.StackSlice, Cell: v.VmStkSlice.Cell()})
		default:
			return nil, errors.Errorf("stack entry %d: unsupported type %s", i, v.SumType)
		}
	}
	return values, nil
}
