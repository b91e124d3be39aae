package multisig

import (
	"context"
	"math/big"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/ordercheck/pkg/core"
)

type mockAccounts map[ton.AccountID]*core.Account

func (m mockAccounts) GetRawAccount(ctx context.Context, id ton.AccountID) (*core.Account, error) {
	account, ok := m[id]
	if !ok {
		return nil, core.ErrEntityNotFound
	}
	return account, nil
}

type mockGetMethods map[ton.AccountID]*core.GetMethodObservation

func (m mockGetMethods) GetOrderData(ctx context.Context, id ton.AccountID) (*core.GetMethodObservation, error) {
	obs, ok := m[id]
	if !ok {
		return nil, errors.New("get method failed")
	}
	return obs, nil
}

type fixture struct {
	code     *boc.Cell
	storage  orderStorage
	address  ton.AccountID
	account  *core.Account
	multisig core.MultisigContext
}

func newFixture(t *testing.T, storage orderStorage) *fixture {
	code := testOrderCode(t)
	address, err := OrderAddress(storage.multisig, storage.seqno, code)
	require.NoError(t, err)
	return &fixture{
		code:    code,
		storage: storage,
		address: address,
		account: &core.Account{
			AccountAddress: address,
			Status:         tlb.AccountActive,
			TonBalance:     98_000_000,
			Code:           mustBoc(t, code),
			Data:           mustBoc(t, storage.cell(t)),
		},
		multisig: core.MultisigContext{
			Address:   multisigAddr,
			Threshold: 2,
			Signers:   []ton.AccountID{signerA, signerB, signerC},
		},
	}
}

func (f *fixture) getMethod(t *testing.T) *core.GetMethodObservation {
	obs, err := ParseGetOrderData(getOrderDataStack(t, f.storage))
	require.NoError(t, err)
	return obs
}

func (f *fixture) reconciler(t *testing.T, getMethods mockGetMethods) *Reconciler {
	r, err := NewReconciler(WithMainnet(mockAccounts{f.address: f.account}, getMethods, fakeFormatter{}))
	require.NoError(t, err)
	return r
}

func (f *fixture) params(deepCheck bool) CheckParams {
	return CheckParams{
		Order:     f.address,
		OrderCode: f.code,
		Multisig:  f.multisig,
		DeepCheck: deepCheck,
		Lang:      "en",
	}
}

func TestReconciler_CheckOrder(t *testing.T) {
	f := newFixture(t, defaultStorage(t))
	r := f.reconciler(t, mockGetMethods{f.address: f.getMethod(t)})

	info, err := r.CheckOrder(context.Background(), f.params(true))
	require.NoError(t, err)
	require.Equal(t, f.address, info.Address.Address)
	require.Equal(t, int64(98_000_000), info.TonBalance)
	require.Equal(t, int64(5), info.OrderID.Int64())
	require.False(t, info.IsExecuted)
	require.Equal(t, 2, info.Threshold)
	require.Equal(t, 1, info.ApprovalsNum)
	require.Equal(t, int64(1), info.ApprovalsMask.Int64())
	require.Equal(t, int64(1_735_689_600), info.ExpiresAt.Unix())
	require.True(t, info.StateInitMatches)
	require.Len(t, info.Signers, 3)
	for i, id := range []ton.AccountID{signerA, signerB, signerC} {
		require.Equal(t, id, info.Signers[i].Address)
	}
	require.Len(t, info.DecodedActions, 1)
	require.Equal(t, []string{
		`<div class="label">Action #0:</div>` +
			`<div>Send 1.5 TON to ` + link(userAddr) + `</div>` +
			`<div>Send TON from the multisig without comment</div>` +
			`<div>Send mode: Pays fees separately, Ignore sending errors.</div>`,
	}, info.Actions)
	require.Equal(t, uint64(1_500_000_000), info.Risk.Ton)
}

func TestReconciler_CheckOrder_Errors(t *testing.T) {
	tests := []struct {
		name      string
		storage   func(s *orderStorage)
		prepare   func(t *testing.T, f *fixture)
		deepCheck bool
		getMethod func(t *testing.T, f *fixture, obs *core.GetMethodObservation)
		want      error
	}{
		{
			name: "uninit account",
			prepare: func(t *testing.T, f *fixture) {
				f.account.Status = tlb.AccountUninit
			},
			want: core.ErrNotActive,
		},
		{
			name: "missing account",
			prepare: func(t *testing.T, f *fixture) {
				f.address = userAddr
			},
			want: core.ErrNotActive,
		},
		{
			name: "foreign code",
			prepare: func(t *testing.T, f *fixture) {
				code := boc.NewCell()
				require.NoError(t, code.WriteUint(1, 1))
				f.account.Code = mustBoc(t, code)
			},
			want: core.ErrCodeMismatch,
		},
		{
			name: "zero threshold",
			storage: func(s *orderStorage) {
				s.threshold = 0
			},
			want: core.ErrInvalidThreshold,
		},
		{
			name: "threshold above signers",
			storage: func(s *orderStorage) {
				s.threshold = 4
			},
			want: core.ErrInvalidThreshold,
		},
		{
			name: "approvals above signers",
			storage: func(s *orderStorage) {
				s.approvalsNum = 4
			},
			want: core.ErrInvalidApprovals,
		},
		{
			name: "other multisig",
			prepare: func(t *testing.T, f *fixture) {
				f.multisig.Address = signerA
			},
			want: core.ErrMultisigMismatch,
		},
		{
			name: "order deployed under another seqno",
			prepare: func(t *testing.T, f *fixture) {
				s := f.storage
				s.seqno = big.NewInt(6)
				f.account.Data = mustBoc(t, s.cell(t))
			},
			want: core.ErrAddressMismatch,
		},
		{
			name: "multisig threshold raised",
			prepare: func(t *testing.T, f *fixture) {
				f.multisig.Threshold = 3
			},
			want: core.ErrConfigDrift,
		},
		{
			name: "signers reordered",
			prepare: func(t *testing.T, f *fixture) {
				f.multisig.Signers = []ton.AccountID{signerB, signerA, signerC}
			},
			want: core.ErrConfigDrift,
		},
		{
			name:      "get-method approvals differ",
			deepCheck: true,
			getMethod: func(t *testing.T, f *fixture, obs *core.GetMethodObservation) {
				obs.ApprovalsMask = big.NewInt(3)
			},
			want: core.ErrCrossSourceMismatch,
		},
		{
			name:      "get-method order differs",
			deepCheck: true,
			getMethod: func(t *testing.T, f *fixture, obs *core.GetMethodObservation) {
				obs.Order = orderDict(t, sendMessageAction(t, 3, signerA, 1, nil))
			},
			want: core.ErrCrossSourceMismatch,
		},
		{
			name: "unsupported action",
			storage: func(s *orderStorage) {
				body := boc.NewCell()
				_ = body.WriteUint(0xabcdef01, 32)
				s.order = orderDict(t, sendMessageAction(t, 3, userAddr, 1, body))
			},
			want: core.ErrUnsupportedAction,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := defaultStorage(t)
			if tt.storage != nil {
				tt.storage(&storage)
			}
			f := newFixture(t, storage)
			getMethod := f.getMethod(t)
			r := f.reconciler(t, mockGetMethods{f.address: getMethod})
			if tt.prepare != nil {
				tt.prepare(t, f)
			}
			if tt.getMethod != nil {
				tt.getMethod(t, f, getMethod)
			}
			info, err := r.CheckOrder(context.Background(), f.params(tt.deepCheck))
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, info)
		})
	}
}

func TestReconciler_CheckOrder_ExecutedSkipsConfigDrift(t *testing.T) {
	storage := defaultStorage(t)
	storage.executed = true
	f := newFixture(t, storage)
	f.multisig.Threshold = 3
	f.multisig.Signers = []ton.AccountID{signerA}
	r := f.reconciler(t, nil)

	info, err := r.CheckOrder(context.Background(), f.params(false))
	require.NoError(t, err)
	require.True(t, info.IsExecuted)
}

func TestReconciler_CheckOrder_CrossSourceFields(t *testing.T) {
	f := newFixture(t, defaultStorage(t))
	getMethod := f.getMethod(t)
	getMethod.Threshold = 3
	getMethod.IsExecuted = true
	getMethod.Signers = []ton.AccountID{signerA}
	r := f.reconciler(t, mockGetMethods{f.address: getMethod})

	_, err := r.CheckOrder(context.Background(), f.params(true))
	var crossErr *CrossSourceError
	require.ErrorAs(t, err, &crossErr)
	require.Equal(t, []string{"threshold", "isExecuted", "signers"}, crossErr.Fields)
}

func TestReconciler_Networks(t *testing.T) {
	f := newFixture(t, defaultStorage(t))
	r, err := NewReconciler(WithTestnet(mockAccounts{f.address: f.account}, nil, fakeFormatter{testnet: true}))
	require.NoError(t, err)

	_, err = r.CheckOrder(context.Background(), f.params(false))
	require.Error(t, err)

	params := f.params(false)
	params.Testnet = true
	info, err := r.CheckOrder(context.Background(), params)
	require.NoError(t, err)
	require.True(t, info.Address.Testnet)

	_, err = NewReconciler()
	require.Error(t, err)
}
