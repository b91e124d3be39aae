package multisig

import (
	"math/big"

	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"

	"github.com/arnac-io/ordercheck/pkg/core"
)

// GetOrderDataMethod is the order contract get-method mirroring its storage.
const GetOrderDataMethod = "get_order_data"

// ParseGetOrderData converts the get_order_data result stack. Every field is
// mandatory: a null or a value of an unexpected type fails the whole result.
func ParseGetOrderData(stack []core.StackValue) (*core.GetMethodObservation, error) {
	if len(stack) != 9 {
		return nil, errors.Wrapf(core.ErrMalformedData, "get_order_data returned %d values", len(stack))
	}
	r := stackReader{stack: stack}
	multisig := r.cell("multisig")
	seqno := r.num("order_seqno")
	threshold := r.num("threshold")
	executed := r.num("executed")
	signersCell := r.cell("signers")
	mask := r.num("approvals")
	approvals := r.num("approvals_num")
	expiration := r.num("expiration_date")
	order := r.cell("order")
	if r.err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, r.err.Error())
	}
	multisigAddress, err := readInternalAddress(multisig)
	if err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, "get_order_data multisig: "+err.Error())
	}
	signers, err := parseAddressDict(signersCell)
	if err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, "get_order_data signers: "+err.Error())
	}
	for name, n := range map[string]*big.Int{"threshold": threshold, "approvals_num": approvals} {
		if n.Sign() < 0 || !n.IsUint64() || n.Uint64() > 255 {
			return nil, errors.Wrapf(core.ErrMalformedData, "get_order_data %s out of range: %v", name, n)
		}
	}
	if expiration.Sign() < 0 || !expiration.IsInt64() {
		return nil, errors.Wrapf(core.ErrMalformedData, "get_order_data expiration_date out of range: %v", expiration)
	}
	if seqno.Sign() < 0 || mask.Sign() < 0 {
		return nil, errors.Wrap(core.ErrMalformedData, "get_order_data negative uint256")
	}
	return &core.GetMethodObservation{
		MultisigAddress: multisigAddress,
		OrderSeqno:      seqno,
		Threshold:       int(threshold.Int64()),
		IsExecuted:      executed.Sign() != 0,
		Signers:         signers,
		ApprovalsMask:   mask,
		ApprovalsNum:    int(approvals.Int64()),
		ExpirationDate:  expiration.Int64(),
		Order:           order,
	}, nil
}

type stackReader struct {
	stack []core.StackValue
	pos   int
	err   error
}

func (r *stackReader) next(name string) core.StackValue {
	v := r.stack[r.pos]
	r.pos++
	if r.err == nil && v.Type == core.StackNull {
		r.err = errors.Errorf("get_order_data %s is null", name)
	}
	return v
}

func (r *stackReader) num(name string) *big.Int {
	v := r.next(name)
	if r.err != nil {
		return nil
	}
	if v.Type != core.StackNum || v.Num == nil {
		r.err = errors.Errorf("get_order_data %s: expected num, got %s", name, v.Type)
		return nil
	}
	return v.Num
}

func (r *stackReader) cell(name string) *boc.Cell {
	v := r.next(name)
	if r.err != nil {
		return nil
	}
	if (v.Type != core.StackCell && v.Type != core.StackSlice) || v.Cell == nil {
		r.err = errors.Errorf("get_order_data %s: expected cell, got %s", name, v.Type)
		return nil
	}
	v.Cell.ResetCounters()
	return v.Cell
}
