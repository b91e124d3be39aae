package multisig

import (
	"math/big"

	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
)

// OrderAddress derives the address of the order contract with the given
// seqno deployed by multisig from the order code template.
func OrderAddress(multisig ton.AccountID, seqno *big.Int, code *boc.Cell) (ton.AccountID, error) {
	if seqno == nil || seqno.Sign() < 0 || seqno.BitLen() > 256 {
		return ton.AccountID{}, errors.Errorf("order seqno %v does not fit uint256", seqno)
	}
	data := boc.NewCell()
	if err := tlb.Marshal(data, multisig.ToMsgAddress()); err != nil {
		return ton.AccountID{}, err
	}
	if err := tlb.Marshal(data, (*tlb.Uint256)(seqno)); err != nil {
		return ton.AccountID{}, err
	}
	var stateInit tlb.StateInit
	stateInit.Code.Exists = true
	stateInit.Code.Value.Value = *code
	stateInit.Data.Exists = true
	stateInit.Data.Value.Value = *data
	cell := boc.NewCell()
	if err := tlb.Marshal(cell, stateInit); err != nil {
		return ton.AccountID{}, err
	}
	hash, err := cell.Hash256()
	if err != nil {
		return ton.AccountID{}, err
	}
	return ton.AccountID{Workchain: 0, Address: hash}, nil
}
