package core

import (
	"github.com/tonkeeper/tongo"
	"github.com/tonkeeper/tongo/tlb"

	"github.com/arnac-io/ordercheck/internal/g"
)

func ConvertToAccount(accountId tongo.AccountID, shardAccount tlb.ShardAccount) (*Account, error) {
	res := &Account{
		AccountAddress: accountId,
		Code:           []byte{},
	}
	acc := shardAccount.Account
	if acc.SumType == "AccountNone" {
		res.Status = tlb.AccountNone
		return res, nil
	}
	res.TonBalance = int64(acc.Account.Storage.Balance.Grams)
	res.LastTransactionLt = shardAccount.LastTransLt
	state := acc.Account.Storage.State
	switch state.SumType {
	case "AccountUninit":
		res.Status = tlb.AccountUninit
		return res, nil
	case "AccountFrozen":
		res.FrozenHash = g.Pointer(tongo.Bits256(state.AccountFrozen.StateHash))
		res.Status = tlb.AccountFrozen
		return res, nil
	}
	res.Status = tlb.AccountActive
	if state.AccountActive.StateInit.Data.Exists {
		data, err := state.AccountActive.StateInit.Data.Value.Value.ToBoc()
		if err != nil {
			return nil, err
		}
		res.Data = data
	}
	if state.AccountActive.StateInit.Code.Exists {
		code, err := state.AccountActive.StateInit.Code.Value.Value.ToBoc()
		if err != nil {
			return nil, err
		}
		res.Code = code
	}
	return res, nil
}
