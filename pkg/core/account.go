package core

import (
	"github.com/tonkeeper/tongo"
	"github.com/tonkeeper/tongo/tlb"
)

// Account holds low-level details about a particular account taken directly from the blockchain.
type Account struct {
	AccountAddress    tongo.AccountID
	Status            tlb.AccountStatus
	TonBalance        int64
	LastTransactionLt uint64
	Code              []byte
	Data              []byte
	FrozenHash        *tongo.Bits256
}
