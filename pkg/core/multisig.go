package core

import (
	"math/big"
	"time"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"
)

// OrderObservation is an order contract state decoded from its raw storage.
type OrderObservation struct {
	Address         ton.AccountID
	TonBalance      int64
	MultisigAddress ton.AccountID
	OrderSeqno      *big.Int
	Threshold       int
	// Signers are kept in ascending dictionary key order, duplicates included.
	Signers        []ton.AccountID
	ApprovalsMask  *big.Int
	ApprovalsNum   int
	ExpirationDate int64
	IsExecuted     bool
	Order          *boc.Cell
}

// GetMethodObservation is the result of the get_order_data get-method.
type GetMethodObservation struct {
	MultisigAddress ton.AccountID
	OrderSeqno      *big.Int
	Threshold       int
	IsExecuted      bool
	Signers         []ton.AccountID
	ApprovalsMask   *big.Int
	ApprovalsNum    int
	ExpirationDate  int64
	Order           *boc.Cell
}

// MultisigContext describes the parent multisig wallet as already validated by a caller.
type MultisigContext struct {
	Address   ton.AccountID
	Threshold int
	Signers   []ton.AccountID
}

type ActionType string

const (
	ActionSendMessage          ActionType = "SendMessage"
	ActionUpdateMultisigParams ActionType = "UpdateMultisigParams"
)

// Action is a single entry of an order's action dictionary.
type Action struct {
	Key                  uint8
	Type                 ActionType
	SendMessage          *SendMessageAction
	UpdateMultisigParams *UpdateMultisigParamsAction
}

type SendMode uint8

const (
	SendModePayFeesSeparately SendMode = 1
	SendModeIgnoreErrors      SendMode = 2
	SendModeDestroyAccount    SendMode = 32
	SendModeCarryInboundValue SendMode = 64
	SendModeCarryAllBalance   SendMode = 128
)

func (m SendMode) Has(flag SendMode) bool {
	return m&flag == flag
}

type SendMessageAction struct {
	Mode        SendMode
	Destination ton.AccountID
	// Value is in nanotons. It is meaningless when AllBalance is set.
	Value      uint64
	AllBalance bool
	Body       MessageBody
}

type UpdateMultisigParamsAction struct {
	NewThreshold int
	NewSigners   []ton.AccountID
	NewProposers []ton.AccountID
}

type MessageBodyType string

const (
	EmptyBody                MessageBodyType = "Empty"
	TextCommentBody          MessageBodyType = "TextComment"
	JettonMintBody           MessageBodyType = "JettonMint"
	JettonTopUpBody          MessageBodyType = "JettonTopUp"
	JettonChangeAdminBody    MessageBodyType = "JettonChangeAdmin"
	JettonClaimAdminBody     MessageBodyType = "JettonClaimAdmin"
	JettonChangeContentBody  MessageBodyType = "JettonChangeContent"
	JettonTransferBody       MessageBodyType = "JettonTransfer"
	JettonForceSetStatusBody MessageBodyType = "JettonForceSetStatus"
	JettonForceTransferBody  MessageBodyType = "JettonForceTransfer"
	JettonForceBurnBody      MessageBodyType = "JettonForceBurn"
)

// MessageBody is a recognized body of an outgoing message.
// Exactly one of the pointer fields is set according to Type,
// Empty, JettonTopUp and JettonClaimAdmin carry no payload.
type MessageBody struct {
	Type                 MessageBodyType
	TextComment          *TextComment
	JettonMint           *JettonMint
	JettonChangeAdmin    *JettonChangeAdmin
	JettonChangeContent  *JettonChangeContent
	JettonTransfer       *JettonTransfer
	JettonForceSetStatus *JettonForceSetStatus
	JettonForceTransfer  *JettonForceTransfer
	JettonForceBurn      *JettonForceBurn
}

type TextComment struct {
	Text string
}

type JettonMint struct {
	QueryID      uint64
	To           ton.AccountID
	TonAmount    uint64
	JettonAmount *big.Int
	From         *ton.AccountID
	Response     *ton.AccountID
}

type JettonChangeAdmin struct {
	QueryID  uint64
	NewAdmin ton.AccountID
}

type JettonChangeContent struct {
	QueryID        uint64
	NewMetadataURL string
}

type JettonTransfer struct {
	QueryID          uint64
	Amount           *big.Int
	To               ton.AccountID
	Response         *ton.AccountID
	ForwardTonAmount uint64
}

type LockType uint8

const (
	LockTypeUnlock LockType = 0
	LockTypeOut    LockType = 1
	LockTypeIn     LockType = 2
	LockTypeFull   LockType = 3
)

func (l LockType) String() string {
	switch l {
	case LockTypeUnlock:
		return "unlock"
	case LockTypeOut:
		return "out"
	case LockTypeIn:
		return "in"
	case LockTypeFull:
		return "full"
	}
	return "unknown"
}

type JettonForceSetStatus struct {
	QueryID   uint64
	User      ton.AccountID
	TonAmount uint64
	Status    LockType
}

type JettonForceTransfer struct {
	QueryID   uint64
	From      ton.AccountID
	TonAmount uint64
	Transfer  JettonTransfer
}

type JettonForceBurn struct {
	QueryID   uint64
	User      ton.AccountID
	TonAmount uint64
	Amount    *big.Int
	Response  *ton.AccountID
}

// AddressInfo is an address prepared for display.
type AddressInfo struct {
	Address    ton.AccountID
	Friendly   string
	Bounceable bool
	Testnet    bool
	URL        string
	Name       string
}

// OrderInfo is the verified view of a multisig order.
type OrderInfo struct {
	Address          AddressInfo
	TonBalance       int64
	OrderID          *big.Int
	IsExecuted       bool
	ApprovalsNum     int
	ApprovalsMask    *big.Int
	Threshold        int
	Signers          []AddressInfo
	ExpiresAt        time.Time
	Actions          []string
	DecodedActions   []Action
	Risk             *Risk
	StateInitMatches bool
}

// StackValue is one entry of a get-method result stack.
type StackValue struct {
	Type StackValueType
	Num  *big.Int
	Cell *boc.Cell
}

type StackValueType string

const (
	StackNull  StackValueType = "null"
	StackNum   StackValueType = "num"
	StackCell  StackValueType = "cell"
	StackSlice StackValueType = "slice"
)

// Risk specifies multisig assets that leave the wallet once the order is executed.
type Risk struct {
	// According to https://docs.ton.org/develop/smart-contracts/messages#message-modes
	TransferAllRemainingBalance bool
	DestroyAccount              bool
	Ton                         uint64
	// Jettons are keyed by the multisig's jetton wallet and not normalized.
	Jettons map[ton.AccountID]big.Int
}
