package multisig

import (
	"context"
	"math/big"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/ordercheck/pkg/core"
)

var (
	multisigAddr = ton.MustParseAccountID("0:e16a3b2b2a4ab3a8bdc7a9b1e35b8d7a3c0bbdf3ea5e4b6a3f5f96c9f59d2a11")
	signerA      = ton.MustParseAccountID("0:96ac9b952d050f79c07a2e5e0b94872a5bc189f8633882ac33ea82f5f9670a38")
	signerB      = ton.MustParseAccountID("0:120ecd442f6521f9951e37f15180e3f0baa4d0776a69a669b25f4c58acfe0653")
	signerC      = ton.MustParseAccountID("0:c3c4273815dd438aeecb41031bedb8415b7697830a65fcc6743d2e7e06dc0292")
	userAddr     = ton.MustParseAccountID("0:533e61bcae442af708e3eaa0773f8b001646c1cbf3cba1fbcb588f304d6d734f")
)

func testOrderCode(t *testing.T) *boc.Cell {
	code := boc.NewCell()
	require.NoError(t, code.WriteUint(0xdeadbeef, 32))
	return code
}

func writeAddr(t *testing.T, c *boc.Cell, id ton.AccountID) {
	require.NoError(t, tlb.Marshal(c, id.ToMsgAddress()))
}

func writeAddrNone(t *testing.T, c *boc.Cell) {
	require.NoError(t, c.WriteUint(0, 2))
}

func writeGrams(t *testing.T, c *boc.Cell, v uint64) {
	require.NoError(t, tlb.Marshal(c, tlb.Grams(v)))
}

func writeCoins(t *testing.T, c *boc.Cell, v int64) {
	require.NoError(t, tlb.Marshal(c, (*tlb.VarUInteger16)(big.NewInt(v))))
}

func writeUint256(t *testing.T, c *boc.Cell, v *big.Int) {
	require.NoError(t, tlb.Marshal(c, (*tlb.Uint256)(v)))
}

type dictEntry struct {
	key  uint64
	rest uint64
}

// buildDict serializes a non-empty Hashmap keyLen with the given sorted keys,
// always using long labels.
func buildDict(t *testing.T, keyLen int, keys []uint64, value func(c *boc.Cell, key uint64)) *boc.Cell {
	entries := make([]dictEntry, len(keys))
	for i, k := range keys {
		entries[i] = dictEntry{key: k, rest: k}
	}
	c := boc.NewCell()
	writeDictEdge(t, c, keyLen, entries, value)
	return c
}

func writeDictEdge(t *testing.T, c *boc.Cell, m int, entries []dictEntry, value func(c *boc.Cell, key uint64)) {
	l := 0
	for l < m {
		bit := (entries[0].rest >> (m - l - 1)) & 1
		same := true
		for _, e := range entries[1:] {
			if (e.rest>>(m-l-1))&1 != bit {
				same = false
				break
			}
		}
		if !same {
			break
		}
		l++
	}
	require.NoError(t, c.WriteBit(true))
	require.NoError(t, c.WriteBit(false))
	if width := bits.Len(uint(m)); width > 0 {
		require.NoError(t, c.WriteUint(uint64(l), width))
	}
	if l > 0 {
		require.NoError(t, c.WriteUint(entries[0].rest>>(m-l), l))
	}
	if l == m {
		require.Len(t, entries, 1)
		value(c, entries[0].key)
		return
	}
	rest := m - l - 1
	var left, right []dictEntry
	for _, e := range entries {
		child := dictEntry{key: e.key, rest: e.rest & (1<<rest - 1)}
		if (e.rest>>rest)&1 == 0 {
			left = append(left, child)
		} else {
			right = append(right, child)
		}
	}
	for _, branch := range [][]dictEntry{left, right} {
		child := boc.NewCell()
		writeDictEdge(t, child, rest, branch, value)
		require.NoError(t, c.AddRef(child))
	}
}

func addressDict(t *testing.T, accounts ...ton.AccountID) *boc.Cell {
	if len(accounts) == 0 {
		return boc.NewCell()
	}
	keys := make([]uint64, len(accounts))
	for i := range accounts {
		keys[i] = uint64(i)
	}
	return buildDict(t, 8, keys, func(c *boc.Cell, key uint64) {
		writeAddr(t, c, accounts[key])
	})
}

func orderDict(t *testing.T, actions ...*boc.Cell) *boc.Cell {
	keys := make([]uint64, len(actions))
	for i := range actions {
		keys[i] = uint64(i)
	}
	return orderDictWithKeys(t, keys, actions...)
}

func orderDictWithKeys(t *testing.T, keys []uint64, actions ...*boc.Cell) *boc.Cell {
	byKey := map[uint64]*boc.Cell{}
	for i, k := range keys {
		byKey[k] = actions[i]
	}
	return buildDict(t, 8, keys, func(c *boc.Cell, key uint64) {
		require.NoError(t, c.AddRef(byKey[key]))
	})
}

func writeIntMsgInfo(t *testing.T, c *boc.Cell, dest ton.AccountID, value uint64) {
	require.NoError(t, c.WriteBit(false)) // int_msg_info$0
	require.NoError(t, c.WriteBit(true))  // ihr_disabled
	require.NoError(t, c.WriteBit(true))  // bounce
	require.NoError(t, c.WriteBit(false)) // bounced
	writeAddrNone(t, c)
	writeAddr(t, c, dest)
	writeGrams(t, c, value)
	require.NoError(t, c.WriteBit(false)) // no extra currencies
	writeGrams(t, c, 0)
	writeGrams(t, c, 0)
	require.NoError(t, c.WriteUint(0, 64))
	require.NoError(t, c.WriteUint(0, 32))
	require.NoError(t, c.WriteBit(false)) // no init
}

// relaxedMessage builds int_msg_info$0 with the body in a reference.
func relaxedMessage(t *testing.T, dest ton.AccountID, value uint64, body *boc.Cell) *boc.Cell {
	c := boc.NewCell()
	writeIntMsgInfo(t, c, dest, value)
	require.NoError(t, c.WriteBit(true)) // body in ref
	if body == nil {
		body = boc.NewCell()
	}
	require.NoError(t, c.AddRef(body))
	return c
}

// inlineMessage builds int_msg_info$0 with writeBody storing the body in
// the message cell itself. A nil writeBody leaves the body empty.
func inlineMessage(t *testing.T, dest ton.AccountID, value uint64, writeBody func(c *boc.Cell)) *boc.Cell {
	c := boc.NewCell()
	writeIntMsgInfo(t, c, dest, value)
	require.NoError(t, c.WriteBit(false)) // body inline
	if writeBody != nil {
		writeBody(c)
	}
	return c
}

func sendInlineMessageAction(t *testing.T, mode uint64, dest ton.AccountID, value uint64, writeBody func(c *boc.Cell)) *boc.Cell {
	c := boc.NewCell()
	require.NoError(t, c.WriteUint(opSendMessage, 32))
	require.NoError(t, c.WriteUint(mode, 8))
	require.NoError(t, c.AddRef(inlineMessage(t, dest, value, writeBody)))
	return c
}

func sendMessageAction(t *testing.T, mode uint64, dest ton.AccountID, value uint64, body *boc.Cell) *boc.Cell {
	c := boc.NewCell()
	require.NoError(t, c.WriteUint(opSendMessage, 32))
	require.NoError(t, c.WriteUint(mode, 8))
	require.NoError(t, c.AddRef(relaxedMessage(t, dest, value, body)))
	return c
}

func updateParamsAction(t *testing.T, threshold uint64, signers *boc.Cell, proposers *boc.Cell) *boc.Cell {
	c := boc.NewCell()
	require.NoError(t, c.WriteUint(opUpdateMultisigParams, 32))
	require.NoError(t, c.WriteUint(threshold, 8))
	require.NoError(t, c.AddRef(signers))
	require.NoError(t, c.WriteBit(proposers != nil))
	if proposers != nil {
		require.NoError(t, c.AddRef(proposers))
	}
	return c
}

func textComment(t *testing.T, text string) *boc.Cell {
	c := boc.NewCell()
	require.NoError(t, c.WriteUint(0, 32))
	require.NoError(t, c.WriteBytes([]byte(text)))
	return c
}

func header(t *testing.T, op uint64) *boc.Cell {
	c := boc.NewCell()
	require.NoError(t, c.WriteUint(op, 32))
	require.NoError(t, c.WriteUint(7, 64))
	return c
}

// forwardPayload writes an inline forward payload.
func forwardPayload(t *testing.T, c *boc.Cell, payload []byte) {
	require.NoError(t, c.WriteBit(false))
	if len(payload) > 0 {
		require.NoError(t, c.WriteBytes(payload))
	}
}

func mintBody(t *testing.T, to ton.AccountID, jettons int64, payload []byte) *boc.Cell {
	internal := header(t, opInternalTransfer)
	writeCoins(t, internal, jettons)
	writeAddrNone(t, internal)
	writeAddr(t, internal, multisigAddr)
	writeGrams(t, internal, 1)
	forwardPayload(t, internal, payload)
	c := header(t, opMint)
	writeAddr(t, c, to)
	writeGrams(t, c, 50_000_000)
	require.NoError(t, c.AddRef(internal))
	return c
}

func transferBody(t *testing.T, to ton.AccountID, jettons int64, customPayload *boc.Cell, payload []byte) *boc.Cell {
	c := header(t, opTransfer)
	writeCoins(t, c, jettons)
	writeAddr(t, c, to)
	writeAddr(t, c, multisigAddr)
	require.NoError(t, c.WriteBit(customPayload != nil))
	if customPayload != nil {
		require.NoError(t, c.AddRef(customPayload))
	}
	writeGrams(t, c, 1)
	forwardPayload(t, c, payload)
	return c
}

func callToBody(t *testing.T, user ton.AccountID, tonAmount uint64, action *boc.Cell) *boc.Cell {
	c := header(t, opCallTo)
	writeAddr(t, c, user)
	writeGrams(t, c, tonAmount)
	require.NoError(t, c.AddRef(action))
	return c
}

func setStatusBody(t *testing.T, status uint64) *boc.Cell {
	c := header(t, opSetStatus)
	require.NoError(t, c.WriteUint(status, 4))
	return c
}

func burnBody(t *testing.T, jettons int64, customPayload *boc.Cell) *boc.Cell {
	c := header(t, opBurn)
	writeCoins(t, c, jettons)
	writeAddr(t, c, multisigAddr)
	require.NoError(t, c.WriteBit(customPayload != nil))
	if customPayload != nil {
		require.NoError(t, c.AddRef(customPayload))
	}
	return c
}

type orderStorage struct {
	multisig       ton.AccountID
	seqno          *big.Int
	threshold      uint64
	executed       bool
	signers        []ton.AccountID
	approvalsMask  *big.Int
	approvalsNum   uint64
	expirationDate uint64
	order          *boc.Cell
}

func (s orderStorage) cell(t *testing.T) *boc.Cell {
	c := boc.NewCell()
	writeAddr(t, c, s.multisig)
	writeUint256(t, c, s.seqno)
	require.NoError(t, c.WriteUint(s.threshold, 8))
	require.NoError(t, c.WriteBit(s.executed))
	require.NoError(t, c.AddRef(addressDict(t, s.signers...)))
	writeUint256(t, c, s.approvalsMask)
	require.NoError(t, c.WriteUint(s.approvalsNum, 8))
	require.NoError(t, c.WriteUint(s.expirationDate, 48))
	require.NoError(t, c.AddRef(s.order))
	return c
}

func defaultStorage(t *testing.T) orderStorage {
	return orderStorage{
		multisig:       multisigAddr,
		seqno:          big.NewInt(5),
		threshold:      2,
		signers:        []ton.AccountID{signerA, signerB, signerC},
		approvalsMask:  big.NewInt(1),
		approvalsNum:   1,
		expirationDate: 1_735_689_600,
		order:          orderDict(t, sendMessageAction(t, 3, userAddr, 1_500_000_000, nil)),
	}
}

func mustBoc(t *testing.T, c *boc.Cell) []byte {
	b, err := c.ToBoc()
	require.NoError(t, err)
	return b
}

type fakeFormatter struct {
	testnet bool
}

func (f fakeFormatter) FormatAddress(ctx context.Context, id ton.AccountID) (core.AddressInfo, error) {
	friendly := id.ToHuman(true, f.testnet)
	return core.AddressInfo{
		Address:    id,
		Friendly:   friendly,
		Bounceable: true,
		Testnet:    f.testnet,
		URL:        "https://tonviewer.com/" + friendly,
	}, nil
}
