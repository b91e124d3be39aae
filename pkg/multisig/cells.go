package multisig

import (
	"cmp"
	"fmt"
	"math/big"

	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"golang.org/x/exp/slices"
)

func readAddress(c *boc.Cell) (*ton.AccountID, error) {
	var addr tlb.MsgAddress
	if err := tlb.Unmarshal(c, &addr); err != nil {
		return nil, err
	}
	return ton.AccountIDFromTlb(addr)
}

// readInternalAddress reads an address that must not be addr_none.
func readInternalAddress(c *boc.Cell) (ton.AccountID, error) {
	addr, err := readAddress(c)
	if err != nil {
		return ton.AccountID{}, err
	}
	if addr == nil {
		return ton.AccountID{}, fmt.Errorf("unexpected addr_none")
	}
	return *addr, nil
}

func readUint256(c *boc.Cell) (*big.Int, error) {
	var v tlb.Uint256
	if err := tlb.Unmarshal(c, &v); err != nil {
		return nil, err
	}
	n := big.Int(v)
	return &n, nil
}

func readGrams(c *boc.Cell) (uint64, error) {
	var v tlb.Grams
	if err := tlb.Unmarshal(c, &v); err != nil {
		return 0, err
	}
	return uint64(v), nil
}

func readCoins(c *boc.Cell) (*big.Int, error) {
	var v tlb.VarUInteger16
	if err := tlb.Unmarshal(c, &v); err != nil {
		return nil, err
	}
	n := big.Int(v)
	return &n, nil
}

// nextRef returns the next reference with its cursor at the beginning.
func nextRef(c *boc.Cell) (*boc.Cell, error) {
	ref, err := c.NextRef()
	if err != nil {
		return nil, err
	}
	ref.ResetCounters()
	return ref, nil
}

// readMaybeRef reads a Maybe ^Cell and returns nil when it is absent.
func readMaybeRef(c *boc.Cell) (*boc.Cell, error) {
	exists, err := c.ReadBit()
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return nextRef(c)
}

// readStringTail reads a snake-encoded string starting at the cursor.
func readStringTail(c *boc.Cell) (string, error) {
	var buf []byte
	for {
		bits := c.BitsAvailableForRead()
		if bits%8 != 0 {
			return "", fmt.Errorf("string tail is not byte aligned: %d bits", bits)
		}
		chunk, err := c.ReadBytes(bits / 8)
		if err != nil {
			return "", err
		}
		buf = append(buf, chunk...)
		if c.RefsAvailableForRead() == 0 {
			return string(buf), nil
		}
		if c.RefsAvailableForRead() > 1 {
			return "", fmt.Errorf("string tail has %d refs", c.RefsAvailableForRead())
		}
		if c, err = nextRef(c); err != nil {
			return "", err
		}
	}
}

func isEmpty(c *boc.Cell) bool {
	return c.BitsAvailableForRead() == 0 && c.RefsAvailableForRead() == 0
}

func endParse(c *boc.Cell) error {
	if !isEmpty(c) {
		return fmt.Errorf("%d bits and %d refs left unparsed", c.BitsAvailableForRead(), c.RefsAvailableForRead())
	}
	return nil
}

// parseAddressDict reads a non-empty Hashmap 8 MsgAddressInt and returns
// its values in ascending key order. An empty cell is an empty list.
func parseAddressDict(c *boc.Cell) ([]ton.AccountID, error) {
	if isEmpty(c) {
		return nil, nil
	}
	var dict tlb.Hashmap[tlb.Uint8, tlb.MsgAddress]
	if err := tlb.Unmarshal(c, &dict); err != nil {
		return nil, errors.Wrap(err, "address dictionary")
	}
	var entries []keyed[tlb.MsgAddress]
	for _, item := range dict.Items() {
		entries = append(entries, keyed[tlb.MsgAddress]{key: uint8(item.Key), value: item.Value})
	}
	sortKeyed(entries)
	accounts := make([]ton.AccountID, 0, len(entries))
	for _, e := range entries {
		id, err := ton.AccountIDFromTlb(e.value)
		if err != nil {
			return nil, err
		}
		if id == nil {
			return nil, fmt.Errorf("addr_none in dictionary at key %d", e.key)
		}
		accounts = append(accounts, *id)
	}
	return accounts, nil
}

type keyed[T any] struct {
	key   uint8
	value T
}

func sortKeyed[T any](entries []keyed[T]) {
	slices.SortFunc(entries, func(a, b keyed[T]) int {
		return cmp.Compare(a.key, b.key)
	})
}

func cellHash(c *boc.Cell) ([32]byte, error) {
	if c == nil {
		return [32]byte{}, fmt.Errorf("nil cell")
	}
	return c.Hash256()
}
