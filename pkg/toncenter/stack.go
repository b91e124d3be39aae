package toncenter

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"

	"github.com/arnac-io/ordercheck/pkg/core"
)

// parseStackEntry decodes a v2 stack entry such as ["num", "0x5"] or
// ["cell", {"bytes": "te6cc..."}].
func parseStackEntry(raw json.RawMessage) (core.StackValue, error) {
	var entry []json.RawMessage
	if err := json.Unmarshal(raw, &entry); err != nil {
		return core.StackValue{}, err
	}
	if len(entry) == 0 {
		return core.StackValue{}, errors.New("empty entry")
	}
	var kind string
	if err := json.Unmarshal(entry[0], &kind); err != nil {
		return core.StackValue{}, err
	}
	if kind == "null" {
		return core.StackValue{Type: core.StackNull}, nil
	}
	if len(entry) != 2 {
		return core.StackValue{}, errors.Errorf("%s entry without value", kind)
	}
	switch kind {
	case "num":
		var s string
		if err := json.Unmarshal(entry[1], &s); err != nil {
			return core.StackValue{}, err
		}
		n, err := parseNum(s)
		if err != nil {
			return core.StackValue{}, err
		}
		return core.StackValue{Type: core.StackNum, Num: n}, nil
	case "cell", "slice":
		var v struct {
			Bytes string `json:"bytes"`
		}
		if err := json.Unmarshal(entry[1], &v); err != nil {
			return core.StackValue{}, err
		}
		cells, err := boc.DeserializeBocBase64(v.Bytes)
		if err != nil {
			return core.StackValue{}, err
		}
		if len(cells) != 1 {
			return core.StackValue{}, errors.Errorf("expected one root cell, got %d", len(cells))
		}
		return core.StackValue{Type: core.StackValueType(kind), Cell: cells[0]}, nil
	}
	return core.StackValue{}, errors.Errorf("unsupported stack entry type %q", kind)
}

func parseNum(s string) (*big.Int, error) {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	base := 10
	if strings.HasPrefix(s, "0x") {
		s = s[2:]
		base = 16
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, errors.Errorf("invalid number %q", s)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}
