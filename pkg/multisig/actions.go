package multisig

import (
	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/ordercheck/pkg/core"
)

const (
	opSendMessage          = 0xf1381e5b
	opUpdateMultisigParams = 0x1d0cfbd3
)

// DecodeActions decodes the order dictionary (Hashmap 8 ^Cell) into actions
// sorted by key. A single entry that cannot be decoded fails the whole order.
func DecodeActions(order *boc.Cell) ([]core.Action, error) {
	order.ResetCounters()
	var dict tlb.Hashmap[tlb.Uint8, tlb.Ref[boc.Cell]]
	if err := tlb.Unmarshal(order, &dict); err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, "order dictionary: "+err.Error())
	}
	var entries []keyed[boc.Cell]
	for _, item := range dict.Items() {
		entries = append(entries, keyed[boc.Cell]{key: uint8(item.Key), value: item.Value.Value})
	}
	sortKeyed(entries)
	actions := make([]core.Action, 0, len(entries))
	for i := range entries {
		action, err := decodeAction(entries[i].key, &entries[i].value)
		if err != nil {
			return nil, errors.Wrapf(err, "action #%d", entries[i].key)
		}
		decodedActions.WithLabelValues(actionLabel(action)).Inc()
		actions = append(actions, *action)
	}
	return actions, nil
}

func decodeAction(key uint8, c *boc.Cell) (*core.Action, error) {
	c.ResetCounters()
	op, err := c.ReadUint(32)
	if err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, err.Error())
	}
	switch op {
	case opSendMessage:
		msg, err := decodeSendMessage(c)
		if err != nil {
			return nil, err
		}
		return &core.Action{Key: key, Type: core.ActionSendMessage, SendMessage: msg}, nil
	case opUpdateMultisigParams:
		params, err := decodeUpdateParams(c)
		if err != nil {
			return nil, err
		}
		return &core.Action{Key: key, Type: core.ActionUpdateMultisigParams, UpdateMultisigParams: params}, nil
	}
	return nil, errors.Wrapf(core.ErrUnknownActionOpcode, "opcode 0x%08x", op)
}

func decodeSendMessage(c *boc.Cell) (*core.SendMessageAction, error) {
	mode, err := c.ReadUint(8)
	if err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, "send mode: "+err.Error())
	}
	msgCell, err := nextRef(c)
	if err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, "message: "+err.Error())
	}
	if err := endParse(c); err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, err.Error())
	}
	var msg tlb.Message
	if err := tlb.Unmarshal(msgCell, &msg); err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, "message: "+err.Error())
	}
	if msg.Info.SumType != "IntMsgInfo" {
		return nil, errors.Wrapf(core.ErrMalformedData, "message is %s, expected internal", msg.Info.SumType)
	}
	info := msg.Info.IntMsgInfo
	dest, err := ton.AccountIDFromTlb(info.Dest)
	if err != nil || dest == nil {
		return nil, errors.Wrap(core.ErrMalformedData, "message destination")
	}
	body := boc.Cell(msg.Body.Value)
	decoded, err := decodeBody(&body)
	if err != nil {
		return nil, err
	}
	sendMode := core.SendMode(mode)
	return &core.SendMessageAction{
		Mode:        sendMode,
		Destination: *dest,
		Value:       uint64(info.Value.Grams),
		AllBalance:  sendMode.Has(core.SendModeCarryAllBalance),
		Body:        *decoded,
	}, nil
}

func decodeUpdateParams(c *boc.Cell) (*core.UpdateMultisigParamsAction, error) {
	threshold, err := c.ReadUint(8)
	if err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, "new threshold: "+err.Error())
	}
	signersCell, err := nextRef(c)
	if err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, "new signers: "+err.Error())
	}
	signers, err := parseAddressDict(signersCell)
	if err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, "new signers: "+err.Error())
	}
	proposersCell, err := readMaybeRef(c)
	if err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, "new proposers: "+err.Error())
	}
	var proposers []ton.AccountID
	if proposersCell != nil {
		if proposers, err = parseAddressDict(proposersCell); err != nil {
			return nil, errors.Wrap(core.ErrMalformedData, "new proposers: "+err.Error())
		}
	}
	if err := endParse(c); err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, err.Error())
	}
	switch {
	case len(signers) == 0:
		return nil, errors.Wrap(core.ErrInvalidUpdateParams, "no signers")
	case threshold == 0:
		return nil, errors.Wrap(core.ErrInvalidUpdateParams, "zero threshold")
	case int(threshold) > len(signers):
		return nil, errors.Wrapf(core.ErrInvalidUpdateParams, "threshold %d exceeds %d signers", threshold, len(signers))
	}
	return &core.UpdateMultisigParamsAction{
		NewThreshold: int(threshold),
		NewSigners:   signers,
		NewProposers: proposers,
	}, nil
}

func actionLabel(a *core.Action) string {
	if a.SendMessage != nil {
		return string(a.SendMessage.Body.Type)
	}
	return string(a.Type)
}
