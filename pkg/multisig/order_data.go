package multisig

import (
	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"

	"github.com/arnac-io/ordercheck/pkg/core"
)

// ParseOrderData decodes the persistent storage of an order contract:
//
//	multisig_address:MsgAddressInt order_seqno:uint256
//	threshold:uint8 sent_for_execution:Bool signers:^(Hashmap 8 MsgAddressInt)
//	approvals_mask:uint256 approvals_num:uint8 expiration_date:uint48
//	order:^(Hashmap 8 ^Cell)
//
// An order whose storage ends right after order_seqno has not been
// initialized yet and is reported as malformed.
func ParseOrderData(data *boc.Cell) (*core.OrderObservation, error) {
	obs, err := parseOrderData(data)
	if err != nil {
		return nil, errors.Wrap(core.ErrMalformedData, err.Error())
	}
	return obs, nil
}

func parseOrderData(data *boc.Cell) (*core.OrderObservation, error) {
	data.ResetCounters()
	multisig, err := readInternalAddress(data)
	if err != nil {
		return nil, errors.Wrap(err, "multisig address")
	}
	seqno, err := readUint256(data)
	if err != nil {
		return nil, errors.Wrap(err, "order seqno")
	}
	if isEmpty(data) {
		return nil, errors.New("order is not initialized")
	}
	threshold, err := data.ReadUint(8)
	if err != nil {
		return nil, errors.Wrap(err, "threshold")
	}
	executed, err := data.ReadBit()
	if err != nil {
		return nil, errors.Wrap(err, "sent for execution")
	}
	signersCell, err := nextRef(data)
	if err != nil {
		return nil, errors.Wrap(err, "signers")
	}
	signers, err := parseAddressDict(signersCell)
	if err != nil {
		return nil, errors.Wrap(err, "signers")
	}
	mask, err := readUint256(data)
	if err != nil {
		return nil, errors.Wrap(err, "approvals mask")
	}
	approvals, err := data.ReadUint(8)
	if err != nil {
		return nil, errors.Wrap(err, "approvals num")
	}
	expiration, err := data.ReadUint(48)
	if err != nil {
		return nil, errors.Wrap(err, "expiration date")
	}
	order, err := nextRef(data)
	if err != nil {
		return nil, errors.Wrap(err, "order")
	}
	if err := endParse(data); err != nil {
		return nil, err
	}
	return &core.OrderObservation{
		MultisigAddress: multisig,
		OrderSeqno:      seqno,
		Threshold:       int(threshold),
		Signers:         signers,
		ApprovalsMask:   mask,
		ApprovalsNum:    int(approvals),
		ExpirationDate:  int64(expiration),
		IsExecuted:      executed,
		Order:           order,
	}, nil
}
