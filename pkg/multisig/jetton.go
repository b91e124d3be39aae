package multisig

import (
	"math/big"

	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/ordercheck/pkg/core"
)

// Stablecoin jetton minter and wallet opcodes.
const (
	opMint              = 0x642b7d07
	opInternalTransfer  = 0x178d4519
	opTopUp             = 0xd372158c
	opChangeAdmin       = 0x6501f354
	opClaimAdmin        = 0xfb88e119
	opChangeMetadataURL = 0xcb862902
	opTransfer          = 0x0f8a7ea5
	opCallTo            = 0x235caf52
	opSetStatus         = 0xeed236d3
	opBurn              = 0x595f07bc
)

var errOpMismatch = errors.New("opcode mismatch")

func readHeader(c *boc.Cell, op uint64) (uint64, error) {
	got, err := c.ReadUint(32)
	if err != nil {
		return 0, err
	}
	if got != op {
		return 0, errOpMismatch
	}
	return c.ReadUint(64)
}

// readForwardPayload reads forward_payload:(Either Cell ^Cell) and reports
// whether it carries any data.
func readForwardPayload(c *boc.Cell) (bool, error) {
	inRef, err := c.ReadBit()
	if err != nil {
		return false, err
	}
	if !inRef {
		return !isEmpty(c), nil
	}
	payload, err := nextRef(c)
	if err != nil {
		return false, err
	}
	return !isEmpty(payload) || !isEmpty(c), nil
}

func parseMint(c *boc.Cell) (*core.JettonMint, error) {
	queryID, err := readHeader(c, opMint)
	if err != nil {
		return nil, err
	}
	to, err := readInternalAddress(c)
	if err != nil {
		return nil, err
	}
	tonAmount, err := readGrams(c)
	if err != nil {
		return nil, err
	}
	internal, err := nextRef(c)
	if err != nil {
		return nil, err
	}
	if err := endParse(c); err != nil {
		return nil, err
	}
	if _, err := readHeader(internal, opInternalTransfer); err != nil {
		return nil, err
	}
	amount, err := readCoins(internal)
	if err != nil {
		return nil, err
	}
	from, err := readAddress(internal)
	if err != nil {
		return nil, err
	}
	response, err := readAddress(internal)
	if err != nil {
		return nil, err
	}
	if _, err := readGrams(internal); err != nil {
		return nil, err
	}
	hasPayload, err := readForwardPayload(internal)
	if err != nil {
		return nil, err
	}
	if hasPayload {
		return nil, errors.Wrap(core.ErrUnsupportedPayload, "mint forward payload")
	}
	return &core.JettonMint{
		QueryID:      queryID,
		To:           to,
		TonAmount:    tonAmount,
		JettonAmount: amount,
		From:         from,
		Response:     response,
	}, nil
}

// parseQueryOnly parses messages consisting of an opcode and a query id.
func parseQueryOnly(c *boc.Cell, op uint64) error {
	if _, err := readHeader(c, op); err != nil {
		return err
	}
	return endParse(c)
}

func parseChangeAdmin(c *boc.Cell) (*core.JettonChangeAdmin, error) {
	queryID, err := readHeader(c, opChangeAdmin)
	if err != nil {
		return nil, err
	}
	admin, err := readInternalAddress(c)
	if err != nil {
		return nil, err
	}
	if err := endParse(c); err != nil {
		return nil, err
	}
	return &core.JettonChangeAdmin{QueryID: queryID, NewAdmin: admin}, nil
}

func parseChangeContent(c *boc.Cell) (*core.JettonChangeContent, error) {
	queryID, err := readHeader(c, opChangeMetadataURL)
	if err != nil {
		return nil, err
	}
	url, err := readStringTail(c)
	if err != nil {
		return nil, err
	}
	return &core.JettonChangeContent{QueryID: queryID, NewMetadataURL: url}, nil
}

// parseTransfer parses a jetton wallet transfer. Custom payloads and
// non-empty forward payloads are rejected as unsupported.
func parseTransfer(c *boc.Cell) (*core.JettonTransfer, error) {
	queryID, err := readHeader(c, opTransfer)
	if err != nil {
		return nil, err
	}
	amount, err := readCoins(c)
	if err != nil {
		return nil, err
	}
	to, err := readInternalAddress(c)
	if err != nil {
		return nil, err
	}
	response, err := readAddress(c)
	if err != nil {
		return nil, err
	}
	customPayload, err := readMaybeRef(c)
	if err != nil {
		return nil, err
	}
	forwardTonAmount, err := readGrams(c)
	if err != nil {
		return nil, err
	}
	hasPayload, err := readForwardPayload(c)
	if err != nil {
		return nil, err
	}
	if customPayload != nil {
		return nil, errors.Wrap(core.ErrUnsupportedPayload, "transfer custom payload")
	}
	if hasPayload {
		return nil, errors.Wrap(core.ErrUnsupportedPayload, "transfer forward payload")
	}
	return &core.JettonTransfer{
		QueryID:          queryID,
		Amount:           amount,
		To:               to,
		Response:         response,
		ForwardTonAmount: forwardTonAmount,
	}, nil
}

type callTo[T any] struct {
	queryID   uint64
	to        ton.AccountID
	tonAmount uint64
	action    T
}

// parseCallTo parses a minter call_to wrapper and hands its action cell to parseAction.
func parseCallTo[T any](c *boc.Cell, parseAction func(*boc.Cell) (T, error)) (*callTo[T], error) {
	queryID, err := readHeader(c, opCallTo)
	if err != nil {
		return nil, err
	}
	to, err := readInternalAddress(c)
	if err != nil {
		return nil, err
	}
	tonAmount, err := readGrams(c)
	if err != nil {
		return nil, err
	}
	actionCell, err := nextRef(c)
	if err != nil {
		return nil, err
	}
	if err := endParse(c); err != nil {
		return nil, err
	}
	action, err := parseAction(actionCell)
	if err != nil {
		return nil, err
	}
	return &callTo[T]{queryID: queryID, to: to, tonAmount: tonAmount, action: action}, nil
}

func parseSetStatus(c *boc.Cell) (core.LockType, error) {
	if _, err := readHeader(c, opSetStatus); err != nil {
		return 0, err
	}
	status, err := c.ReadUint(4)
	if err != nil {
		return 0, err
	}
	if err := endParse(c); err != nil {
		return 0, err
	}
	if status > uint64(core.LockTypeFull) {
		return 0, errors.Errorf("unknown lock type %d", status)
	}
	return core.LockType(status), nil
}

type burn struct {
	queryID  uint64
	amount   *big.Int
	response *ton.AccountID
}

func parseBurn(c *boc.Cell) (burn, error) {
	queryID, err := readHeader(c, opBurn)
	if err != nil {
		return burn{}, err
	}
	amount, err := readCoins(c)
	if err != nil {
		return burn{}, err
	}
	response, err := readAddress(c)
	if err != nil {
		return burn{}, err
	}
	customPayload, err := readMaybeRef(c)
	if err != nil {
		return burn{}, err
	}
	if err := endParse(c); err != nil {
		return burn{}, err
	}
	if customPayload != nil {
		return burn{}, errors.Wrap(core.ErrUnsupportedPayload, "burn custom payload")
	}
	return burn{queryID: queryID, amount: amount, response: response}, nil
}
