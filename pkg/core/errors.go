package core

import "github.com/go-faster/errors"

var ErrEntityNotFound = errors.New("entity not found")

var (
	ErrNotActive           = errors.New("order contract is not active")
	ErrCodeMismatch        = errors.New("order contract code does not match the order code template")
	ErrMalformedData       = errors.New("malformed order data")
	ErrInvalidThreshold    = errors.New("invalid order threshold")
	ErrInvalidApprovals    = errors.New("invalid number of approvals")
	ErrMultisigMismatch    = errors.New("order belongs to a different multisig")
	ErrAddressMismatch     = errors.New("order address does not match its state init")
	ErrConfigDrift         = errors.New("multisig configuration differs from the order")
	ErrCrossSourceMismatch = errors.New("get-method data differs from storage")
	ErrInvalidUpdateParams = errors.New("invalid multisig parameters update")
	ErrUnsupportedPayload  = errors.New("unsupported payload")
	ErrUnknownActionOpcode = errors.New("unknown action opcode")
	ErrUnsupportedAction   = errors.New("unsupported action")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrNotActive, "NotActive"},
	{ErrCodeMismatch, "CodeMismatch"},
	{ErrMalformedData, "MalformedData"},
	{ErrInvalidThreshold, "InvalidThreshold"},
	{ErrInvalidApprovals, "InvalidApprovals"},
	{ErrMultisigMismatch, "MultisigMismatch"},
	{ErrAddressMismatch, "AddressMismatch"},
	{ErrConfigDrift, "ConfigDrift"},
	{ErrCrossSourceMismatch, "CrossSourceMismatch"},
	{ErrInvalidUpdateParams, "InvalidUpdateParams"},
	{ErrUnsupportedPayload, "UnsupportedPayload"},
	{ErrUnknownActionOpcode, "UnknownActionOpcode"},
	{ErrUnsupportedAction, "UnsupportedAction"},
	{ErrEntityNotFound, "NotFound"},
}

// ErrorKind returns the name of the failure class err belongs to or "Internal".
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "Internal"
}
