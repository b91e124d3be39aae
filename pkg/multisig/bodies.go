package multisig

import (
	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"

	"github.com/arnac-io/ordercheck/pkg/core"
)

// bodyMatcher recognizes one kind of message body. It returns a nil body to
// decline. An error wrapping core.ErrUnsupportedPayload stops the chain, any
// other error is a decline.
type bodyMatcher struct {
	name  core.MessageBodyType
	match func(c *boc.Cell) (*core.MessageBody, error)
}

// bodyMatchers are tried in order, each one on a fresh cursor.
var bodyMatchers = []bodyMatcher{
	{core.EmptyBody, matchEmpty},
	{core.TextCommentBody, matchTextComment},
	{core.JettonMintBody, matchMint},
	{core.JettonTopUpBody, matchTopUp},
	{core.JettonChangeAdminBody, matchChangeAdmin},
	{core.JettonClaimAdminBody, matchClaimAdmin},
	{core.JettonChangeContentBody, matchChangeContent},
	{core.JettonTransferBody, matchTransfer},
	{core.JettonForceSetStatusBody, matchForceSetStatus},
	{core.JettonForceTransferBody, matchForceTransfer},
	{core.JettonForceBurnBody, matchForceBurn},
}

func decodeBody(body *boc.Cell) (*core.MessageBody, error) {
	for _, m := range bodyMatchers {
		body.ResetCounters()
		res, err := m.match(body)
		if errors.Is(err, core.ErrUnsupportedPayload) {
			return nil, err
		}
		if err != nil || res == nil {
			continue
		}
		return res, nil
	}
	return nil, core.ErrUnsupportedAction
}

func matchEmpty(c *boc.Cell) (*core.MessageBody, error) {
	if !isEmpty(c) {
		return nil, nil
	}
	return &core.MessageBody{Type: core.EmptyBody}, nil
}

func matchTextComment(c *boc.Cell) (*core.MessageBody, error) {
	op, err := c.ReadUint(32)
	if err != nil || op != 0 {
		return nil, err
	}
	text, err := readStringTail(c)
	if err != nil {
		return nil, err
	}
	return &core.MessageBody{Type: core.TextCommentBody, TextComment: &core.TextComment{Text: text}}, nil
}

func matchMint(c *boc.Cell) (*core.MessageBody, error) {
	mint, err := parseMint(c)
	if err != nil {
		return nil, err
	}
	return &core.MessageBody{Type: core.JettonMintBody, JettonMint: mint}, nil
}

func matchTopUp(c *boc.Cell) (*core.MessageBody, error) {
	if err := parseQueryOnly(c, opTopUp); err != nil {
		return nil, err
	}
	return &core.MessageBody{Type: core.JettonTopUpBody}, nil
}

func matchChangeAdmin(c *boc.Cell) (*core.MessageBody, error) {
	msg, err := parseChangeAdmin(c)
	if err != nil {
		return nil, err
	}
	return &core.MessageBody{Type: core.JettonChangeAdminBody, JettonChangeAdmin: msg}, nil
}

func matchClaimAdmin(c *boc.Cell) (*core.MessageBody, error) {
	if err := parseQueryOnly(c, opClaimAdmin); err != nil {
		return nil, err
	}
	return &core.MessageBody{Type: core.JettonClaimAdminBody}, nil
}

func matchChangeContent(c *boc.Cell) (*core.MessageBody, error) {
	msg, err := parseChangeContent(c)
	if err != nil {
		return nil, err
	}
	return &core.MessageBody{Type: core.JettonChangeContentBody, JettonChangeContent: msg}, nil
}

func matchTransfer(c *boc.Cell) (*core.MessageBody, error) {
	msg, err := parseTransfer(c)
	if err != nil {
		return nil, err
	}
	return &core.MessageBody{Type: core.JettonTransferBody, JettonTransfer: msg}, nil
}

func matchForceSetStatus(c *boc.Cell) (*core.MessageBody, error) {
	call, err := parseCallTo(c, parseSetStatus)
	if err != nil {
		return nil, err
	}
	return &core.MessageBody{
		Type: core.JettonForceSetStatusBody,
		JettonForceSetStatus: &core.JettonForceSetStatus{
			QueryID:   call.queryID,
			User:      call.to,
			TonAmount: call.tonAmount,
			Status:    call.action,
		},
	}, nil
}

func matchForceTransfer(c *boc.Cell) (*core.MessageBody, error) {
	call, err := parseCallTo(c, parseTransfer)
	if err != nil {
		return nil, err
	}
	return &core.MessageBody{
		Type: core.JettonForceTransferBody,
		JettonForceTransfer: &core.JettonForceTransfer{
			QueryID:   call.queryID,
			From:      call.to,
			TonAmount: call.tonAmount,
			Transfer:  *call.action,
		},
	}, nil
}

func matchForceBurn(c *boc.Cell) (*core.MessageBody, error) {
	call, err := parseCallTo(c, parseBurn)
	if err != nil {
		return nil, err
	}
	return &core.MessageBody{
		Type: core.JettonForceBurnBody,
		JettonForceBurn: &core.JettonForceBurn{
			QueryID:   call.queryID,
			User:      call.to,
			TonAmount: call.tonAmount,
			Amount:    call.action.amount,
			Response:  call.action.response,
		},
	}, nil
}
