package api

import (
	"math/big"
	"strings"

	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/arnac-io/ordercheck/internal/g"
	"github.com/arnac-io/ordercheck/pkg/core"
	"github.com/arnac-io/ordercheck/pkg/i18n"
	"github.com/arnac-io/ordercheck/pkg/multisig"
)

type CheckOrderRequest struct {
	OrderAddress string          `json:"order_address"`
	OrderCode    string          `json:"order_code,omitempty"`
	Multisig     MultisigRequest `json:"multisig"`
	Testnet      bool            `json:"testnet"`
	DeepCheck    bool            `json:"deep_check"`
}

type MultisigRequest struct {
	Address   string   `json:"address"`
	Threshold int      `json:"threshold"`
	Signers   []string `json:"signers"`
}

type Address struct {
	Raw        string `json:"raw"`
	Friendly   string `json:"friendly"`
	Bounceable bool   `json:"bounceable"`
	URL        string `json:"url"`
	Name       string `json:"name,omitempty"`
}

type Action struct {
	Key  uint8  `json:"key"`
	Type string `json:"type"`
	HTML string `json:"html"`
}

type JettonRisk struct {
	Wallet string `json:"wallet"`
	Amount string `json:"amount"`
}

type Risk struct {
	TransferAllRemainingBalance bool         `json:"transfer_all_remaining_balance"`
	DestroyAccount              bool         `json:"destroy_account"`
	Ton                         uint64       `json:"ton"`
	Jettons                     []JettonRisk `json:"jettons"`
}

type OrderInfo struct {
	Address          Address   `json:"address"`
	TonBalance       int64     `json:"ton_balance"`
	OrderID          string    `json:"order_id"`
	IsExecuted       bool      `json:"is_executed"`
	ApprovalsNum     int       `json:"approvals_num"`
	ApprovalsMask    string    `json:"approvals_mask"`
	Threshold        int       `json:"threshold"`
	Signers          []Address `json:"signers"`
	ExpiresAt        int64     `json:"expires_at"`
	Actions          []Action  `json:"actions"`
	Risk             *Risk     `json:"risk,omitempty"`
	StateInitMatches bool      `json:"state_init_matches"`
}

type errorJSON struct {
	Error   string   `json:"error"`
	Kind    string   `json:"kind"`
	Details string   `json:"details,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

func parseAccountID(field, s string) (ton.AccountID, error) {
	id, err := ton.ParseAccountID(strings.TrimSpace(s))
	if err != nil {
		return ton.AccountID{}, errors.Wrapf(err, "%s", field)
	}
	return id, nil
}

// ConvertCheckParams validates a request and falls back to defaultCode when it has no order code.
func ConvertCheckParams(req CheckOrderRequest, defaultCode *boc.Cell, lang string) (multisig.CheckParams, error) {
	order, err := parseAccountID("order_address", req.OrderAddress)
	if err != nil {
		return multisig.CheckParams{}, err
	}
	multisigAddress, err := parseAccountID("multisig.address", req.Multisig.Address)
	if err != nil {
		return multisig.CheckParams{}, err
	}
	signers := make([]ton.AccountID, 0, len(req.Multisig.Signers))
	for i, s := range req.Multisig.Signers {
		signer, err := parseAccountID("multisig.signers", s)
		if err != nil {
			return multisig.CheckParams{}, errors.Wrapf(err, "#%d", i)
		}
		signers = append(signers, signer)
	}
	code := defaultCode
	if req.OrderCode != "" {
		cells, err := boc.DeserializeBocBase64(req.OrderCode)
		if err != nil {
			return multisig.CheckParams{}, errors.Wrap(err, "order_code")
		}
		if len(cells) != 1 {
			return multisig.CheckParams{}, errors.New("order_code: expected one root cell")
		}
		code = cells[0]
	}
	if code == nil {
		return multisig.CheckParams{}, errors.New("order_code is required")
	}
	return multisig.CheckParams{
		Order:     order,
		OrderCode: code,
		Multisig: core.MultisigContext{
			Address:   multisigAddress,
			Threshold: req.Multisig.Threshold,
			Signers:   signers,
		},
		Testnet:   req.Testnet,
		DeepCheck: req.DeepCheck,
		Lang:      lang,
	}, nil
}

func convertAddress(a core.AddressInfo) Address {
	return Address{
		Raw:        a.Address.ToRaw(),
		Friendly:   a.Friendly,
		Bounceable: a.Bounceable,
		URL:        a.URL,
		Name:       a.Name,
	}
}

func convertRisk(r core.Risk) Risk {
	risk := Risk{
		TransferAllRemainingBalance: r.TransferAllRemainingBalance,
		DestroyAccount:              r.DestroyAccount,
		Ton:                         r.Ton,
		Jettons:                     make([]JettonRisk, 0, len(r.Jettons)),
	}
	wallets := maps.Keys(r.Jettons)
	slices.SortFunc(wallets, func(a, b ton.AccountID) int {
		return strings.Compare(a.ToRaw(), b.ToRaw())
	})
	for _, wallet := range wallets {
		amount := r.Jettons[wallet]
		risk.Jettons = append(risk.Jettons, JettonRisk{Wallet: wallet.ToRaw(), Amount: amount.String()})
	}
	return risk
}

func ConvertOrderInfo(info *core.OrderInfo) OrderInfo {
	res := OrderInfo{
		Address:          convertAddress(info.Address),
		TonBalance:       info.TonBalance,
		OrderID:          bigString(info.OrderID),
		IsExecuted:       info.IsExecuted,
		ApprovalsNum:     info.ApprovalsNum,
		ApprovalsMask:    bigString(info.ApprovalsMask),
		Threshold:        info.Threshold,
		Signers:          make([]Address, 0, len(info.Signers)),
		ExpiresAt:        info.ExpiresAt.Unix(),
		Actions:          make([]Action, 0, len(info.Actions)),
		Risk:             g.NilToNil(convertRisk, info.Risk),
		StateInitMatches: info.StateInitMatches,
	}
	for _, s := range info.Signers {
		res.Signers = append(res.Signers, convertAddress(s))
	}
	for i, html := range info.Actions {
		action := Action{HTML: html}
		if i < len(info.DecodedActions) {
			action.Key = info.DecodedActions[i].Key
			action.Type = string(info.DecodedActions[i].Type)
		}
		res.Actions = append(res.Actions, action)
	}
	return res
}

func convertError(err error, lang string) errorJSON {
	kind := core.ErrorKind(err)
	res := errorJSON{
		Error:   i18n.T(lang, i18n.C{MessageID: "err" + kind}),
		Kind:    kind,
		Details: err.Error(),
	}
	var crossSource *multisig.CrossSourceError
	if errors.As(err, &crossSource) {
		res.Fields = crossSource.Fields
	}
	return res
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
