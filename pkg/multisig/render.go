package multisig

import (
	"context"
	"fmt"
	"html"
	"math/big"
	"strings"

	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/ordercheck/pkg/core"
	"github.com/arnac-io/ordercheck/pkg/i18n"
)

type addressFormatter interface {
	FormatAddress(ctx context.Context, id ton.AccountID) (core.AddressInfo, error)
}

// Renderer turns decoded actions into HTML descriptions.
// Every value taken from the chain is escaped.
type Renderer struct {
	formatter addressFormatter
	lang      string
}

func NewRenderer(formatter addressFormatter, lang string) *Renderer {
	return &Renderer{formatter: formatter, lang: lang}
}

var sendModeFlags = []struct {
	flag core.SendMode
	text string
}{
	{core.SendModePayFeesSeparately, "Pays fees separately"},
	{core.SendModeIgnoreErrors, "Ignore sending errors"},
	{core.SendModeCarryAllBalance, "CARRY ALL BALANCE"},
	{core.SendModeCarryInboundValue, "Carry all the remaining value of the inbound message"},
	{core.SendModeDestroyAccount, "DESTROY ACCOUNT"},
}

// SendModeFlags lists the descriptions of the flags set in mode.
func SendModeFlags(mode core.SendMode) []string {
	var flags []string
	for _, f := range sendModeFlags {
		if mode.Has(f.flag) {
			flags = append(flags, f.text)
		}
	}
	return flags
}

var lockDescriptions = map[core.LockType]string{
	core.LockTypeUnlock: "lockUnlock",
	core.LockTypeOut:    "lockOut",
	core.LockTypeIn:     "lockIn",
	core.LockTypeFull:   "lockFull",
}

func (r *Renderer) Render(ctx context.Context, actions []core.Action) ([]string, error) {
	rendered := make([]string, 0, len(actions))
	for _, action := range actions {
		s, err := r.renderAction(ctx, action)
		if err != nil {
			return nil, err
		}
		rendered = append(rendered, s)
	}
	return rendered, nil
}

func (r *Renderer) t(id string, data i18n.Template) string {
	return i18n.Tf(r.lang, id, data)
}

func div(s string) string {
	return "<div>" + s + "</div>"
}

func (r *Renderer) renderAction(ctx context.Context, action core.Action) (string, error) {
	var b strings.Builder
	b.WriteString(`<div class="label">` + r.t("actionLabel", i18n.Template{"Key": action.Key}) + "</div>")
	switch action.Type {
	case core.ActionSendMessage:
		msg := action.SendMessage
		dest, err := r.address(ctx, msg.Destination)
		if err != nil {
			return "", err
		}
		value := i18n.FromNano(msg.Value)
		if msg.AllBalance {
			value = r.t("allBalance", nil)
		}
		b.WriteString(div(r.t("sendTon", i18n.Template{"Value": value, "Destination": dest})))
		body, err := r.renderBody(ctx, msg.Body)
		if err != nil {
			return "", err
		}
		b.WriteString(div(body))
		if msg.Mode != 0 {
			b.WriteString(div(r.t("sendMode", i18n.Template{"Flags": strings.Join(SendModeFlags(msg.Mode), ", ")})))
		}
	case core.ActionUpdateMultisigParams:
		params := action.UpdateMultisigParams
		b.WriteString(div(r.t("updateParams", nil)))
		b.WriteString(div(r.t("newThreshold", i18n.Template{"Threshold": params.NewThreshold})))
		b.WriteString(div(r.t("newSigners", nil)))
		if err := r.renderList(ctx, &b, params.NewSigners); err != nil {
			return "", err
		}
		b.WriteString(div(r.t("newProposers", nil)))
		if len(params.NewProposers) == 0 {
			b.WriteString(div(r.t("noProposers", nil)))
		}
		if err := r.renderList(ctx, &b, params.NewProposers); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unknown action type %q", action.Type)
	}
	return b.String(), nil
}

func (r *Renderer) renderList(ctx context.Context, b *strings.Builder, accounts []ton.AccountID) error {
	for i, account := range accounts {
		s, err := r.address(ctx, account)
		if err != nil {
			return err
		}
		b.WriteString(div(fmt.Sprintf("#%d - %s", i+1, s)))
	}
	return nil
}

func (r *Renderer) renderBody(ctx context.Context, body core.MessageBody) (string, error) {
	switch body.Type {
	case core.EmptyBody:
		return r.t("bodyEmpty", nil), nil
	case core.TextCommentBody:
		return r.t("bodyComment", i18n.Template{"Comment": html.EscapeString(body.TextComment.Text)}), nil
	case core.JettonMintBody:
		mint := body.JettonMint
		to, err := r.address(ctx, mint.To)
		if err != nil {
			return "", err
		}
		return r.t("bodyMint", i18n.Template{
			"Amount": amount(mint.JettonAmount),
			"To":     to,
			"Ton":    i18n.FromNano(mint.TonAmount),
		}), nil
	case core.JettonTopUpBody:
		return r.t("bodyTopUp", nil), nil
	case core.JettonChangeAdminBody:
		admin, err := r.address(ctx, body.JettonChangeAdmin.NewAdmin)
		if err != nil {
			return "", err
		}
		return r.t("bodyChangeAdmin", i18n.Template{"Admin": admin}), nil
	case core.JettonClaimAdminBody:
		return r.t("bodyClaimAdmin", nil), nil
	case core.JettonChangeContentBody:
		return r.t("bodyChangeContent", i18n.Template{"URL": html.EscapeString(body.JettonChangeContent.NewMetadataURL)}), nil
	case core.JettonTransferBody:
		transfer := body.JettonTransfer
		to, err := r.address(ctx, transfer.To)
		if err != nil {
			return "", err
		}
		return r.t("bodyTransfer", i18n.Template{"Amount": amount(transfer.Amount), "To": to}), nil
	case core.JettonForceSetStatusBody:
		status := body.JettonForceSetStatus
		user, err := r.address(ctx, status.User)
		if err != nil {
			return "", err
		}
		return r.t("bodyForceSetStatus", i18n.Template{
			"User":        user,
			"Status":      status.Status.String(),
			"Description": r.t(lockDescriptions[status.Status], nil),
			"Ton":         i18n.FromNano(status.TonAmount),
		}), nil
	case core.JettonForceTransferBody:
		force := body.JettonForceTransfer
		from, err := r.address(ctx, force.From)
		if err != nil {
			return "", err
		}
		to, err := r.address(ctx, force.Transfer.To)
		if err != nil {
			return "", err
		}
		return r.t("bodyForceTransfer", i18n.Template{
			"Amount": amount(force.Transfer.Amount),
			"From":   from,
			"To":     to,
			"Ton":    i18n.FromNano(force.TonAmount),
		}), nil
	case core.JettonForceBurnBody:
		burn := body.JettonForceBurn
		user, err := r.address(ctx, burn.User)
		if err != nil {
			return "", err
		}
		return r.t("bodyForceBurn", i18n.Template{
			"Amount": amount(burn.Amount),
			"User":   user,
			"Ton":    i18n.FromNano(burn.TonAmount),
		}), nil
	}
	return "", fmt.Errorf("unknown message body %q", body.Type)
}

// address renders an explorer link for id, prefixed with its known name.
func (r *Renderer) address(ctx context.Context, id ton.AccountID) (string, error) {
	info, err := r.formatter.FormatAddress(ctx, id)
	if err != nil {
		return "", err
	}
	return AddressHTML(info), nil
}

func AddressHTML(info core.AddressInfo) string {
	link := fmt.Sprintf(`<a href="%s" target="_blank">%s</a>`, html.EscapeString(info.URL), html.EscapeString(info.Friendly))
	if info.Name == "" {
		return link
	}
	return html.EscapeString(info.Name) + " " + link
}

func amount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
