package wallet

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo"

	"github.com/arnac-io/ordercheck/pkg/core"
)

func TestExtractRisk(t *testing.T) {
	jettonWallet := tongo.MustParseAccountID("0:96ac9b952d050f79c07a2e5e0b94872a5bc189f8633882ac33ea82f5f9670a38")
	user := tongo.MustParseAccountID("0:120ecd442f6521f9951e37f15180e3f0baa4d0776a69a669b25f4c58acfe0653")
	transfer := func(amount int64) core.MessageBody {
		return core.MessageBody{
			Type:           core.JettonTransferBody,
			JettonTransfer: &core.JettonTransfer{Amount: big.NewInt(amount), To: user},
		}
	}
	tests := []struct {
		name    string
		actions []core.Action
		want    *core.Risk
	}{
		{
			name: "transfer ton",
			actions: []core.Action{
				{Type: core.ActionSendMessage, SendMessage: &core.SendMessageAction{
					Mode: 3, Destination: user, Value: 3_000_000_000, Body: core.MessageBody{Type: core.EmptyBody},
				}},
			},
			want: &core.Risk{
				Ton:     3_000_000_000,
				Jettons: map[tongo.AccountID]big.Int{},
			},
		},
		{
			name: "transfer jettons twice",
			actions: []core.Action{
				{Type: core.ActionSendMessage, SendMessage: &core.SendMessageAction{
					Mode: 1, Destination: jettonWallet, Value: 50_000_000, Body: transfer(1_000),
				}},
				{Type: core.ActionSendMessage, SendMessage: &core.SendMessageAction{
					Mode: 1, Destination: jettonWallet, Value: 50_000_000, Body: transfer(794_099),
				}},
			},
			want: &core.Risk{
				Ton: 100_000_000,
				Jettons: map[tongo.AccountID]big.Int{
					jettonWallet: *big.NewInt(795_099),
				},
			},
		},
		{
			name: "carry all balance and destroy",
			actions: []core.Action{
				{Type: core.ActionSendMessage, SendMessage: &core.SendMessageAction{
					Mode: 160, Destination: user, AllBalance: true, Body: core.MessageBody{Type: core.EmptyBody},
				}},
			},
			want: &core.Risk{
				TransferAllRemainingBalance: true,
				DestroyAccount:              true,
				Jettons:                     map[tongo.AccountID]big.Int{},
			},
		},
		{
			name: "update params moves nothing",
			actions: []core.Action{
				{Type: core.ActionUpdateMultisigParams, UpdateMultisigParams: &core.UpdateMultisigParamsAction{
					NewThreshold: 1, NewSigners: []tongo.AccountID{user},
				}},
			},
			want: &core.Risk{
				Jettons: map[tongo.AccountID]big.Int{},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk := ExtractRisk(tt.actions)
			require.Equal(t, tt.want, risk)
		})
	}
}
