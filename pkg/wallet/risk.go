package wallet

import (
	"math/big"

	"github.com/tonkeeper/tongo"
	tongoWallet "github.com/tonkeeper/tongo/wallet"

	"github.com/arnac-io/ordercheck/pkg/core"
)

// ExtractRisk sums up the multisig assets the order's actions would move once executed.
func ExtractRisk(actions []core.Action) *core.Risk {
	risk := core.Risk{
		Jettons: map[tongo.AccountID]big.Int{},
	}
	for _, action := range actions {
		if action.SendMessage == nil {
			continue
		}
		risk = extractRiskFromMessage(*action.SendMessage, risk)
	}
	return &risk
}

func extractRiskFromMessage(m core.SendMessageAction, risk core.Risk) core.Risk {
	mode := int(m.Mode)
	if tongoWallet.IsMessageModeSet(mode, tongoWallet.AttachAllRemainingBalance) {
		risk.TransferAllRemainingBalance = true
	} else {
		risk.Ton += m.Value
	}
	if m.Mode.Has(core.SendModeDestroyAccount) {
		risk.DestroyAccount = true
	}
	if m.Body.Type != core.JettonTransferBody {
		return risk
	}
	// here, destination is a jetton wallet owned by the multisig
	amount := m.Body.JettonTransfer.Amount
	currentJettons := risk.Jettons[m.Destination]
	var total big.Int
	risk.Jettons[m.Destination] = *total.Add(&currentJettons, amount)
	return risk
}
