package app

import (
	"context"
	"time"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"

	"github.com/arnac-io/ordercheck/pkg/addressbook"
	"github.com/arnac-io/ordercheck/pkg/config"
	"github.com/arnac-io/ordercheck/pkg/core"
	"github.com/arnac-io/ordercheck/pkg/litestorage"
	"github.com/arnac-io/ordercheck/pkg/multisig"
	"github.com/arnac-io/ordercheck/pkg/toncenter"
)

const addressBookRefresh = 10 * time.Minute

type source interface {
	GetRawAccount(ctx context.Context, id ton.AccountID) (*core.Account, error)
	GetOrderData(ctx context.Context, id ton.AccountID) (*core.GetMethodObservation, error)
}

// NewReconciler wires both networks from cfg. The address book is refreshed until ctx is done.
func NewReconciler(ctx context.Context, cfg config.Config, log *zap.Logger) (*multisig.Reconciler, error) {
	book := addressbook.NewAddressBook(ctx, log, cfg.App.AddressBookURL, addressBookRefresh)

	mainnet, err := newSource(cfg, log, false)
	if err != nil {
		return nil, err
	}
	testnet, err := newSource(cfg, log, true)
	if err != nil {
		return nil, err
	}
	mainnetFormatter := addressbook.NewFormatter(book, mainnet, false,
		addressbook.WithExplorerURL(cfg.Explorer.MainnetURL))
	testnetFormatter := addressbook.NewFormatter(book, testnet, true,
		addressbook.WithExplorerURL(cfg.Explorer.TestnetURL))

	return multisig.NewReconciler(
		multisig.WithLogger(log),
		multisig.WithMainnet(mainnet, mainnet, mainnetFormatter),
		multisig.WithTestnet(testnet, testnet, testnetFormatter),
	)
}

func newSource(cfg config.Config, log *zap.Logger, testnet bool) (source, error) {
	network := "mainnet"
	if testnet {
		network = "testnet"
	}
	log = log.With(zap.String("network", network))
	if cfg.Sources.AccountSource == config.SourceLite {
		opts := []litestorage.Option{litestorage.WithLiteServers(cfg.Sources.LiteServers)}
		if testnet {
			opts = []litestorage.Option{litestorage.WithTestnet(), litestorage.WithLiteServers(cfg.Sources.TestnetLiteServers)}
		}
		return litestorage.NewLiteStorage(log, opts...)
	}
	url := cfg.Sources.ToncenterMainnetURL
	if testnet {
		url = cfg.Sources.ToncenterTestnetURL
	}
	return toncenter.NewClient(url,
		toncenter.WithAPIKey(cfg.Sources.ToncenterAPIKey),
		toncenter.WithLogger(log)), nil
}
