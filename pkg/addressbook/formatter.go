package addressbook

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/ordercheck/pkg/cache"
	"github.com/arnac-io/ordercheck/pkg/core"
	"github.com/arnac-io/ordercheck/pkg/wallet"
)

const (
	DefaultMainnetExplorer = "https://tonviewer.com/"
	DefaultTestnetExplorer = "https://testnet.tonviewer.com/"
)

type accountSource interface {
	GetRawAccount(ctx context.Context, address ton.AccountID) (*core.Account, error)
}

type namer interface {
	GetAddressInfoByAddress(a ton.AccountID) (KnownAddress, bool)
}

// Formatter turns raw addresses into user-facing forms.
// Wallets and accounts without deployed code use the non-bounceable form, everything else is bounceable.
type Formatter struct {
	names       namer
	accounts    accountSource
	testnet     bool
	explorerURL string
	cache       *cache.Cache[ton.AccountID, core.AddressInfo]
}

type FormatterOption func(f *Formatter)

func WithExplorerURL(url string) FormatterOption {
	return func(f *Formatter) {
		f.explorerURL = url
	}
}

func WithCache(size int, ttl time.Duration) FormatterOption {
	return func(f *Formatter) {
		f.cache = cache.NewLRUCache[ton.AccountID, core.AddressInfo](size, ttl, "address_formatter")
	}
}

func NewFormatter(names namer, accounts accountSource, testnet bool, opts ...FormatterOption) *Formatter {
	f := &Formatter{
		names:       names,
		accounts:    accounts,
		testnet:     testnet,
		explorerURL: DefaultMainnetExplorer,
	}
	if testnet {
		f.explorerURL = DefaultTestnetExplorer
	}
	for _, o := range opts {
		o(f)
	}
	if f.cache == nil {
		f.cache = cache.NewLRUCache[ton.AccountID, core.AddressInfo](10_000, 10*time.Minute, "address_formatter")
	}
	return f
}

func (f *Formatter) FormatAddress(ctx context.Context, id ton.AccountID) (core.AddressInfo, error) {
	if info, ok := f.cache.Get(id); ok {
		return info, nil
	}
	bounceable, err := f.bounceable(ctx, id)
	if err != nil {
		return core.AddressInfo{}, errors.Wrapf(err, "format %s", id.ToRaw())
	}
	friendly := id.ToHuman(bounceable, f.testnet)
	info := core.AddressInfo{
		Address:    id,
		Friendly:   friendly,
		Bounceable: bounceable,
		Testnet:    f.testnet,
		URL:        f.explorerURL + friendly,
	}
	if known, ok := f.names.GetAddressInfoByAddress(id); ok {
		info.Name = known.Name
	}
	f.cache.Set(id, info)
	return info, nil
}

func (f *Formatter) bounceable(ctx context.Context, id ton.AccountID) (bool, error) {
	account, err := f.accounts.GetRawAccount(ctx, id)
	if errors.Is(err, core.ErrEntityNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if account.Status != tlb.AccountActive {
		return false, nil
	}
	return !wallet.IsWallet(account.Code), nil
}
