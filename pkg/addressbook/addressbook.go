package addressbook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tonkeeper/tongo"
	"go.uber.org/zap"
)

// DefaultAddressesURL is the community list of known accounts.
const DefaultAddressesURL = "https://raw.githubusercontent.com/tonkeeper/ton-assets/main/accounts.json"

// KnownAddress represents additional manually crafted information about a particular account in the blockchain.
type KnownAddress struct {
	IsScam      bool   `json:"is_scam,omitempty"`
	RequireMemo bool   `json:"require_memo,omitempty"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Image       string `json:"image,omitempty"`
}

// Book holds names of known accounts, refreshed periodically from a JSON list.
type Book struct {
	mu        sync.RWMutex
	addresses map[tongo.AccountID]KnownAddress
}

func (b *Book) GetAddressInfoByAddress(a tongo.AccountID) (KnownAddress, bool) {
	if b == nil {
		return KnownAddress{}, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	a1, ok := b.addresses[a]
	return a1, ok
}

// NewAddressBook creates a book and keeps it refreshed until ctx is done.
// An empty addressPath gives an empty book.
func NewAddressBook(ctx context.Context, logger *zap.Logger, addressPath string, refreshInterval time.Duration) *Book {
	book := &Book{addresses: make(map[tongo.AccountID]KnownAddress)}
	if addressPath == "" {
		return book
	}
	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			if err := book.refreshAddresses(ctx, addressPath); err != nil {
				logger.Warn("failed to load accounts.json", zap.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return book
}

func (b *Book) refreshAddresses(ctx context.Context, addressPath string) error {
	addresses, err := downloadJson[KnownAddress](ctx, addressPath)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, item := range addresses {
		account, err := tongo.ParseAddress(item.Address)
		if err != nil {
			continue
		}
		item.Address = account.ID.ToRaw()
		b.addresses[account.ID] = item
	}
	return nil
}

func downloadJson[T any](ctx context.Context, url string) ([]T, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	if response.StatusCode >= 300 {
		return nil, fmt.Errorf("invalid status code %v", response.StatusCode)
	}
	content, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	var data []T
	if err = json.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	return data, nil
}
