package config

import (
	"encoding/hex"
	"fmt"
	"log"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/config"
)

const (
	SourceToncenter = "toncenter"
	SourceLite      = "lite"
)

type Config struct {
	API struct {
		Port             int    `env:"PORT" envDefault:"8081"`
		// RateLimit is the number of checks per second allowed for a single client.
		RateLimit        uint64 `env:"RATE_LIMIT" envDefault:"5"`
		NotActiveRetries uint   `env:"NOT_ACTIVE_RETRIES" envDefault:"3"`
	}
	App struct {
		LogLevel       string  `env:"LOG_LEVEL" envDefault:"INFO"`
		MetricsPort    int     `env:"METRICS_PORT" envDefault:"9010"`
		OrderCode      bocCell `env:"ORDER_CODE"`
		AddressBookURL string  `env:"ADDRESS_BOOK_URL" envDefault:"https://raw.githubusercontent.com/tonkeeper/ton-assets/main/accounts.json"`
	}
	Sources struct {
		AccountSource       string              `env:"ACCOUNT_SOURCE" envDefault:"toncenter"`
		ToncenterAPIKey     string              `env:"TONCENTER_API_KEY"`
		ToncenterMainnetURL string              `env:"TONCENTER_MAINNET_URL" envDefault:"https://toncenter.com/api"`
		ToncenterTestnetURL string              `env:"TONCENTER_TESTNET_URL" envDefault:"https://testnet.toncenter.com/api"`
		LiteServers         []config.LiteServer `env:"LITE_SERVERS"`
		TestnetLiteServers  []config.LiteServer `env:"TESTNET_LITE_SERVERS"`
	}
	Explorer struct {
		MainnetURL string `env:"EXPLORER_MAINNET_URL" envDefault:"https://tonviewer.com/"`
		TestnetURL string `env:"EXPLORER_TESTNET_URL" envDefault:"https://testnet.tonviewer.com/"`
	}
}

// bocCell is a single-root BOC given in base64 or hex.
type bocCell []*boc.Cell

// Cell returns the parsed root cell or nil when the variable is unset.
func (c bocCell) Cell() *boc.Cell {
	if len(c) == 0 {
		return nil
	}
	return c[0]
}

// ParseCell decodes a single-root BOC encoded as base64 or hex.
func ParseCell(s string) (*boc.Cell, error) {
	s = strings.TrimSpace(s)
	var cells []*boc.Cell
	var err error
	if raw, hexErr := hex.DecodeString(s); hexErr == nil {
		cells, err = boc.DeserializeBoc(raw)
	} else {
		cells, err = boc.DeserializeBocBase64(s)
	}
	if err != nil {
		return nil, err
	}
	if len(cells) != 1 {
		return nil, fmt.Errorf("expected one root cell, got %d", len(cells))
	}
	return cells[0], nil
}

var parsers = map[reflect.Type]env.ParserFunc{
	reflect.TypeOf([]config.LiteServer{}): func(v string) (interface{}, error) {
		servers, err := config.ParseLiteServersEnvVar(v)
		if err != nil {
			return nil, err
		}
		return servers, nil
	},
	reflect.TypeOf(bocCell{}): func(v string) (interface{}, error) {
		cell, err := ParseCell(v)
		if err != nil {
			return nil, err
		}
		return bocCell{cell}, nil
	},
}

func Parse() (Config, error) {
	var c Config
	if err := env.ParseWithFuncs(&c, parsers); err != nil {
		return Config{}, err
	}
	switch c.Sources.AccountSource {
	case SourceToncenter, SourceLite:
	default:
		return Config{}, fmt.Errorf("unknown ACCOUNT_SOURCE %q", c.Sources.AccountSource)
	}
	return c, nil
}

func Load() Config {
	c, err := Parse()
	if err != nil {
		log.Panicf("[‼️  Config parsing failed] %+v\n", err)
	}
	return c
}
