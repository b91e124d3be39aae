package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/arnac-io/ordercheck/pkg/api"
	"github.com/arnac-io/ordercheck/pkg/app"
	"github.com/arnac-io/ordercheck/pkg/config"
	"github.com/arnac-io/ordercheck/pkg/core"
	"github.com/arnac-io/ordercheck/pkg/i18n"
)

var checkFlags struct {
	request    api.CheckOrderRequest
	lang       string
	retries    uint
	retryDelay time.Duration
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&checkFlags.request.OrderAddress, "order", "", "order contract address")
	f.StringVar(&checkFlags.request.Multisig.Address, "multisig", "", "multisig wallet address")
	f.IntVar(&checkFlags.request.Multisig.Threshold, "threshold", 0, "current multisig threshold")
	f.StringSliceVar(&checkFlags.request.Multisig.Signers, "signers", nil, "current multisig signers in order")
	f.StringVar(&checkFlags.request.OrderCode, "order-code", "", "base64 BOC of the order code, ORDER_CODE is used when empty")
	f.BoolVar(&checkFlags.request.Testnet, "testnet", false, "use testnet")
	f.BoolVar(&checkFlags.request.DeepCheck, "deep", false, "compare storage with get_order_data")
	f.StringVar(&checkFlags.lang, "lang", "en", "rendering language (en, ru)")
	f.UintVar(&checkFlags.retries, "retries", 3, "retries while the order is not active")
	f.DurationVar(&checkFlags.retryDelay, "retry-delay", 10*time.Second, "delay between retries")
	for _, name := range []string{"order", "multisig", "threshold", "signers"} {
		checkCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check an order and print it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Parse()
		if err != nil {
			return errors.Wrap(err, "config")
		}
		log := app.Logger(logLevel)
		defer log.Sync()

		params, err := api.ConvertCheckParams(checkFlags.request, cfg.App.OrderCode.Cell(), checkFlags.lang)
		if err != nil {
			return err
		}
		reconciler, err := app.NewReconciler(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		info, err := api.CheckWithRetry(cmd.Context(), log, reconciler, params, checkFlags.retries, checkFlags.retryDelay)
		if err != nil {
			return errors.Errorf("%s: %w", i18n.Tf(checkFlags.lang, "err"+core.ErrorKind(err), nil), err)
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(api.ConvertOrderInfo(info))
	},
}
