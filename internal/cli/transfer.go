package cli

import (
	"context"
	"errors"
	"fmt"

	"kasa-backend/internal/auth"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/events"
	"kasa-backend/internal/logger"
	"kasa-backend/internal/vault"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newTransferCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "İki kasa arasında virman yapar",
		Long: `Kaynak kasadan çıkış, hedef kasaya giriş hareketi yazar. Giriş yazılamazsa
kaynak kasaya iade hareketi yazılır ve son durum raporlanır.`,
		Example: `  kasactl transfer --from 1 --to 2 --amount 100
  kasactl transfer --from 1 --to 5 --amount 100 --convert --description "USD kasaya aktarım"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := transferRequestFromFlags(cmd)
			if err != nil {
				return err
			}
			ratesFlag, _ := cmd.Flags().GetString("rates")
			actor, _ := cmd.Flags().GetString("actor")

			src, err := e.open(e.cfg)
			if err != nil {
				return err
			}

			var tbl currency.RateTable
			if req.ConvertIfNeeded {
				p := src.rates
				if ratesFlag != "" || e.cfg.StaticRates != "" {
					if p, err = e.rateProvider(ratesFlag); err != nil {
						return err
					}
				}
				if tbl, err = p.Rates(context.Background()); err != nil {
					return fmt.Errorf("kurlar alınamadı: %w", err)
				}
			}

			o := vault.NewOrchestrator(src.vaults, src.vaults, events.Nop{}, logger.WithComponent("vault"))
			ctx := context.Background()
			res, err := o.Transfer(ctx, req, tbl)
			o.Audit(ctx, src.audit, auth.Identity{Name: actor}, res, err)
			if te, ok := vault.IsTransferError(err); ok {
				_ = e.printJSON(vault.TransferErrorResponse{
					Error:      te.Error(),
					Ref:        te.Ref,
					State:      te.State,
					DebitID:    res.DebitID,
					ReversalID: res.ReversalID,
				})
				return err
			}
			if err != nil {
				return err
			}
			return e.printJSON(res)
		},
	}
	cmd.Flags().Uint("from", 0, "Kaynak kasa id")
	cmd.Flags().Uint("to", 0, "Hedef kasa id")
	cmd.Flags().String("amount", "", "Tutar (kaynak kasa para biriminde)")
	cmd.Flags().Bool("convert", false, "Para birimi farklıysa kurla çevir")
	cmd.Flags().String("description", "", "Açıklama")
	cmd.Flags().String("rates", "", "Sabit kurlar (ör. USD:30,EUR:35)")
	cmd.Flags().String("actor", "kasactl", "Audit kaydında görünecek kullanıcı adı")
	return cmd
}

func transferRequestFromFlags(cmd *cobra.Command) (vault.TransferRequest, error) {
	from, _ := cmd.Flags().GetUint("from")
	to, _ := cmd.Flags().GetUint("to")
	amountStr, _ := cmd.Flags().GetString("amount")
	convert, _ := cmd.Flags().GetBool("convert")
	desc, _ := cmd.Flags().GetString("description")

	if from == 0 || to == 0 {
		return vault.TransferRequest{}, errors.New("--from ve --to zorunlu")
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return vault.TransferRequest{}, fmt.Errorf("--amount geçersiz: %w", err)
	}

	return vault.TransferRequest{
		SourceID:        from,
		TargetID:        to,
		Amount:          amount,
		ConvertIfNeeded: convert,
		Description:     desc,
	}, nil
}
