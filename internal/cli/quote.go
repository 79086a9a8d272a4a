package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"kasa-backend/internal/sale"

	"github.com/spf13/cobra"
)

func newQuoteCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Satış toplamını ve ödeme durumunu çevrimdışı hesaplar",
		Long: `JSON dosyasındaki satırlar, masraflar ve ödemeler için fatura toplamını
ve mutabakatı hesaplar. Hiçbir kayıt yazılmaz.

Dosya biçimi: {"items": [...], "expenses": [...], "payments": [...]}`,
		Example: `  kasactl quote --file satis.json --rates USD:30,EUR:35`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			flag, _ := cmd.Flags().GetString("rates")
			if path == "" {
				return errors.New("--file zorunlu")
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			var req sale.QuoteRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("%s çözülemedi: %w", path, err)
			}

			p, err := e.rateProvider(flag)
			if err != nil {
				return err
			}
			tbl, err := p.Rates(context.Background())
			if err != nil {
				return fmt.Errorf("kurlar alınamadı: %w", err)
			}

			sum, err := sale.Quote(sale.Draft{Items: req.Items, Expenses: req.Expenses}, req.Payments, tbl)
			if err != nil {
				return err
			}
			return e.printJSON(sum)
		},
	}
	cmd.Flags().StringP("file", "f", "", "Satış JSON dosyası")
	cmd.Flags().String("rates", "", "Sabit kurlar (ör. USD:30,EUR:35)")
	return cmd
}
