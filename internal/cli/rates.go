package cli

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"

	"kasa-backend/internal/currency"

	"github.com/spf13/cobra"
)

func newRatesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Güncel kurları gösterir",
		Example: `  kasactl rates
  kasactl rates --rates USD:32.5,EUR:35.1 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flag, _ := cmd.Flags().GetString("rates")
			asJSON, _ := cmd.Flags().GetBool("json")

			p, err := e.rateProvider(flag)
			if err != nil {
				return err
			}
			tbl, err := p.Rates(context.Background())
			if err != nil {
				return fmt.Errorf("kurlar alınamadı: %w", err)
			}
			if asJSON {
				return e.printJSON(tbl)
			}
			return printRates(e, tbl)
		},
	}
	cmd.Flags().String("rates", "", "Sabit kurlar (ör. USD:30,EUR:35)")
	cmd.Flags().Bool("json", false, "JSON çıktı")
	return cmd
}

func printRates(e *env, tbl currency.RateTable) error {
	codes := make([]string, 0, len(tbl))
	for c := range tbl {
		codes = append(codes, string(c))
	}
	sort.Strings(codes)

	w := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "DÖVİZ\t%s KARŞILIĞI\n", currency.Base)
	for _, c := range codes {
		fmt.Fprintf(w, "%s\t%s\n", c, tbl[currency.Code(c)].String())
	}
	return w.Flush()
}
