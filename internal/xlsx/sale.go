package xlsx

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"kasa-backend/internal/currency"
	"kasa-backend/internal/invoice"
	"kasa-backend/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SaleSheet satış özetinin dışa aktarılan hali.
type SaleSheet struct {
	Title     string
	Items     []invoice.LineItem
	Expenses  []invoice.ExpenseItem
	Totals    invoice.Totals
	Payments  []payment.Record
	TotalPaid decimal.Decimal
	Remaining decimal.Decimal
}

// WriteSale "Satırlar" ve "Tahsilat" sayfalarından oluşan dosya yazar.
func WriteSale(w io.Writer, s SaleSheet) error {
	f := excelize.NewFile()
	defer f.Close()

	const lines, pays = "Satırlar", "Tahsilat"
	if err := f.SetSheetName("Sheet1", lines); err != nil {
		return err
	}
	if _, err := f.NewSheet(pays); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Kod", "Miktar", "Birim Fiyat", "KDV %", "İskonto %", "İskonto", "KDV", "Toplam", "Para Birimi"},
	}
	for _, it := range s.Items {
		rows = append(rows, []interface{}{
			it.ID,
			it.Quantity.InexactFloat64(),
			it.UnitPrice.InexactFloat64(),
			it.VATRate.InexactFloat64(),
			it.DiscountRate.InexactFloat64(),
			money(it.DiscountAmount()),
			money(it.VATAmount()),
			money(it.TotalAmount()),
			string(it.Currency),
		})
	}
	for _, e := range s.Expenses {
		rows = append(rows, []interface{}{"Masraf " + e.ID, "", "", "", "", "", "", money(e.Price), string(e.Currency)})
	}
	cur := string(s.Totals.Currency)
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"Ara Toplam", "", "", "", "", "", "", money(s.Totals.Subtotal), cur},
		[]interface{}{"İskonto", "", "", "", "", "", "", money(s.Totals.DiscountTotal), cur},
		[]interface{}{"KDV", "", "", "", "", "", "", money(s.Totals.VATTotal), cur},
		[]interface{}{"Masraflar", "", "", "", "", "", "", money(s.Totals.TotalExpenses), string(invoice.ExpenseCurrency)},
		[]interface{}{"Genel Toplam", "", "", "", "", "", "", money(s.Totals.GrandTotal), cur},
	)
	if err := writeRows(f, lines, rows); err != nil {
		return err
	}

	prow := [][]interface{}{{"Yöntem", "Hesap", "Tutar", "Para Birimi", "Açıklama"}}
	for _, p := range s.Payments {
		prow = append(prow, []interface{}{string(p.Method), p.AccountID, money(p.Amount), string(p.Currency), p.Description})
	}
	prow = append(prow,
		[]interface{}{},
		[]interface{}{"Tahsil Edilen", "", money(s.TotalPaid), cur},
		[]interface{}{"Kalan", "", money(s.Remaining), cur},
	)
	if err := writeRows(f, pays, prow); err != nil {
		return err
	}

	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	return boldRow(f, sheet, 1)
}

func money(d decimal.Decimal) float64 {
	return currency.Round(d).InexactFloat64()
}

// ReadLineItems "Kod | Miktar | Birim Fiyat | KDV % | İskonto % | Para Birimi" sütunlu ilk sayfayı okur.
// Başlık satırı varsa atlanır; para birimi boşsa def kullanılır.
func ReadLineItems(r io.Reader, def currency.Code) ([]invoice.LineItem, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("Excel dosyası okunamadı: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel dosyasında sayfa bulunamadı")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("sayfa okunamadı: %w", err)
	}

	var items []invoice.LineItem
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		if i == 0 && !isNumber(cellAt(row, 1)) {
			continue
		}
		num := func(col int) (decimal.Decimal, error) {
			return numberAt(f, sheets[0], row, i, col)
		}

		qty, err := num(1)
		if err != nil {
			return nil, fmt.Errorf("satır %d miktar: %w", i+1, err)
		}
		price, err := num(2)
		if err != nil {
			return nil, fmt.Errorf("satır %d birim fiyat: %w", i+1, err)
		}
		vat, err := num(3)
		if err != nil {
			return nil, fmt.Errorf("satır %d KDV: %w", i+1, err)
		}
		disc, err := num(4)
		if err != nil {
			return nil, fmt.Errorf("satır %d iskonto: %w", i+1, err)
		}
		cur := def
		if s := cellAt(row, 5); s != "" {
			if cur, err = currency.Parse(s); err != nil {
				return nil, fmt.Errorf("satır %d: %w", i+1, err)
			}
		}

		items = append(items, invoice.LineItem{
			ID:           cellAt(row, 0),
			Quantity:     qty,
			UnitPrice:    price,
			VATRate:      vat,
			DiscountRate: disc,
			Currency:     cur,
		})
	}
	return items, nil
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// Virgülsüz, yalnız binlik ayraçlı yazım: "1.234", "12.345.678"
var thousandsOnly = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// numberAt sayı hücresini Excel'in gösterdiği haliyle, metin hücresini yerel yazımla okur.
func numberAt(f *excelize.File, sheet string, row []string, r, col int) (decimal.Decimal, error) {
	s := cellAt(row, col)
	name, err := excelize.CoordinatesToCellName(col+1, r+1)
	if err != nil {
		return decimal.Zero, err
	}
	switch typ, _ := f.GetCellType(sheet, name); typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return parseText(s)
	}
	return parseNumber(s)
}

// parseText elle yazılmış metin; "1.234" bin iki yüz otuz dört okunur.
func parseText(s string) (decimal.Decimal, error) {
	t := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if thousandsOnly.MatchString(t) {
		return decimal.NewFromString(strings.ReplaceAll(t, ".", ""))
	}
	return parseNumber(s)
}

// parseNumber "1.234,50" ve "1234.50" biçimlerini kabul eder; boş hücre sıfırdır.
func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	_, err := parseNumber(s)
	return err == nil
}
