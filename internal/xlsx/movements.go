package xlsx

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MovementRow hesap ekstresindeki bir satır.
type MovementRow struct {
	Date         time.Time
	MovementType string
	DocumentType string
	Entering     decimal.Decimal
	Emerging     decimal.Decimal
	Currency     string
	Description  string
	Reference    string
}

// WriteMovements hesap ekstresini tek sayfalık xlsx olarak yazar; son satır toplamdır.
func WriteMovements(w io.Writer, title string, rows []MovementRow) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := []interface{}{"Tarih", "Hareket", "Belge", "Giriş", "Çıkış", "Para Birimi", "Açıklama", "Referans"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := boldRow(f, sheet, 1); err != nil {
		return err
	}

	var in, out decimal.Decimal
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.Date.Format("2006-01-02 15:04"),
			r.MovementType,
			r.DocumentType,
			r.Entering.Round(2).InexactFloat64(),
			r.Emerging.Round(2).InexactFloat64(),
			r.Currency,
			r.Description,
			r.Reference,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
		in = in.Add(r.Entering)
		out = out.Add(r.Emerging)
	}

	totalRow := len(rows) + 2
	cell, _ := excelize.CoordinatesToCellName(1, totalRow)
	total := []interface{}{"TOPLAM", "", "", in.Round(2).InexactFloat64(), out.Round(2).InexactFloat64()}
	if err := f.SetSheetRow(sheet, cell, &total); err != nil {
		return err
	}
	if err := boldRow(f, sheet, totalRow); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "H", 18); err != nil {
		return err
	}

	return f.Write(w)
}

func boldRow(f *excelize.File, sheet string, row int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	return f.SetRowStyle(sheet, row, row, style)
}

// sheetName Excel'in yasak karakterlerini ve 31 karakter sınırını uygular.
func sheetName(title string) string {
	title = strings.TrimSpace(strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '-'
		}
		return r
	}, title))
	if title == "" {
		return "Rapor"
	}
	r := []rune(title)
	if len(r) > 31 {
		r = r[:31]
	}
	return string(r)
}

// FileName indirme için dosya adı üretir.
func FileName(prefix string, id any) string {
	return fmt.Sprintf("%s-%v-%s.xlsx", prefix, id, time.Now().Format("20060102"))
}
