package payment

import (
	"errors"
	"fmt"
	"strings"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/currency"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrCurrencyMismatch ödeme, defterin para biriminde değil.
	ErrCurrencyMismatch = errors.New("ödeme para birimi fatura para birimiyle aynı olmalı")
)

type currencyMismatchError struct {
	ledger, got currency.Code
}

func (e *currencyMismatchError) Error() string {
	return fmt.Sprintf("%s (%s beklenirken %s)", ErrCurrencyMismatch, e.ledger, e.got)
}

func (e *currencyMismatchError) Is(target error) bool {
	return target == ErrCurrencyMismatch || target == apperr.ErrValidation
}

// Ledger bir faturanın ödeme defteri. Eklenme sırasını korur.
// Eşzamanlı kullanım için çağıran taraf kilitlemeli.
type Ledger struct {
	currency currency.Code
	records  []Record
	newID    func() string
}

func NewLedger(cur currency.Code) *Ledger {
	return &Ledger{currency: cur, newID: uuid.NewString}
}

func (l *Ledger) Currency() currency.Code { return l.currency }

func (l *Ledger) Len() int { return len(l.records) }

// Records defterin kopyasını döner.
func (l *Ledger) Records() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Add kalan tutarı kontrol etmez; fazla/eksik ödeme mutabakatta görünür.
func (l *Ledger) Add(in Input) (Record, error) {
	rec := Record{
		Method:      in.Method,
		Amount:      in.Amount,
		AccountID:   strings.TrimSpace(in.AccountID),
		Currency:    in.Currency,
		Description: strings.TrimSpace(in.Description),
	}
	if rec.Currency == "" {
		rec.Currency = l.currency
	}
	if err := l.check(rec); err != nil {
		return Record{}, err
	}

	rec.ID = l.newID()
	l.records = append(l.records, rec)
	return rec, nil
}

// Remove kayıt yoksa hiçbir şey yapmaz.
func (l *Ledger) Remove(id string) {
	for i, r := range l.records {
		if r.ID == id {
			l.records = append(l.records[:i], l.records[i+1:]...)
			return
		}
	}
}

// Edit hata durumunda defter değişmez.
func (l *Ledger) Edit(id string, u Update) (Record, error) {
	for i, r := range l.records {
		if r.ID != id {
			continue
		}
		next := u.apply(r)
		next.AccountID = strings.TrimSpace(next.AccountID)
		next.Description = strings.TrimSpace(next.Description)
		if err := l.check(next); err != nil {
			return Record{}, err
		}
		l.records[i] = next
		return next, nil
	}
	return Record{}, apperr.NotFound("ödeme", id)
}

// TotalPaid kur çevirisi yapmadan toplar.
func (l *Ledger) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, r := range l.records {
		total = total.Add(r.Amount)
	}
	return total
}

func (l *Ledger) check(r Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Currency != l.currency {
		return &currencyMismatchError{ledger: l.currency, got: r.Currency}
	}
	return nil
}
