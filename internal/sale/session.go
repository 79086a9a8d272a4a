package sale

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/invoice"
	"kasa-backend/internal/payment"
	"kasa-backend/internal/rates"
	"kasa-backend/internal/settlement"

	"github.com/shopspring/decimal"
)

var (
	ErrAlreadyFinalized = fmt.Errorf("satış zaten kesinleşti: %w", apperr.ErrConflict)
	ErrCurrentRequired  = apperr.Validation("current_id", "açık hesap ödemesi için cari hesap seçilmeli")
)

// Draft oturum açılırken verilen fatura içeriği.
type Draft struct {
	BranchID  uint                  `json:"branch_id"`
	CurrentID *uint                 `json:"current_id"`
	Items     []invoice.LineItem    `json:"items"`
	Expenses  []invoice.ExpenseItem `json:"expenses"`
}

// Writer kesinleşen satışı kalıcı hale getirir.
type Writer interface {
	SaveSale(ctx context.Context, s FinalizedSale) (uint, error)
}

type FinalizedSale struct {
	SessionID   string                `json:"session_id"`
	BranchID    uint                  `json:"branch_id"`
	CurrentID   *uint                 `json:"current_id,omitempty"`
	Items       []invoice.LineItem    `json:"items"`
	Expenses    []invoice.ExpenseItem `json:"expenses"`
	Totals      invoice.Totals        `json:"totals"`
	Payments    []payment.Record      `json:"payments"`
	TotalPaid   decimal.Decimal       `json:"total_paid"`
	Rates       currency.RateTable    `json:"rates"`
	FinalizedAt time.Time             `json:"finalized_at"`
}

// Summary her defter değişikliğinden sonra istemciye dönen durum.
type Summary struct {
	SessionID   string                `json:"session_id"`
	BranchID    uint                  `json:"branch_id"`
	CurrentID   *uint                 `json:"current_id,omitempty"`
	Items       []invoice.LineItem    `json:"items"`
	Expenses    []invoice.ExpenseItem `json:"expenses"`
	Totals      invoice.Totals        `json:"totals"`
	Payments    []payment.Record      `json:"payments"`
	TotalPaid   decimal.Decimal       `json:"total_paid"`
	Remaining   decimal.Decimal       `json:"remaining"`
	Settled     bool                  `json:"settled"`
	Message     string                `json:"message,omitempty"`
	CanFinalize bool                  `json:"can_finalize"`
	Finalized   bool                  `json:"finalized"`
	SaleID      uint                  `json:"sale_id,omitempty"`
	Rates       rates.Snapshot        `json:"rates"`
}

// Session tek faturanın tahsilat taslağı. Sadece bellekte yaşar.
type Session struct {
	mu        sync.Mutex
	id        string
	draft     Draft
	rates     rates.Snapshot
	ledger    *payment.Ledger
	finalized bool
	saleID    uint
	createdAt time.Time
}

func NewSession(id string, d Draft, snap rates.Snapshot) (*Session, error) {
	if d.BranchID == 0 {
		return nil, apperr.Validation("branch_id", "zorunlu")
	}
	return newSession(id, d, snap)
}

func newSession(id string, d Draft, snap rates.Snapshot) (*Session, error) {
	if len(d.Items) == 0 {
		return nil, apperr.Validation("items", "en az bir satır girilmeli")
	}
	totals, err := invoice.Aggregate(d.Items, d.Expenses, snap.Rates)
	if err != nil {
		return nil, err
	}
	return &Session{
		id:        id,
		draft:     d,
		rates:     snap,
		ledger:    payment.NewLedger(totals.Currency),
		createdAt: time.Now(),
	}, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) BranchID() uint { return s.draft.BranchID }

func (s *Session) Summary() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary()
}

func (s *Session) AddPayment(in payment.Input) (payment.Record, Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return payment.Record{}, Summary{}, ErrAlreadyFinalized
	}
	rec, err := s.ledger.Add(in)
	if err != nil {
		return payment.Record{}, Summary{}, err
	}
	sum, err := s.summary()
	return rec, sum, err
}

func (s *Session) EditPayment(id string, u payment.Update) (payment.Record, Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return payment.Record{}, Summary{}, ErrAlreadyFinalized
	}
	rec, err := s.ledger.Edit(id, u)
	if err != nil {
		return payment.Record{}, Summary{}, err
	}
	sum, err := s.summary()
	return rec, sum, err
}

func (s *Session) RemovePayment(id string) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return Summary{}, ErrAlreadyFinalized
	}
	s.ledger.Remove(id)
	return s.summary()
}

// Finalize tahsilat tutmuyorsa *settlement.MismatchError döner. Kayıt hatasında oturum açık kalır.
func (s *Session) Finalize(ctx context.Context, w Writer) (FinalizedSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return FinalizedSale{}, ErrAlreadyFinalized
	}

	sum, err := s.summary()
	if err != nil {
		return FinalizedSale{}, err
	}
	res := settlement.Result{Remaining: sum.Remaining, Settled: sum.Settled}
	if err := res.Err(sum.Totals.Currency); err != nil {
		return FinalizedSale{}, err
	}
	if s.draft.CurrentID == nil {
		for _, p := range sum.Payments {
			if p.Method == payment.MethodCredit {
				return FinalizedSale{}, ErrCurrentRequired
			}
		}
	}

	fs := FinalizedSale{
		SessionID:   s.id,
		BranchID:    s.draft.BranchID,
		CurrentID:   s.draft.CurrentID,
		Items:       sum.Items,
		Expenses:    sum.Expenses,
		Totals:      sum.Totals,
		Payments:    sum.Payments,
		TotalPaid:   sum.TotalPaid,
		Rates:       s.rates.Rates.Clone(),
		FinalizedAt: time.Now(),
	}

	id, err := w.SaveSale(ctx, fs)
	if err != nil {
		return FinalizedSale{}, err
	}
	s.finalized = true
	s.saleID = id
	return fs, nil
}

func (s *Session) summary() (Summary, error) {
	totals, err := invoice.Aggregate(s.draft.Items, s.draft.Expenses, s.rates.Rates)
	if err != nil {
		return Summary{}, err
	}
	paid := s.ledger.TotalPaid()
	res := settlement.Validate(totals.GrandTotal, paid)

	return Summary{
		SessionID:   s.id,
		BranchID:    s.draft.BranchID,
		CurrentID:   s.draft.CurrentID,
		Items:       append([]invoice.LineItem(nil), s.draft.Items...),
		Expenses:    append([]invoice.ExpenseItem(nil), s.draft.Expenses...),
		Totals:      totals,
		Payments:    s.ledger.Records(),
		TotalPaid:   paid,
		Remaining:   res.Remaining,
		Settled:     res.Settled,
		Message:     res.Message(totals.Currency),
		CanFinalize: res.Settled && !s.finalized,
		Finalized:   s.finalized,
		SaleID:      s.saleID,
		Rates:       s.rates,
	}, nil
}

// Quote kalıcı oturum açmadan toplam ve mutabakat hesaplar.
func Quote(d Draft, payments []payment.Input, tbl currency.RateTable) (Summary, error) {
	s, err := newSession("quote", d, rates.Snapshot{Rates: tbl, FetchedAt: time.Now()})
	if err != nil {
		return Summary{}, err
	}
	for i, in := range payments {
		if _, err := s.ledger.Add(in); err != nil {
			return Summary{}, fmt.Errorf("ödeme %d: %w", i+1, err)
		}
	}
	return s.summary()
}
