package sale

import (
	"context"
	"time"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/cache"
	"kasa-backend/internal/events"
	"kasa-backend/internal/payment"
	"kasa-backend/internal/rates"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service açık satış oturumlarını bellekte tutar.
// Oturumlar kapasite veya hareketsizlik süresi dolunca düşer; kesinleşmemiş taslak kaybolur.
type Service struct {
	sessions *cache.LRU[*Session]
	rates    rates.Provider
	writer   Writer
	events   events.Publisher
	log      zerolog.Logger
	newID    func() string
}

func NewService(p rates.Provider, w Writer, pub events.Publisher, log zerolog.Logger, capacity int, ttl time.Duration) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	s := &Service{
		sessions: cache.NewLRU[*Session](capacity, ttl),
		rates:    p,
		writer:   w,
		events:   pub,
		log:      log,
		newID:    uuid.NewString,
	}
	s.sessions.OnEvict(func(id string, sess *Session) {
		sess.mu.Lock()
		finalized := sess.finalized
		sess.mu.Unlock()
		if !finalized {
			s.log.Warn().Str("session_id", id).Uint("branch_id", sess.BranchID()).Msg("kesinleşmemiş satış oturumu düşürüldü")
		}
	})
	return s
}

// Open oturum açar ve o anki kurları oturuma sabitler.
func (s *Service) Open(ctx context.Context, d Draft) (Summary, error) {
	snap, err := rates.TakeSnapshot(ctx, s.rates)
	if err != nil {
		return Summary{}, err
	}
	sess, err := NewSession(s.newID(), d, snap)
	if err != nil {
		return Summary{}, err
	}
	s.sessions.Set(sess.ID(), sess)

	s.log.Info().Str("session_id", sess.ID()).Uint("branch_id", d.BranchID).Int("items", len(d.Items)).Msg("satış oturumu açıldı")
	return sess.Summary()
}

func (s *Service) Get(id string) (*Session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, apperr.NotFound("satış oturumu", id)
	}
	return sess, nil
}

// Discard oturumu kayıt yapmadan kapatır.
func (s *Service) Discard(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	s.sessions.Delete(id)
	s.log.Info().Str("session_id", id).Msg("satış oturumu iptal edildi")
	return nil
}

func (s *Service) AddPayment(ctx context.Context, id string, in payment.Input) (payment.Record, Summary, error) {
	sess, err := s.Get(id)
	if err != nil {
		return payment.Record{}, Summary{}, err
	}
	rec, sum, err := sess.AddPayment(in)
	if err != nil {
		return payment.Record{}, Summary{}, err
	}
	s.paymentsChanged(ctx, sum)
	return rec, sum, nil
}

func (s *Service) EditPayment(ctx context.Context, id, paymentID string, u payment.Update) (payment.Record, Summary, error) {
	sess, err := s.Get(id)
	if err != nil {
		return payment.Record{}, Summary{}, err
	}
	rec, sum, err := sess.EditPayment(paymentID, u)
	if err != nil {
		return payment.Record{}, Summary{}, err
	}
	s.paymentsChanged(ctx, sum)
	return rec, sum, nil
}

func (s *Service) RemovePayment(ctx context.Context, id, paymentID string) (Summary, error) {
	sess, err := s.Get(id)
	if err != nil {
		return Summary{}, err
	}
	sum, err := sess.RemovePayment(paymentID)
	if err != nil {
		return Summary{}, err
	}
	s.paymentsChanged(ctx, sum)
	return sum, nil
}

// Finalize satışı yazar; kesinleşen oturum süresi dolana kadar okunabilir kalır.
func (s *Service) Finalize(ctx context.Context, id string) (FinalizedSale, Summary, error) {
	sess, err := s.Get(id)
	if err != nil {
		return FinalizedSale{}, Summary{}, err
	}

	fs, err := sess.Finalize(ctx, s.writer)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", id).Msg("satış kesinleştirilemedi")
		return FinalizedSale{}, Summary{}, err
	}
	sum, err := sess.Summary()
	if err != nil {
		return FinalizedSale{}, Summary{}, err
	}

	s.log.Info().
		Str("session_id", id).
		Uint("sale_id", sum.SaleID).
		Str("grand_total", fs.Totals.GrandTotal.String()).
		Str("currency", string(fs.Totals.Currency)).
		Msg("satış kesinleşti")

	s.events.Publish(ctx, events.Event{Type: events.OperationsChanged, BranchID: fs.BranchID, EntityID: id})
	seen := map[string]bool{}
	for _, p := range fs.Payments {
		if p.AccountID == "" || seen[p.AccountID] {
			continue
		}
		seen[p.AccountID] = true
		s.events.Publish(ctx, events.Event{Type: events.MovementsChanged, BranchID: fs.BranchID, EntityID: p.AccountID})
	}
	return fs, sum, nil
}

// Quote o anki kurlarla oturumsuz hesap yapar.
func (s *Service) Quote(ctx context.Context, d Draft, payments []payment.Input) (Summary, error) {
	tbl, err := s.rates.Rates(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Quote(d, payments, tbl)
}

func (s *Service) Len() int { return s.sessions.Len() }

// Janitor süresi dolan oturumları periyodik temizler.
func (s *Service) Janitor(ctx context.Context, every time.Duration) {
	s.sessions.Janitor(ctx, every)
}

func (s *Service) paymentsChanged(ctx context.Context, sum Summary) {
	s.events.Publish(ctx, events.Event{Type: events.PaymentsChanged, BranchID: sum.BranchID, EntityID: sum.SessionID})
}
