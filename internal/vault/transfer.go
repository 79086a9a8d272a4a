package vault

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/events"
	"kasa-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type State string

const (
	StateDebitPending       State = "debit_pending"
	StateDebitCommitted     State = "debit_committed"
	StateCreditPending      State = "credit_pending"
	StateCreditCommitted    State = "credit_committed"
	StateCompensating       State = "compensating"
	StateCompensated        State = "compensated"
	StateCompensationFailed State = "compensation_failed"
)

// ErrSameVault kaynak ve hedef aynı hesap.
var ErrSameVault = apperr.Validation("target_vault_id", "kaynak ve hedef kasa aynı olamaz")

type TransferRequest struct {
	SourceID        uint            `json:"source_vault_id"`
	TargetID        uint            `json:"target_vault_id"`
	Amount          decimal.Decimal `json:"amount"`
	ConvertIfNeeded bool            `json:"convert_if_needed"`
	Description     string          `json:"description"`
}

type Result struct {
	Ref        string          `json:"ref"`
	State      State           `json:"state"`
	Source     Vault           `json:"source"`
	Target     Vault           `json:"target"`
	Debited    decimal.Decimal `json:"debited"`
	Credited   decimal.Decimal `json:"credited"`
	Converted  bool            `json:"converted"`
	DebitID    uint            `json:"debit_movement_id"`
	CreditID   uint            `json:"credit_movement_id,omitempty"`
	ReversalID uint            `json:"reversal_movement_id,omitempty"`
}

// TransferError transferin hangi aşamada kaldığını taşır.
type TransferError struct {
	Ref   string
	State State
	Err   error
	// Cause telafi de başarısızsa telafi hatası; yoksa nil.
	Cause error
}

func (e *TransferError) Error() string {
	switch e.State {
	case StateCompensated:
		return fmt.Sprintf("virman %s tamamlanamadı, kaynak kasaya iade edildi: %v", e.Ref, e.Err)
	case StateCompensationFailed:
		return fmt.Sprintf("virman %s tamamlanamadı ve iade yazılamadı: %v (iade hatası: %v)", e.Ref, e.Err, e.Cause)
	}
	return fmt.Sprintf("virman %s başarısız (%s): %v", e.Ref, e.State, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Inconsistent kaynak borçlandı ama hedefe yazılamadı ve iade de yapılamadı.
func (e *TransferError) Inconsistent() bool {
	return e.State == StateCompensationFailed
}

// Orchestrator iki taraflı kasa transferini yürütür.
type Orchestrator struct {
	vaults Resolver
	writer MovementWriter
	events events.Publisher
	log    zerolog.Logger
	newRef func() string
	now    func() time.Time
}

func NewOrchestrator(vaults Resolver, writer MovementWriter, pub events.Publisher, log zerolog.Logger) *Orchestrator {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Orchestrator{
		vaults: vaults,
		writer: writer,
		events: pub,
		log:    log,
		newRef: uuid.NewString,
		now:    time.Now,
	}
}

// Transfer kaynaktan amount düşer, hedefe (gerekirse çevrilmiş) tutarı ekler.
// Çeviri kapalıyken para birimleri farklıysa tutar olduğu gibi yazılır.
func (o *Orchestrator) Transfer(ctx context.Context, req TransferRequest, rates currency.RateTable) (Result, error) {
	if req.SourceID == req.TargetID {
		return Result{}, ErrSameVault
	}
	if !req.Amount.IsPositive() {
		return Result{}, apperr.Validation("amount", "0'dan büyük olmalı")
	}

	src, err := o.vaults.GetVault(ctx, req.SourceID)
	if err != nil {
		return Result{}, err
	}
	tgt, err := o.vaults.GetVault(ctx, req.TargetID)
	if err != nil {
		return Result{}, err
	}

	credited := req.Amount
	converted := false
	if src.Currency != tgt.Currency {
		if req.ConvertIfNeeded {
			credited, err = currency.Convert(req.Amount, src.Currency, tgt.Currency, rates)
			if err != nil {
				return Result{}, err
			}
			credited = currency.Round(credited)
			converted = true
		} else {
			o.log.Warn().
				Uint("source", src.ID).Uint("target", tgt.ID).
				Str("from", string(src.Currency)).Str("to", string(tgt.Currency)).
				Msg("farklı para birimleri arasında çevirisiz virman")
		}
	}

	res := Result{
		Ref:       o.newRef(),
		State:     StateDebitPending,
		Source:    src,
		Target:    tgt,
		Debited:   req.Amount,
		Credited:  credited,
		Converted: converted,
	}
	log := o.log.With().Str("ref", res.Ref).Logger()

	desc := req.Description
	if desc == "" {
		desc = fmt.Sprintf("Virman: %s → %s", src.Name, tgt.Name)
	}
	now := o.now()
	debit := Movement{
		VaultID:     src.ID,
		BranchID:    src.BranchID,
		Date:        now,
		Direction:   models.DirectionOut,
		Type:        models.MovementTransferOut,
		Document:    models.DocumentTransfer,
		Emerging:    req.Amount,
		Currency:    src.Currency,
		Description: desc,
		Reference:   res.Ref,
	}
	credit := Movement{
		VaultID:     tgt.ID,
		BranchID:    tgt.BranchID,
		Date:        now,
		Direction:   models.DirectionIn,
		Type:        models.MovementTransferIn,
		Document:    models.DocumentTransfer,
		Entering:    credited,
		Currency:    tgt.Currency,
		Description: desc,
		Reference:   res.Ref,
	}

	if atomic, ok := o.writer.(AtomicTransferer); ok {
		res.DebitID, res.CreditID, err = atomic.WriteTransfer(ctx, debit, credit)
		if err != nil {
			log.Error().Err(err).Msg("virman işlemi geri alındı")
			return res, &TransferError{Ref: res.Ref, State: StateDebitPending, Err: err}
		}
		res.State = StateCreditCommitted
		log.Info().Str("debited", res.Debited.String()).Str("credited", res.Credited.String()).Msg("virman tamamlandı")
		o.publish(ctx, src, tgt)
		return res, nil
	}

	res.DebitID, err = o.writer.WriteMovement(ctx, debit)
	if err != nil {
		log.Error().Err(err).Msg("kaynak hareketi yazılamadı")
		return res, &TransferError{Ref: res.Ref, State: StateDebitPending, Err: err}
	}
	res.State = StateDebitCommitted
	log.Debug().Uint("movement_id", res.DebitID).Msg(string(res.State))

	res.State = StateCreditPending
	res.CreditID, err = o.writer.WriteMovement(ctx, credit)
	if err != nil {
		log.Error().Err(err).Msg("hedef hareketi yazılamadı, iade başlatılıyor")
		return o.compensate(ctx, res, debit, err, log)
	}
	res.State = StateCreditCommitted
	log.Info().Str("debited", res.Debited.String()).Str("credited", res.Credited.String()).Msg("virman tamamlandı")

	o.publish(ctx, src, tgt)
	return res, nil
}

// compensate kaynak hesaba ters kayıt yazar. İstek iptal edilmiş olsa da çalışır.
func (o *Orchestrator) compensate(ctx context.Context, res Result, debit Movement, cause error, log zerolog.Logger) (Result, error) {
	res.State = StateCompensating

	reversal := debit
	reversal.Date = o.now()
	reversal.Direction = models.DirectionIn
	reversal.Type = models.MovementTransferReverse
	reversal.Entering = debit.Emerging
	reversal.Emerging = decimal.Zero
	reversal.Description = "İade: " + debit.Description

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	id, err := o.writer.WriteMovement(cctx, reversal)
	if err != nil {
		res.State = StateCompensationFailed
		log.Error().Err(err).Uint("debit_movement_id", res.DebitID).Msg("iade yazılamadı, kasa tutarsız")
		return res, &TransferError{Ref: res.Ref, State: res.State, Err: cause, Cause: err}
	}

	res.ReversalID = id
	res.State = StateCompensated
	log.Warn().Uint("reversal_movement_id", id).Msg("virman iade edildi")
	o.events.Publish(cctx, events.Event{
		Type:     events.MovementsChanged,
		BranchID: res.Source.BranchID,
		EntityID: strconv.FormatUint(uint64(res.Source.ID), 10),
	})
	return res, &TransferError{Ref: res.Ref, State: res.State, Err: cause}
}

func (o *Orchestrator) publish(ctx context.Context, vaults ...Vault) {
	for _, v := range vaults {
		o.events.Publish(ctx, events.Event{
			Type:     events.MovementsChanged,
			BranchID: v.BranchID,
			EntityID: strconv.FormatUint(uint64(v.ID), 10),
		})
	}
}

// IsTransferError yardımcı.
func IsTransferError(err error) (*TransferError, bool) {
	var te *TransferError
	ok := errors.As(err, &te)
	return te, ok
}
