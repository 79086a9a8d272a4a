package vault

import (
	"context"
	"errors"
	"testing"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/events"
	"kasa-backend/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var testRates = currency.RateTable{currency.USD: d("30"), currency.EUR: d("35")}

type fakeStore struct {
	vaults   map[uint]Vault
	written  []Movement
	failOn   map[int]error // 1 tabanlı yazma sırası
	writes   int
	balances map[uint]decimal.Decimal
}

func newFakeStore(vs ...Vault) *fakeStore {
	s := &fakeStore{vaults: map[uint]Vault{}, failOn: map[int]error{}, balances: map[uint]decimal.Decimal{}}
	for _, v := range vs {
		s.vaults[v.ID] = v
		s.balances[v.ID] = decimal.Zero
	}
	return s
}

func (s *fakeStore) GetVault(_ context.Context, id uint) (Vault, error) {
	v, ok := s.vaults[id]
	if !ok {
		return Vault{}, apperr.NotFound("kasa", id)
	}
	return v, nil
}

func (s *fakeStore) WriteMovement(_ context.Context, m Movement) (uint, error) {
	s.writes++
	if err := s.failOn[s.writes]; err != nil {
		return 0, err
	}
	s.written = append(s.written, m)
	s.balances[m.VaultID] = s.balances[m.VaultID].Add(m.Net())
	return uint(len(s.written)), nil
}

type atomicStore struct {
	*fakeStore
	fail error
}

func (s *atomicStore) WriteTransfer(ctx context.Context, debit, credit Movement) (uint, uint, error) {
	if s.fail != nil {
		return 0, 0, s.fail
	}
	a, _ := s.fakeStore.WriteMovement(ctx, debit)
	b, _ := s.fakeStore.WriteMovement(ctx, credit)
	return a, b, nil
}

func vaults() (Vault, Vault, Vault) {
	usd := Vault{ID: 1, BranchID: 1, Kind: models.AccountKindCash, Name: "USD Kasa", Currency: currency.USD}
	eur := Vault{ID: 2, BranchID: 1, Kind: models.AccountKindBank, Name: "EUR Banka", Currency: currency.EUR}
	usd2 := Vault{ID: 3, BranchID: 1, Kind: models.AccountKindCash, Name: "USD Kasa 2", Currency: currency.USD}
	return usd, eur, usd2
}

func newOrchestrator(s MovementWriter, r Resolver) (*Orchestrator, *[]events.Event) {
	bus := events.NewBus()
	var got []events.Event
	bus.SubscribeAll(func(_ context.Context, e events.Event) { got = append(got, e) })
	o := NewOrchestrator(r, s, bus, zerolog.Nop())
	o.newRef = func() string { return "ref-1" }
	return o, &got
}

func TestTransferConvertsUSDToEUR(t *testing.T) {
	usd, eur, _ := vaults()
	store := newFakeStore(usd, eur)
	o, published := newOrchestrator(store, store)

	res, err := o.Transfer(context.Background(), TransferRequest{SourceID: 1, TargetID: 2, Amount: d("100"), ConvertIfNeeded: true}, testRates)
	require.NoError(t, err)

	assert.Equal(t, StateCreditCommitted, res.State)
	assert.True(t, res.Converted)
	assert.Equal(t, "85.71", res.Credited.String())
	require.Len(t, store.written, 2)

	debit, credit := store.written[0], store.written[1]
	assert.Equal(t, models.DirectionOut, debit.Direction)
	assert.Equal(t, "100", debit.Emerging.String())
	assert.Equal(t, currency.USD, debit.Currency)
	assert.Equal(t, models.DirectionIn, credit.Direction)
	assert.Equal(t, "85.71", credit.Entering.String())
	assert.Equal(t, currency.EUR, credit.Currency)
	assert.Equal(t, "ref-1", debit.Reference)
	assert.Equal(t, "ref-1", credit.Reference)
	assert.Len(t, *published, 2)
}

func TestTransferWithoutConversionKeepsAmount(t *testing.T) {
	usd, eur, _ := vaults()
	store := newFakeStore(usd, eur)
	o, _ := newOrchestrator(store, store)

	res, err := o.Transfer(context.Background(), TransferRequest{SourceID: 1, TargetID: 2, Amount: d("100")}, testRates)
	require.NoError(t, err)
	assert.False(t, res.Converted)
	assert.Equal(t, "100", store.written[1].Entering.String())
}

func TestTransferSameCurrencyIgnoresConvertFlag(t *testing.T) {
	usd, _, usd2 := vaults()
	store := newFakeStore(usd, usd2)
	o, _ := newOrchestrator(store, store)

	res, err := o.Transfer(context.Background(), TransferRequest{SourceID: 1, TargetID: 3, Amount: d("42.5"), ConvertIfNeeded: true}, nil)
	require.NoError(t, err)
	assert.False(t, res.Converted)
	assert.Equal(t, "42.5", res.Credited.String())
}

func TestTransferValidation(t *testing.T) {
	usd, eur, _ := vaults()
	store := newFakeStore(usd, eur)
	o, _ := newOrchestrator(store, store)
	ctx := context.Background()

	_, err := o.Transfer(ctx, TransferRequest{SourceID: 1, TargetID: 1, Amount: d("10")}, testRates)
	assert.ErrorIs(t, err, ErrSameVault)

	_, err = o.Transfer(ctx, TransferRequest{SourceID: 1, TargetID: 2, Amount: d("0")}, testRates)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = o.Transfer(ctx, TransferRequest{SourceID: 1, TargetID: 99, Amount: d("10")}, testRates)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = o.Transfer(ctx, TransferRequest{SourceID: 1, TargetID: 2, Amount: d("10"), ConvertIfNeeded: true}, currency.RateTable{})
	assert.ErrorIs(t, err, currency.ErrUnknownCurrency)

	assert.Empty(t, store.written)
}

func TestTransferDebitFailureWritesNothing(t *testing.T) {
	usd, eur, _ := vaults()
	store := newFakeStore(usd, eur)
	store.failOn[1] = errors.New("bağlantı koptu")
	o, published := newOrchestrator(store, store)

	res, err := o.Transfer(context.Background(), TransferRequest{SourceID: 1, TargetID: 2, Amount: d("10")}, testRates)
	te, ok := IsTransferError(err)
	require.True(t, ok)
	assert.Equal(t, StateDebitPending, te.State)
	assert.Equal(t, StateDebitPending, res.State)
	assert.Empty(t, store.written)
	assert.Empty(t, *published)
}

func TestTransferCreditFailureCompensates(t *testing.T) {
	usd, eur, _ := vaults()
	store := newFakeStore(usd, eur)
	netErr := &apperr.NetworkError{Op: "POST /vault-movements", Status: 503}
	store.failOn[2] = netErr
	o, _ := newOrchestrator(store, store)

	res, err := o.Transfer(context.Background(), TransferRequest{SourceID: 1, TargetID: 2, Amount: d("100"), ConvertIfNeeded: true}, testRates)
	require.Error(t, err)

	te, ok := IsTransferError(err)
	require.True(t, ok)
	assert.Equal(t, StateCompensated, te.State)
	assert.False(t, te.Inconsistent())
	assert.ErrorIs(t, err, apperr.ErrNetwork)

	assert.Equal(t, StateCompensated, res.State)
	require.Len(t, store.written, 2)
	reversal := store.written[1]
	assert.Equal(t, models.MovementTransferReverse, reversal.Type)
	assert.Equal(t, uint(1), reversal.VaultID)
	assert.True(t, store.balances[1].IsZero(), "kaynak bakiye iade sonrası sıfırlanmalı")
	assert.True(t, store.balances[2].IsZero())
}

func TestTransferCompensationFailure(t *testing.T) {
	usd, eur, _ := vaults()
	store := newFakeStore(usd, eur)
	store.failOn[2] = errors.New("hedef yazılamadı")
	store.failOn[3] = errors.New("iade yazılamadı")
	o, _ := newOrchestrator(store, store)

	_, err := o.Transfer(context.Background(), TransferRequest{SourceID: 1, TargetID: 2, Amount: d("5")}, testRates)
	te, ok := IsTransferError(err)
	require.True(t, ok)
	assert.Equal(t, StateCompensationFailed, te.State)
	assert.True(t, te.Inconsistent())
	assert.EqualError(t, te.Cause, "iade yazılamadı")
	assert.Equal(t, "-5", store.balances[1].String())
}

func TestTransferCompensatesAfterCancelledContext(t *testing.T) {
	usd, eur, _ := vaults()
	store := newFakeStore(usd, eur)
	store.failOn[2] = context.Canceled
	o, _ := newOrchestrator(store, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := o.Transfer(ctx, TransferRequest{SourceID: 1, TargetID: 2, Amount: d("5")}, testRates)
	require.Error(t, err)
	assert.Equal(t, StateCompensated, res.State)
}

func TestTransferUsesAtomicWriter(t *testing.T) {
	usd, eur, _ := vaults()
	base := newFakeStore(usd, eur)
	store := &atomicStore{fakeStore: base}
	o, _ := newOrchestrator(store, base)

	res, err := o.Transfer(context.Background(), TransferRequest{SourceID: 1, TargetID: 2, Amount: d("30"), ConvertIfNeeded: true}, testRates)
	require.NoError(t, err)
	assert.Equal(t, StateCreditCommitted, res.State)
	assert.Equal(t, "25.71", res.Credited.String())

	store.fail = errors.New("tx rollback")
	_, err = o.Transfer(context.Background(), TransferRequest{SourceID: 1, TargetID: 2, Amount: d("30")}, testRates)
	te, ok := IsTransferError(err)
	require.True(t, ok)
	assert.Equal(t, StateDebitPending, te.State)
	assert.Len(t, base.written, 2)
}
