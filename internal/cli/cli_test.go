package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/audit"
	"kasa-backend/internal/auth"
	"kasa-backend/internal/config"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/models"
	"kasa-backend/internal/sale"
	"kasa-backend/internal/vault"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTokenFromFlags(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	out, err := run(t, "token", "--user-id", "7", "--name", "Kasiyer", "--role", "branch_admin", "--branch-id", "3")
	require.NoError(t, err)

	claims := &auth.JWTCustomClaims{}
	tok, err := jwt.ParseWithClaims(strings.TrimSpace(out), claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, tok.Valid)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, models.RoleBranchAdmin, claims.Role)
	require.NotNil(t, claims.BranchID)
	assert.Equal(t, uint(3), *claims.BranchID)
}

func TestTokenRejectsBadInput(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	_, err := run(t, "token", "--user-id", "7", "--role", "branch_admin")
	assert.ErrorContains(t, err, "--branch-id")

	_, err = run(t, "token", "--user-id", "7", "--role", "kasiyer")
	assert.ErrorContains(t, err, "bilinmeyen rol")

	_, err = run(t, "token")
	assert.ErrorContains(t, err, "--user-id")

	t.Setenv("JWT_SECRET", "kisa")
	_, err = run(t, "token", "--user-id", "1")
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestRatesWithStaticFlag(t *testing.T) {
	out, err := run(t, "rates", "--rates", "USD:30,EUR:35", "--json")
	require.NoError(t, err)

	var tbl map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &tbl))
	assert.Equal(t, "30", tbl["USD"])
	assert.Equal(t, "35", tbl["EUR"])

	out, err = run(t, "rates", "--rates", "USD:30")
	require.NoError(t, err)
	assert.Contains(t, out, "USD")
	assert.Contains(t, out, "30")
}

func TestQuoteFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "satis.json")
	body := `{
		"items": [{"id": "A", "quantity": "2", "unit_price": "50", "vat_rate": "0", "currency": "USD"}],
		"payments": [{"method": "cash", "amount": "100", "account_id": "1", "currency": "USD"}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	out, err := run(t, "quote", "--file", path, "--rates", "USD:30,EUR:35")
	require.NoError(t, err)

	var sum sale.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, "100", sum.Totals.GrandTotal.String())
	assert.True(t, sum.Settled)
	assert.Len(t, sum.Payments, 1)
}

func TestQuoteRequiresFile(t *testing.T) {
	_, err := run(t, "quote")
	assert.ErrorContains(t, err, "--file")
}

func TestTransferFlagValidation(t *testing.T) {
	_, err := run(t, "transfer", "--amount", "10")
	assert.ErrorContains(t, err, "--from")

	_, err = run(t, "transfer", "--from", "1", "--to", "2", "--amount", "on")
	assert.ErrorContains(t, err, "--amount")
}

type memVaults struct {
	vaults  map[uint]vault.Vault
	written []vault.Movement
	writes  int
	failOn  int
}

func (m *memVaults) GetVault(_ context.Context, id uint) (vault.Vault, error) {
	v, ok := m.vaults[id]
	if !ok {
		return vault.Vault{}, apperr.NotFound("kasa", id)
	}
	return v, nil
}

func (m *memVaults) WriteMovement(_ context.Context, mv vault.Movement) (uint, error) {
	m.writes++
	if m.writes == m.failOn {
		return 0, errors.New("bağlantı koptu")
	}
	m.written = append(m.written, mv)
	return uint(len(m.written)), nil
}

type recordingAudit struct {
	logs []audit.LogOptions
}

func (r *recordingAudit) WriteLog(_ context.Context, opts audit.LogOptions) error {
	r.logs = append(r.logs, opts)
	return nil
}

func runWithSource(t *testing.T, src *source, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&env{out: &out, open: func(*config.Config) (*source, error) { return src, nil }})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func twoCashVaults() map[uint]vault.Vault {
	return map[uint]vault.Vault{
		1: {ID: 1, BranchID: 4, Kind: models.AccountKindCash, Name: "USD Kasa", Currency: currency.USD},
		2: {ID: 2, BranchID: 4, Kind: models.AccountKindCash, Name: "USD Kasa 2", Currency: currency.USD},
	}
}

func TestTransferWritesAuditRow(t *testing.T) {
	vs := &memVaults{vaults: twoCashVaults()}
	al := &recordingAudit{}
	src := &source{vaults: vs, audit: al}

	out, err := runWithSource(t, src, "transfer", "--from", "1", "--to", "2", "--amount", "100", "--actor", "muhasebe")
	require.NoError(t, err)

	var res vault.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, vault.StateCreditCommitted, res.State)

	require.Len(t, al.logs, 1)
	row := al.logs[0]
	assert.Equal(t, models.AuditActionTransfer, row.Action)
	assert.Equal(t, res.Ref, row.Reference)
	assert.Equal(t, "muhasebe", row.UserName)
	assert.Equal(t, "Virman: 100.00 USD → 100.00 USD", row.Description)
	require.NotNil(t, row.BranchID)
	assert.Equal(t, uint(4), *row.BranchID)
}

func TestCompensatedTransferWritesAuditRow(t *testing.T) {
	vs := &memVaults{vaults: twoCashVaults(), failOn: 2}
	al := &recordingAudit{}
	src := &source{vaults: vs, audit: al}

	out, err := runWithSource(t, src, "transfer", "--from", "1", "--to", "2", "--amount", "100")
	require.Error(t, err)

	var resp vault.TransferErrorResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, vault.StateCompensated, resp.State)
	assert.NotZero(t, resp.ReversalID)

	// çıkış ve iade yazıldı, giriş yazılamadı
	require.Len(t, vs.written, 2)
	assert.Equal(t, models.MovementTransferReverse, vs.written[1].Type)

	require.Len(t, al.logs, 1)
	row := al.logs[0]
	assert.Equal(t, models.AuditActionCompensate, row.Action)
	assert.Equal(t, resp.Ref, row.Reference)
	assert.Equal(t, "kasactl", row.UserName)
	assert.Equal(t, "vault_transfer", row.EntityType)
	assert.Contains(t, row.Description, "bağlantı koptu")
}

func TestRejectedTransferWritesNoAuditRow(t *testing.T) {
	al := &recordingAudit{}
	src := &source{vaults: &memVaults{vaults: twoCashVaults()}, audit: al}

	_, err := runWithSource(t, src, "transfer", "--from", "1", "--to", "9", "--amount", "100")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, al.logs)
}
