package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kasa-backend/internal/account"
	"kasa-backend/internal/apperr"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/models"
	"kasa-backend/internal/sale"
	"kasa-backend/internal/vault"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Client uzak kasa servisine REST ile bağlanır. Her istek Bearer token ve zaman aşımı taşır.
type Client struct {
	baseURL   string
	token     string
	timeout   time.Duration
	rateCodes []currency.Code
	log       zerolog.Logger
}

type Option func(*Client)

// WithRateCodes Rates çağrısında çekilecek dövizleri belirler (varsayılan USD, EUR).
func WithRateCodes(codes ...currency.Code) Option {
	return func(c *Client) { c.rateCodes = codes }
}

func New(baseURL, token string, timeout time.Duration, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		timeout:   timeout,
		rateCodes: []currency.Code{currency.USD, currency.EUR},
		log:       log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type rateResponse struct {
	Currency currency.Code   `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
}

type idResponse struct {
	ID uint `json:"id"`
}

// Rates dövizleri eşzamanlı çeker; biri başarısızsa tablo dönmez.
func (c *Client) Rates(ctx context.Context) (currency.RateTable, error) {
	rates := make([]decimal.Decimal, len(c.rateCodes))

	g, gctx := errgroup.WithContext(ctx)
	for i, code := range c.rateCodes {
		i, code := i, code
		g.Go(func() error {
			var r rateResponse
			if err := c.do(gctx, fiber.MethodGet, "/exchange-rates/"+string(code), nil, nil, &r); err != nil {
				return err
			}
			if !r.Rate.IsPositive() {
				return fmt.Errorf("%s: %w", code, currency.ErrInvalidRate)
			}
			rates[i] = r.Rate
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tbl := make(currency.RateTable, len(c.rateCodes))
	for i, code := range c.rateCodes {
		tbl[code] = rates[i]
	}
	return tbl, nil
}

func (c *Client) GetVault(ctx context.Context, id uint) (vault.Vault, error) {
	var v vault.Vault
	if err := c.do(ctx, fiber.MethodGet, fmt.Sprintf("/vaults/%d", id), nil, nil, &v); err != nil {
		return vault.Vault{}, notFoundAs(err, "kasa", id)
	}
	return v, nil
}

func (c *Client) WriteMovement(ctx context.Context, m vault.Movement) (uint, error) {
	var r idResponse
	if err := c.do(ctx, fiber.MethodPost, "/vault-movements", nil, m, &r); err != nil {
		return 0, err
	}
	return r.ID, nil
}

func (c *Client) ListMovements(ctx context.Context, vaultID uint, f vault.MovementFilter) ([]vault.Entry, error) {
	q := url.Values{}
	if !f.From.IsZero() {
		q.Set("from", f.From.Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		q.Set("to", f.To.Format(time.RFC3339))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	var out []vault.Entry
	if err := c.do(ctx, fiber.MethodGet, fmt.Sprintf("/vaults/%d/movements", vaultID), q, nil, &out); err != nil {
		return nil, notFoundAs(err, "kasa", vaultID)
	}
	return out, nil
}

func (c *Client) SaveSale(ctx context.Context, s sale.FinalizedSale) (uint, error) {
	var r idResponse
	if err := c.do(ctx, fiber.MethodPost, "/sales", nil, s, &r); err != nil {
		return 0, err
	}
	return r.ID, nil
}

func (c *Client) ListAccounts(ctx context.Context, branchID uint, kind models.AccountKind) ([]account.Ref, error) {
	q := url.Values{}
	q.Set("kind", string(kind))
	if branchID > 0 {
		q.Set("branch_id", strconv.FormatUint(uint64(branchID), 10))
	}

	var out []account.Ref
	if err := c.do(ctx, fiber.MethodGet, "/accounts", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do isteği gönderir. 2xx dışı yanıtlar *apperr.NetworkError olur.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := method + " " + path
	if err := ctx.Err(); err != nil {
		return &apperr.NetworkError{Op: op, Err: err}
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if len(query) > 0 {
		a.QueryString(query.Encode())
	}
	a.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if body != nil {
		a.JSON(body)
	}
	a.Timeout(c.requestTimeout(ctx))

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return &apperr.NetworkError{Op: op, Err: err}
	}

	start := time.Now()
	status, raw, errs := a.Bytes()
	c.log.Debug().Str("op", op).Int("status", status).Dur("duration", time.Since(start)).Msg("backend çağrısı")

	if len(errs) > 0 {
		return &apperr.NetworkError{Op: op, Err: errors.Join(errs...)}
	}
	if status < 200 || status >= 300 {
		return &apperr.NetworkError{Op: op, Status: status, Details: errorDetails(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &apperr.NetworkError{Op: op, Status: status, Err: fmt.Errorf("yanıt çözülemedi: %w", err)}
	}
	return nil
}

// requestTimeout ctx'in kalan süresi yapılandırılan zaman aşımından kısaysa onu kullanır.
func (c *Client) requestTimeout(ctx context.Context) time.Duration {
	t := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < t || t <= 0 {
			t = left
		}
	}
	return t
}

func errorDetails(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func notFoundAs(err error, entity string, id any) error {
	var ne *apperr.NetworkError
	if errors.As(err, &ne) && ne.Status == fiber.StatusNotFound {
		return apperr.NotFound(entity, id)
	}
	return err
}
