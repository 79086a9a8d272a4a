package account

import (
	"context"
	"sort"

	"kasa-backend/internal/currency"
	"kasa-backend/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Kinds seçim listelerinde gösterilen hesap türleri.
var Kinds = []models.AccountKind{models.AccountKindCash, models.AccountKindBank, models.AccountKindPOS}

// Ref ödeme ekranındaki hesap seçimi için özet.
type Ref struct {
	ID       uint               `json:"id"`
	BranchID uint               `json:"branch_id"`
	Kind     models.AccountKind `json:"kind"`
	Name     string             `json:"name"`
	Currency currency.Code      `json:"currency"`
	Balance  decimal.Decimal    `json:"balance"`
}

// Lister branchID 0 ise tüm şubeleri döner.
type Lister interface {
	ListAccounts(ctx context.Context, branchID uint, kind models.AccountKind) ([]Ref, error)
}

// ListAll üç türü eşzamanlı çeker. Herhangi biri hata verirse sonuç dönmez.
func ListAll(ctx context.Context, l Lister, branchID uint) (map[models.AccountKind][]Ref, error) {
	results := make([][]Ref, len(Kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range Kinds {
		i, kind := i, kind
		g.Go(func() error {
			refs, err := l.ListAccounts(gctx, branchID, kind)
			if err != nil {
				return err
			}
			sort.Slice(refs, func(a, b int) bool { return refs[a].Name < refs[b].Name })
			results[i] = refs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[models.AccountKind][]Ref, len(Kinds))
	for i, kind := range Kinds {
		if results[i] == nil {
			results[i] = []Ref{}
		}
		out[kind] = results[i]
	}
	return out, nil
}
