package auth

import (
	"time"

	"kasa-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type JWTCustomClaims struct {
	UserID   uint            `json:"user_id"`
	Name     string          `json:"name"`
	Role     models.UserRole `json:"role"`
	BranchID *uint           `json:"branch_id"`
	jwt.RegisteredClaims
}

// Identity token'a gömülen kullanıcı bilgisi.
type Identity struct {
	UserID   uint
	Name     string
	Role     models.UserRole
	BranchID *uint
}

func IdentityFromUser(u *models.User) Identity {
	return Identity{UserID: u.ID, Name: u.Name, Role: u.Role, BranchID: u.BranchID}
}

func GenerateToken(secret string, id Identity, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour // 1 gün
	}
	now := time.Now()
	claims := &JWTCustomClaims{
		UserID:   id.UserID,
		Name:     id.Name,
		Role:     id.Role,
		BranchID: id.BranchID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
