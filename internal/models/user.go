package models

import "time"

type UserRole string

const (
	RoleSuperAdmin  UserRole = "super_admin"
	RoleBranchAdmin UserRole = "branch_admin"
)

// User: token üretiminde kimlik kaynağı. Şifre/oturum yönetimi bu serviste yok.
type User struct {
	ID        uint `gorm:"primaryKey"`
	BranchID  *uint
	Branch    *Branch
	Name      string   `gorm:"size:100;not null"`
	Email     string   `gorm:"size:100;uniqueIndex;not null"`
	Role      UserRole `gorm:"size:20;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
