package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kasa-backend/internal/auth"
	"kasa-backend/internal/models"

	"github.com/spf13/cobra"
)

func newTokenCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "JWT üretir",
		Long: `JWT_SECRET ile imzalı Bearer token üretir.

--email verilirse kullanıcı veritabanından okunur (DATA_BACKEND=postgres).
Aksi halde kimlik bayraklardan kurulur.`,
		Example: `  kasactl token --email mudur@sube1.com
  kasactl token --user-id 1 --name Admin --role super_admin --ttl 2h
  kasactl token --user-id 7 --name Kasiyer --role branch_admin --branch-id 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, e)
		},
	}

	cmd.Flags().String("email", "", "Veritabanındaki kullanıcının email adresi")
	cmd.Flags().Uint("user-id", 0, "Kullanıcı id")
	cmd.Flags().String("name", "", "Kullanıcı adı")
	cmd.Flags().String("role", string(models.RoleSuperAdmin), "super_admin veya branch_admin")
	cmd.Flags().Uint("branch-id", 0, "branch_admin için şube id")
	cmd.Flags().Duration("ttl", 0, "Geçerlilik süresi (varsayılan 24h)")
	return cmd
}

func runToken(cmd *cobra.Command, e *env) error {
	if len(e.cfg.JWTSecret) < 32 {
		return errors.New("JWT_SECRET en az 32 karakter olmalı")
	}

	email, _ := cmd.Flags().GetString("email")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	var id auth.Identity
	if email != "" {
		src, err := e.open(e.cfg)
		if err != nil {
			return err
		}
		if src.users == nil {
			return errNoUsers
		}
		u, err := src.users.FindUserByEmail(context.Background(), strings.ToLower(strings.TrimSpace(email)))
		if err != nil {
			return err
		}
		id = auth.IdentityFromUser(u)
	} else {
		var err error
		if id, err = identityFromFlags(cmd); err != nil {
			return err
		}
	}

	token, err := auth.GenerateToken(e.cfg.JWTSecret, id, ttl)
	if err != nil {
		return fmt.Errorf("token üretilemedi: %w", err)
	}
	_, err = fmt.Fprintln(e.out, token)
	return err
}

func identityFromFlags(cmd *cobra.Command) (auth.Identity, error) {
	userID, _ := cmd.Flags().GetUint("user-id")
	name, _ := cmd.Flags().GetString("name")
	role, _ := cmd.Flags().GetString("role")
	branchID, _ := cmd.Flags().GetUint("branch-id")

	if userID == 0 {
		return auth.Identity{}, errors.New("--user-id veya --email zorunlu")
	}

	id := auth.Identity{UserID: userID, Name: name, Role: models.UserRole(role)}
	switch id.Role {
	case models.RoleSuperAdmin:
	case models.RoleBranchAdmin:
		if branchID == 0 {
			return auth.Identity{}, errors.New("branch_admin için --branch-id zorunlu")
		}
		id.BranchID = &branchID
	default:
		return auth.Identity{}, fmt.Errorf("bilinmeyen rol: %s", role)
	}
	return id, nil
}
