package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/tenancy"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/user"
)

func SeedTenant(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Tenant {
	tb.Helper()
	t := &types.Tenant{
		ID:     uuid.New(),
		Name:   name,
		CNPJ:   uuid.NewString()[:14],
		Email:  "contato@" + uuid.NewString()[:6] + ".com.br",
		Status: tenancy.TenantActive,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed tenant: %v", err)
	}
	sub := &types.Subscription{
		TenantID:   t.ID,
		Plan:       tenancy.PlanEnterprise,
		Status:     tenancy.SubscriptionActive,
		PriceCents: tenancy.Plans[tenancy.PlanEnterprise].PriceCents,
	}
	if err := tx.WithContext(ctx).Create(sub).Error; err != nil {
		tb.Fatalf("seed subscription: %v", err)
	}
	t.Subscription = sub
	return t
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, email, role string) *types.User {
	tb.Helper()
	var tid *uuid.UUID
	if tenantID != uuid.Nil {
		tid = &tenantID
	}
	u := &types.User{
		ID:       uuid.New(),
		TenantID: tid,
		Email:    email,
		Password: "pw",
		Name:     "Test " + role,
		Role:     role,
		IsActive: true,
	}
	if role == "" {
		u.Role = user.RoleAdmin
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedResident(tb testing.TB, ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, name, admission, level string) *types.Resident {
	tb.Helper()
	r := &types.Resident{
		ID:              uuid.New(),
		TenantID:        tenantID,
		FullName:        name,
		CPF:             uuid.NewString()[:11],
		BirthDate:       "1940-01-01",
		AdmissionDate:   admission,
		DependencyLevel: level,
		Status:          residents.StatusActive,
	}
	r.VersionNumber = 1
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed resident: %v", err)
	}
	return r
}
