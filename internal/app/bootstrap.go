package app

import (
	"context"
	"fmt"
	"strings"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/user"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/services"
)

type SeedResult struct {
	QuestionVersion int
	QuestionsLoaded bool
	ShiftTemplates  int
}

// Seed loads the public reference data: the compliance question bank and the shift templates.
// Both steps are idempotent.
func (a *App) Seed(ctx context.Context) (*SeedResult, error) {
	dbc := dbctx.Context{Ctx: ctx}
	version, created, err := a.Services.Compliance.SeedQuestionBank(dbc)
	if err != nil {
		return nil, fmt.Errorf("seed question bank: %w", err)
	}
	n, err := a.Services.Shift.SeedTemplates(dbc)
	if err != nil {
		return nil, fmt.Errorf("seed shift templates: %w", err)
	}
	return &SeedResult{
		QuestionVersion: version.VersionNumber,
		QuestionsLoaded: created,
		ShiftTemplates:  n,
	}, nil
}

// CreateSuperadmin adds a platform operator with no tenant.
func (a *App) CreateSuperadmin(ctx context.Context, email, name, password string) (*types.User, error) {
	dbc := dbctx.Context{Ctx: ctx}
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	fields := map[string]string{}
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "must be a valid email"
	}
	if name == "" {
		fields["name"] = "is required"
	}
	if len(fields) > 0 {
		return nil, apierr.Validation(fields)
	}

	existing, err := a.Repos.User.GetByEmail(dbc, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apierr.Conflict("email_taken", "a user with this email already exists")
	}
	hashed, err := services.HashPassword(password)
	if err != nil {
		return nil, err
	}
	created, err := a.Repos.User.Create(dbc, []*types.User{{
		Email:    email,
		Name:     name,
		Password: hashed,
		Role:     user.RoleSuperadmin,
		IsActive: true,
	}})
	if err != nil {
		return nil, err
	}
	a.Log.Info("superadmin created", "user_id", created[0].ID)
	return created[0], nil
}
