package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/rdc"
)

// TemplateView is a global template merged with the tenant's override.
type TemplateView struct {
	*types.ShiftTemplate
	IsEnabled   bool   `json:"is_enabled"`
	CustomName  string `json:"custom_name,omitempty"`
	DisplayName string `json:"display_name"`
}

type TemplateConfigInput struct {
	IsEnabled  bool   `json:"isEnabled"`
	CustomName string `json:"customName"`
}

type TeamInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type TeamPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	IsActive    *bool   `json:"isActive"`
}

type TeamMemberInput struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role"`
}

type PatternInput struct {
	Weekday         int       `json:"weekday"`
	ShiftTemplateID uuid.UUID `json:"shiftTemplateId"`
	TeamID          uuid.UUID `json:"teamId"`
}

func (s *shiftService) SeedTemplates(dbc dbctx.Context) (int, error) {
	tpls, err := rdc.ShiftTemplates()
	if err != nil {
		return 0, err
	}
	if err := s.templateRepo.Upsert(dbc, tpls); err != nil {
		return 0, err
	}
	return len(tpls), nil
}

// templateViews lists the active templates with the tenant override applied.
func (s *shiftService) templateViews(dbc dbctx.Context, tenantID uuid.UUID) ([]TemplateView, error) {
	tpls, err := s.templateRepo.ListActive(dbc)
	if err != nil {
		return nil, err
	}
	cfgs, err := s.templateRepo.ListConfigs(dbc, tenantID)
	if err != nil {
		return nil, err
	}
	byTemplate := make(map[uuid.UUID]*types.TenantShiftConfig, len(cfgs))
	for _, c := range cfgs {
		byTemplate[c.ShiftTemplateID] = c
	}
	out := make([]TemplateView, 0, len(tpls))
	for _, t := range tpls {
		out = append(out, mergeTemplate(t, byTemplate[t.ID]))
	}
	return out, nil
}

func mergeTemplate(t *types.ShiftTemplate, cfg *types.TenantShiftConfig) TemplateView {
	v := TemplateView{ShiftTemplate: t, IsEnabled: true, DisplayName: t.Name}
	if cfg != nil {
		v.IsEnabled = cfg.IsEnabled
		v.CustomName = cfg.CustomName
		if cfg.CustomName != "" {
			v.DisplayName = cfg.CustomName
		}
	}
	return v
}

func (s *shiftService) ListTemplates(dbc dbctx.Context) ([]TemplateView, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.templateViews(dbc, rd.TenantID)
}

func (s *shiftService) ConfigureTemplate(dbc dbctx.Context, templateID uuid.UUID, in TemplateConfigInput) (*TemplateView, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	tpl, err := s.templateRepo.GetByID(dbc, templateID)
	if err != nil {
		return nil, err
	}
	if tpl == nil || !tpl.IsActive {
		return nil, apierr.NotFound("shift template")
	}
	cfg := &types.TenantShiftConfig{
		TenantID:        rd.TenantID,
		ShiftTemplateID: tpl.ID,
		IsEnabled:       in.IsEnabled,
		CustomName:      strings.TrimSpace(in.CustomName),
		CreatedBy:       rd.UserID,
	}
	if err := s.templateRepo.UpsertConfig(dbc, cfg); err != nil {
		return nil, err
	}
	v := mergeTemplate(tpl, cfg)
	return &v, nil
}

func validColor(c string) bool {
	if len(c) != 7 || c[0] != '#' {
		return false
	}
	for _, r := range strings.ToLower(c[1:]) {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

func validateTeam(t *types.Team) error {
	fields := fieldErrors{}
	fields.required("name", t.Name)
	if t.Color != "" && !validColor(t.Color) {
		fields["color"] = "must be a hex color like #1A2B3C"
	}
	return fields.err()
}

func (s *shiftService) CreateTeam(dbc dbctx.Context, in TeamInput) (*types.Team, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	team := &types.Team{
		TenantID:    rd.TenantID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Color:       in.Color,
		IsActive:    true,
		CreatedBy:   rd.UserID,
	}
	if err := validateTeam(team); err != nil {
		return nil, err
	}
	if err := s.teamRepo.Create(dbc, team); err != nil {
		return nil, err
	}
	return team, nil
}

func (s *shiftService) ListTeams(dbc dbctx.Context, activeOnly bool) ([]*types.Team, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.teamRepo.List(dbc, rd.TenantID, activeOnly)
}

func (s *shiftService) loadTeam(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Team, error) {
	team, err := s.teamRepo.GetByID(dbc, tenantID, id)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, apierr.NotFound("team")
	}
	return team, nil
}

func (s *shiftService) GetTeam(dbc dbctx.Context, id uuid.UUID) (*types.Team, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.loadTeam(dbc, rd.TenantID, id)
}

func (s *shiftService) UpdateTeam(dbc dbctx.Context, id uuid.UUID, in TeamPatch) (*types.Team, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	team, err := s.loadTeam(dbc, rd.TenantID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		team.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		team.Description = *in.Description
	}
	if in.Color != nil {
		team.Color = *in.Color
	}
	if in.IsActive != nil {
		team.IsActive = *in.IsActive
	}
	if err := validateTeam(team); err != nil {
		return nil, err
	}
	updates := map[string]any{
		"name":        team.Name,
		"description": team.Description,
		"color":       team.Color,
		"is_active":   team.IsActive,
	}
	if err := s.teamRepo.UpdateFields(dbc, rd.TenantID, id, updates); err != nil {
		return nil, err
	}
	return s.loadTeam(dbc, rd.TenantID, id)
}

// DeleteTeam soft deletes the team and drops it from the weekly pattern.
func (s *shiftService) DeleteTeam(dbc dbctx.Context, id uuid.UUID) error {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return err
	}
	if _, err := s.loadTeam(dbc, rd.TenantID, id); err != nil {
		return err
	}
	return inTx(dbc, s.db, func(inner dbctx.Context) error {
		pattern, err := s.teamRepo.ListPattern(inner, rd.TenantID)
		if err != nil {
			return err
		}
		kept := make([]*types.WeeklyPatternAssignment, 0, len(pattern))
		for _, p := range pattern {
			if p.TeamID != id {
				kept = append(kept, &types.WeeklyPatternAssignment{
					TenantID:        p.TenantID,
					Weekday:         p.Weekday,
					ShiftTemplateID: p.ShiftTemplateID,
					TeamID:          p.TeamID,
					CreatedBy:       p.CreatedBy,
				})
			}
		}
		if len(kept) != len(pattern) {
			if err := s.teamRepo.ReplacePattern(inner, rd.TenantID, kept); err != nil {
				return err
			}
		}
		return s.teamRepo.SoftDelete(inner, rd.TenantID, id)
	})
}

// tenantUser loads an active user of the tenant.
func (s *shiftService) tenantUser(dbc dbctx.Context, tenantID, userID uuid.UUID) (*types.User, error) {
	u, err := s.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.TenantID == nil || *u.TenantID != tenantID {
		return nil, apierr.NotFound("user")
	}
	if !u.IsActive {
		return nil, apierr.Rule("user_inactive", "user is inactive")
	}
	return u, nil
}

func (s *shiftService) AddTeamMember(dbc dbctx.Context, teamID uuid.UUID, in TeamMemberInput) (*types.Team, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	team, err := s.loadTeam(dbc, rd.TenantID, teamID)
	if err != nil {
		return nil, err
	}
	if _, err := s.tenantUser(dbc, rd.TenantID, in.UserID); err != nil {
		return nil, err
	}
	for _, m := range team.Members {
		if m.UserID == in.UserID {
			return nil, apierr.Conflict("already_member", "user is already a member of this team")
		}
	}
	m := &types.TeamMember{
		TenantID: rd.TenantID,
		TeamID:   team.ID,
		UserID:   in.UserID,
		Role:     strings.TrimSpace(in.Role),
		AddedBy:  rd.UserID,
	}
	if err := s.teamRepo.AddMember(dbc, m); err != nil {
		return nil, err
	}
	return s.loadTeam(dbc, rd.TenantID, teamID)
}

func (s *shiftService) RemoveTeamMember(dbc dbctx.Context, teamID, userID uuid.UUID) error {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return err
	}
	if _, err := s.loadTeam(dbc, rd.TenantID, teamID); err != nil {
		return err
	}
	removed, err := s.teamRepo.RemoveMember(dbc, teamID, userID, s.now())
	if err != nil {
		return err
	}
	if !removed {
		return apierr.NotFound("team member")
	}
	return nil
}

func (s *shiftService) GetWeeklyPattern(dbc dbctx.Context) ([]*types.WeeklyPatternAssignment, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.teamRepo.ListPattern(dbc, rd.TenantID)
}

// SetWeeklyPattern replaces the whole pattern. One team per (weekday, template).
func (s *shiftService) SetWeeklyPattern(dbc dbctx.Context, in []PatternInput) ([]*types.WeeklyPatternAssignment, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	views, err := s.templateViews(dbc, rd.TenantID)
	if err != nil {
		return nil, err
	}
	enabled := map[uuid.UUID]bool{}
	for _, v := range views {
		enabled[v.ID] = v.IsEnabled
	}
	teams, err := s.teamRepo.List(dbc, rd.TenantID, true)
	if err != nil {
		return nil, err
	}
	activeTeam := map[uuid.UUID]bool{}
	for _, t := range teams {
		activeTeam[t.ID] = true
	}

	type slot struct {
		weekday  int
		template uuid.UUID
	}
	seen := map[slot]bool{}
	fields := fieldErrors{}
	rows := make([]*types.WeeklyPatternAssignment, 0, len(in))
	for i, p := range in {
		key := fmt.Sprintf("assignments[%d]", i)
		switch {
		case p.Weekday < 0 || p.Weekday > 6:
			fields[key+".weekday"] = "must be between 0 (Sunday) and 6 (Saturday)"
		case !enabled[p.ShiftTemplateID]:
			fields[key+".shiftTemplateId"] = "must reference an enabled shift template"
		case !activeTeam[p.TeamID]:
			fields[key+".teamId"] = "must reference an active team"
		case seen[slot{p.Weekday, p.ShiftTemplateID}]:
			fields[key] = "duplicate weekday and shift template"
		}
		seen[slot{p.Weekday, p.ShiftTemplateID}] = true
		rows = append(rows, &types.WeeklyPatternAssignment{
			TenantID:        rd.TenantID,
			Weekday:         p.Weekday,
			ShiftTemplateID: p.ShiftTemplateID,
			TeamID:          p.TeamID,
			CreatedBy:       rd.UserID,
		})
	}
	if err := fields.err(); err != nil {
		return nil, err
	}
	if err := s.teamRepo.ReplacePattern(dbc, rd.TenantID, rows); err != nil {
		return nil, err
	}
	return s.teamRepo.ListPattern(dbc, rd.TenantID)
}
