package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/shifts"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dates"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/rdc"
)

// MaxShiftRangeDays bounds generation and coverage requests.
const MaxShiftRangeDays = 92

type ShiftPatch struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

type GenerateResult struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Created   int    `json:"created"`
	Skipped   int    `json:"skipped"`
}

type ShiftCoverage struct {
	ShiftID          uuid.UUID `json:"shift_id"`
	Date             string    `json:"date"`
	TemplateType     string    `json:"template_type"`
	DurationHours    int       `json:"duration_hours"`
	AssignedCount    int       `json:"assigned_count"`
	MinimumRequired  int       `json:"minimum_required"`
	ComplianceStatus string    `json:"compliance_status"`
}

type CoverageSummary struct {
	Total        int `json:"total"`
	Compliant    int `json:"compliant"`
	Attention    int `json:"attention"`
	NonCompliant int `json:"non_compliant"`
}

type CoverageReport struct {
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Shifts    []ShiftCoverage `json:"shifts"`
	Summary   CoverageSummary `json:"summary"`
}

type ShiftService interface {
	SeedTemplates(dbc dbctx.Context) (int, error)
	ListTemplates(dbc dbctx.Context) ([]TemplateView, error)
	ConfigureTemplate(dbc dbctx.Context, templateID uuid.UUID, in TemplateConfigInput) (*TemplateView, error)

	CreateTeam(dbc dbctx.Context, in TeamInput) (*types.Team, error)
	ListTeams(dbc dbctx.Context, activeOnly bool) ([]*types.Team, error)
	GetTeam(dbc dbctx.Context, id uuid.UUID) (*types.Team, error)
	UpdateTeam(dbc dbctx.Context, id uuid.UUID, in TeamPatch) (*types.Team, error)
	DeleteTeam(dbc dbctx.Context, id uuid.UUID) error
	AddTeamMember(dbc dbctx.Context, teamID uuid.UUID, in TeamMemberInput) (*types.Team, error)
	RemoveTeamMember(dbc dbctx.Context, teamID, userID uuid.UUID) error

	GetWeeklyPattern(dbc dbctx.Context) ([]*types.WeeklyPatternAssignment, error)
	SetWeeklyPattern(dbc dbctx.Context, in []PatternInput) ([]*types.WeeklyPatternAssignment, error)

	GenerateShifts(dbc dbctx.Context, start, end string) (*GenerateResult, error)
	// GenerateForTenant is the principal-less variant used by the scheduler.
	GenerateForTenant(dbc dbctx.Context, tenantID uuid.UUID, start, end string) (*GenerateResult, error)
	ListShifts(dbc dbctx.Context, start, end string) ([]*types.Shift, error)
	GetShift(dbc dbctx.Context, id uuid.UUID) (*types.Shift, error)
	UpdateShift(dbc dbctx.Context, id uuid.UUID, in ShiftPatch) (*types.Shift, error)
	AssignMember(dbc dbctx.Context, shiftID, userID uuid.UUID) (*types.Shift, error)
	RemoveMember(dbc dbctx.Context, shiftID, userID uuid.UUID) (*types.Shift, error)

	CalculateStaffing(dbc dbctx.Context, date string) (*rdc.StaffingResult, error)
	CoverageReport(dbc dbctx.Context, start, end string) (*CoverageReport, error)
}

type shiftService struct {
	db           *gorm.DB
	log          *logger.Logger
	templateRepo repos.ShiftTemplateRepo
	teamRepo     repos.TeamRepo
	repo         repos.ShiftRepo
	residentRepo repos.ResidentRepo
	userRepo     repos.UserRepo
	now          func() time.Time
}

func NewShiftService(
	db *gorm.DB,
	log *logger.Logger,
	templateRepo repos.ShiftTemplateRepo,
	teamRepo repos.TeamRepo,
	repo repos.ShiftRepo,
	residentRepo repos.ResidentRepo,
	userRepo repos.UserRepo,
) ShiftService {
	return &shiftService{
		db:           db,
		log:          log.With("service", "ShiftService"),
		templateRepo: templateRepo,
		teamRepo:     teamRepo,
		repo:         repo,
		residentRepo: residentRepo,
		userRepo:     userRepo,
		now:          time.Now,
	}
}

func shiftRange(start, end string) ([]string, error) {
	fields := fieldErrors{}
	fields.date("startDate", start)
	fields.date("endDate", end)
	if err := fields.err(); err != nil {
		return nil, err
	}
	days, err := dates.Range(start, end)
	if err != nil {
		return nil, apierr.Validation(map[string]string{"endDate": "must not be before the start date"})
	}
	if len(days) > MaxShiftRangeDays {
		return nil, apierr.Rule("range_too_large", "date range is limited to 92 days")
	}
	return days, nil
}

func (s *shiftService) GenerateShifts(dbc dbctx.Context, start, end string) (*GenerateResult, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.generate(dbc, rd.TenantID, rd.UserID, start, end)
}

func (s *shiftService) GenerateForTenant(dbc dbctx.Context, tenantID uuid.UUID, start, end string) (*GenerateResult, error) {
	return s.generate(dbc, tenantID, uuid.Nil, start, end)
}

// generate materializes the weekly pattern over [start, end]. Existing
// (date, template) slots are left untouched, so reruns only fill gaps.
func (s *shiftService) generate(dbc dbctx.Context, tenantID, actorID uuid.UUID, start, end string) (*GenerateResult, error) {
	days, err := shiftRange(start, end)
	if err != nil {
		return nil, err
	}
	out := &GenerateResult{StartDate: start, EndDate: end}
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		pattern, err := s.teamRepo.ListPattern(inner, tenantID)
		if err != nil {
			return err
		}
		if len(pattern) == 0 {
			return nil
		}
		views, err := s.templateViews(inner, tenantID)
		if err != nil {
			return err
		}
		enabled := map[uuid.UUID]bool{}
		for _, v := range views {
			enabled[v.ID] = v.IsEnabled
		}
		teams, err := s.teamRepo.List(inner, tenantID, true)
		if err != nil {
			return err
		}
		members := map[uuid.UUID][]types.TeamMember{}
		for _, t := range teams {
			members[t.ID] = t.Members
		}
		byWeekday := map[int][]*types.WeeklyPatternAssignment{}
		for _, p := range pattern {
			if !enabled[p.ShiftTemplateID] {
				continue
			}
			if _, active := members[p.TeamID]; !active {
				continue
			}
			byWeekday[p.Weekday] = append(byWeekday[p.Weekday], p)
		}

		for _, day := range days {
			wd, _ := dates.Weekday(day)
			for _, p := range byWeekday[wd] {
				teamID := p.TeamID
				shift := &types.Shift{
					TenantID:        tenantID,
					Date:            day,
					ShiftTemplateID: p.ShiftTemplateID,
					TeamID:          &teamID,
					Status:          shifts.ShiftScheduled,
					IsFromPattern:   true,
					CreatedBy:       actorID,
				}
				created, err := s.repo.CreateIfAbsent(inner, shift)
				if err != nil {
					return err
				}
				if !created {
					out.Skipped++
					continue
				}
				out.Created++
				rows := make([]*types.ShiftMember, 0, len(members[teamID]))
				for _, m := range members[teamID] {
					rows = append(rows, &types.ShiftMember{
						TenantID:   tenantID,
						ShiftID:    shift.ID,
						UserID:     m.UserID,
						AssignedBy: actorID,
					})
				}
				if err := s.repo.AddMembers(inner, rows); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("shifts generated", "tenant_id", tenantID, "start", start, "end", end, "created", out.Created, "skipped", out.Skipped)
	return out, nil
}

func (s *shiftService) ListShifts(dbc dbctx.Context, start, end string) ([]*types.Shift, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if _, err := shiftRange(start, end); err != nil {
		return nil, err
	}
	return s.repo.ListRange(dbc, rd.TenantID, start, end)
}

func (s *shiftService) loadShift(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Shift, error) {
	shift, err := s.repo.GetByID(dbc, tenantID, id)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, apierr.NotFound("shift")
	}
	return shift, nil
}

func (s *shiftService) GetShift(dbc dbctx.Context, id uuid.UUID) (*types.Shift, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.loadShift(dbc, rd.TenantID, id)
}

func shiftClosed(status string) bool {
	return status == shifts.ShiftCompleted || status == shifts.ShiftCancelled
}

func (s *shiftService) UpdateShift(dbc dbctx.Context, id uuid.UUID, in ShiftPatch) (*types.Shift, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	shift, err := s.loadShift(dbc, rd.TenantID, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*in.Status))
		if !shifts.ValidShiftStatus(status) {
			return nil, apierr.Validation(map[string]string{"status": "must be SCHEDULED, IN_PROGRESS, COMPLETED or CANCELLED"})
		}
		if status != shift.Status {
			if shiftClosed(shift.Status) {
				return nil, apierr.Conflict("shift_closed", "shift is already "+strings.ToLower(shift.Status))
			}
			updates["status"] = status
		}
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateFields(dbc, rd.TenantID, id, updates); err != nil {
			return nil, err
		}
	}
	return s.loadShift(dbc, rd.TenantID, id)
}

func (s *shiftService) AssignMember(dbc dbctx.Context, shiftID, userID uuid.UUID) (*types.Shift, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	shift, err := s.loadShift(dbc, rd.TenantID, shiftID)
	if err != nil {
		return nil, err
	}
	if shiftClosed(shift.Status) {
		return nil, apierr.Conflict("shift_closed", "shift is already "+strings.ToLower(shift.Status))
	}
	if _, err := s.tenantUser(dbc, rd.TenantID, userID); err != nil {
		return nil, err
	}
	member, err := s.repo.IsMember(dbc, shiftID, userID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, apierr.Conflict("already_assigned", "user is already assigned to this shift")
	}
	row := &types.ShiftMember{TenantID: rd.TenantID, ShiftID: shiftID, UserID: userID, AssignedBy: rd.UserID}
	if err := s.repo.AddMembers(dbc, []*types.ShiftMember{row}); err != nil {
		return nil, err
	}
	return s.loadShift(dbc, rd.TenantID, shiftID)
}

func (s *shiftService) RemoveMember(dbc dbctx.Context, shiftID, userID uuid.UUID) (*types.Shift, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	shift, err := s.loadShift(dbc, rd.TenantID, shiftID)
	if err != nil {
		return nil, err
	}
	if shiftClosed(shift.Status) {
		return nil, apierr.Conflict("shift_closed", "shift is already "+strings.ToLower(shift.Status))
	}
	removed, err := s.repo.RemoveMember(dbc, shiftID, userID, rd.UserID, s.now())
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, apierr.NotFound("shift member")
	}
	return s.loadShift(dbc, rd.TenantID, shiftID)
}

func (s *shiftService) staffing(dbc dbctx.Context, tenantID uuid.UUID, date string) (rdc.StaffingResult, error) {
	present, err := s.residentRepo.ListPresentOn(dbc, tenantID, date)
	if err != nil {
		return rdc.StaffingResult{}, err
	}
	return rdc.CalculateStaffing(date, present), nil
}

func (s *shiftService) CalculateStaffing(dbc dbctx.Context, date string) (*rdc.StaffingResult, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if date == "" {
		date = dates.Today(s.now())
	}
	if !dates.Valid(date) {
		return nil, apierr.Validation(map[string]string{"date": "must be a date in YYYY-MM-DD format"})
	}
	res, err := s.staffing(dbc, rd.TenantID, date)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CoverageReport compares each non-cancelled shift's assigned caregivers with
// the RDC minimum for the residents present on its date.
func (s *shiftService) CoverageReport(dbc dbctx.Context, start, end string) (*CoverageReport, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if _, err := shiftRange(start, end); err != nil {
		return nil, err
	}
	list, err := s.repo.ListRange(dbc, rd.TenantID, start, end)
	if err != nil {
		return nil, err
	}
	out := &CoverageReport{StartDate: start, EndDate: end, Shifts: []ShiftCoverage{}}
	byDate := map[string]rdc.StaffingResult{}
	for _, sh := range list {
		if sh.Status == shifts.ShiftCancelled {
			continue
		}
		st, ok := byDate[sh.Date]
		if !ok {
			if st, err = s.staffing(dbc, rd.TenantID, sh.Date); err != nil {
				return nil, err
			}
			byDate[sh.Date] = st
		}
		hours, kind := 8, ""
		if sh.Template != nil {
			hours, kind = sh.Template.DurationHours, sh.Template.Type
		}
		minimum := rdc.MinimumCaregivers(st.Residents, hours)
		row := ShiftCoverage{
			ShiftID:          sh.ID,
			Date:             sh.Date,
			TemplateType:     kind,
			DurationHours:    hours,
			AssignedCount:    len(sh.Members),
			MinimumRequired:  minimum,
			ComplianceStatus: rdc.CoverageStatus(len(sh.Members), minimum),
		}
		out.Shifts = append(out.Shifts, row)
		out.Summary.Total++
		switch row.ComplianceStatus {
		case rdc.CoverageCompliant:
			out.Summary.Compliant++
		case rdc.CoverageAttention:
			out.Summary.Attention++
		default:
			out.Summary.NonCompliant++
		}
	}
	return out, nil
}
