package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/indicators"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/tenancy"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dates"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/rdc"
)

const (
	monthMissing = "MISSING"

	defaultHistoryMonths = 12
	maxHistoryMonths     = 60
	minReopenReason      = 5
)

type IndicatorMonth struct {
	Year       int                    `json:"year"`
	Month      int                    `json:"month"`
	MonthLabel string                 `json:"month_label"`
	Status     string                 `json:"status"`
	Closure    *types.RdcMonthClosure `json:"closure,omitempty"`
	Indicators []*types.RdcIndicator  `json:"indicators"`
}

type AnnualIndicator struct {
	IndicatorType string  `json:"indicator_type"`
	Numerator     int     `json:"numerator"`
	Denominator   int     `json:"denominator"`
	Rate          float64 `json:"rate"`
	Status        string  `json:"status"`
}

type AnnualMonth struct {
	Month      int               `json:"month"`
	MonthLabel string            `json:"month_label"`
	Status     string            `json:"status"`
	Indicators []AnnualIndicator `json:"indicators"`
}

type AnnualSummary struct {
	TotalMonths   int  `json:"total_months"`
	ClosedMonths  int  `json:"closed_months"`
	OpenMonths    int  `json:"open_months"`
	MissingMonths int  `json:"missing_months"`
	ReadyToSubmit bool `json:"ready_to_submit"`
}

type AnnualReport struct {
	Year        int           `json:"year"`
	GeneratedAt time.Time     `json:"generated_at"`
	Summary     AnnualSummary `json:"summary"`
	Months      []AnnualMonth `json:"months"`
}

type RecomputeSummary struct {
	Year       int `json:"year"`
	Month      int `json:"month"`
	Tenants    int `json:"tenants"`
	Calculated int `json:"calculated"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

type IndicatorService interface {
	CalculateMonthly(dbc dbctx.Context, year, month int) (*IndicatorMonth, error)
	// CalculateForTenant is the principal-less variant used by jobs and the CLI.
	CalculateForTenant(dbc dbctx.Context, tenantID uuid.UUID, year, month int) (*IndicatorMonth, error)
	GetByMonth(dbc dbctx.Context, year, month int) (*IndicatorMonth, error)
	History(dbc dbctx.Context, months int) ([]IndicatorMonth, error)
	CloseMonth(dbc dbctx.Context, year, month int, note string) (*types.RdcMonthClosure, error)
	ReopenMonth(dbc dbctx.Context, year, month int, reason string) (*types.RdcMonthClosure, error)
	Annual(dbc dbctx.Context, year int) (*AnnualReport, error)
	// RecomputeCurrentMonth refreshes the open current month of every active tenant.
	RecomputeCurrentMonth(dbc dbctx.Context) (*RecomputeSummary, error)
}

type indicatorService struct {
	db           *gorm.DB
	log          *logger.Logger
	repo         repos.IndicatorRepo
	recordRepo   repos.DailyRecordRepo
	residentRepo repos.ResidentRepo
	tenantRepo   repos.TenantRepo
	concurrency  int
	now          func() time.Time
}

func NewIndicatorService(
	db *gorm.DB,
	log *logger.Logger,
	repo repos.IndicatorRepo,
	recordRepo repos.DailyRecordRepo,
	residentRepo repos.ResidentRepo,
	tenantRepo repos.TenantRepo,
) IndicatorService {
	return &indicatorService{
		db:           db,
		log:          log.With("service", "IndicatorService"),
		repo:         repo,
		recordRepo:   recordRepo,
		residentRepo: residentRepo,
		tenantRepo:   tenantRepo,
		concurrency:  4,
		now:          time.Now,
	}
}

func monthLabel(year, month int) string { return fmt.Sprintf("%02d/%d", month, year) }

// currentMonth returns the facility-local year and month.
func (s *indicatorService) currentMonth() (int, int) {
	t := s.now().In(dates.Location())
	return t.Year(), int(t.Month())
}

func (s *indicatorService) validateMonth(year, month int) error {
	fields := fieldErrors{}
	if year < 2000 || year > 2100 {
		fields["year"] = "must be between 2000 and 2100"
	}
	if month < 1 || month > 12 {
		fields["month"] = "must be between 1 and 12"
	}
	return fields.err()
}

func (s *indicatorService) CalculateMonthly(dbc dbctx.Context, year, month int) (*IndicatorMonth, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	actor := rd.UserID
	return s.calculate(dbc, rd.TenantID, &actor, year, month)
}

func (s *indicatorService) CalculateForTenant(dbc dbctx.Context, tenantID uuid.UUID, year, month int) (*IndicatorMonth, error) {
	return s.calculate(dbc, tenantID, nil, year, month)
}

func (s *indicatorService) calculate(dbc dbctx.Context, tenantID uuid.UUID, actor *uuid.UUID, year, month int) (*IndicatorMonth, error) {
	if err := s.validateMonth(year, month); err != nil {
		return nil, err
	}
	cy, cm := s.currentMonth()
	if year > cy || (year == cy && month > cm) {
		return nil, apierr.Rule("future_month", "indicators cannot be calculated for a future month")
	}
	closure, err := s.repo.GetClosure(dbc, tenantID, year, month)
	if err != nil {
		return nil, err
	}
	if closure != nil && closure.Status == indicators.MonthClosed {
		return nil, apierr.Conflict("month_closed", "month is closed; reopen it before recalculating")
	}

	start, end := dates.MonthBounds(year, month)
	census := dates.MonthDay(year, month, indicators.DenominatorDay)
	present, err := s.residentRepo.ListPresentOn(dbc, tenantID, census)
	if err != nil {
		return nil, err
	}
	subtypes := make([]string, 0, len(rdc.SubtypeFor))
	for _, typ := range indicators.Types {
		subtypes = append(subtypes, rdc.SubtypeFor[typ])
	}
	incidents, err := s.recordRepo.ListIncidents(dbc, tenantID, start, end, subtypes)
	if err != nil {
		return nil, err
	}

	values := rdc.ComputeIndicators(incidents, rdc.Denominator(census, present))
	at := s.now()
	rows := make([]*types.RdcIndicator, 0, len(values))
	for _, v := range values {
		ids, err := json.Marshal(v.IncidentIDs)
		if err != nil {
			return nil, err
		}
		rows = append(rows, &types.RdcIndicator{
			TenantID:      tenantID,
			Year:          year,
			Month:         month,
			IndicatorType: v.Type,
			Numerator:     v.Numerator,
			Denominator:   v.Denominator,
			Rate:          v.Rate,
			IncidentIDs:   datatypes.JSON(ids),
			CalculatedAt:  at,
			CalculatedBy:  actor,
		})
	}
	if err := s.repo.Upsert(dbc, rows); err != nil {
		return nil, err
	}
	s.log.Debug("rdc indicators calculated", "tenant_id", tenantID, "year", year, "month", month, "incidents", len(incidents))
	return s.month(dbc, tenantID, year, month)
}

func (s *indicatorService) month(dbc dbctx.Context, tenantID uuid.UUID, year, month int) (*IndicatorMonth, error) {
	rows, err := s.repo.ListByMonth(dbc, tenantID, year, month)
	if err != nil {
		return nil, err
	}
	closure, err := s.repo.GetClosure(dbc, tenantID, year, month)
	if err != nil {
		return nil, err
	}
	return buildMonth(year, month, rows, closure), nil
}

func buildMonth(year, month int, rows []*types.RdcIndicator, closure *types.RdcMonthClosure) *IndicatorMonth {
	out := &IndicatorMonth{
		Year:       year,
		Month:      month,
		MonthLabel: monthLabel(year, month),
		Status:     indicators.MonthOpen,
		Closure:    closure,
		Indicators: rows,
	}
	if out.Indicators == nil {
		out.Indicators = []*types.RdcIndicator{}
	}
	switch {
	case closure != nil && closure.Status == indicators.MonthClosed:
		out.Status = indicators.MonthClosed
	case len(rows) == 0:
		out.Status = monthMissing
	}
	return out
}

func (s *indicatorService) GetByMonth(dbc dbctx.Context, year, month int) (*IndicatorMonth, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validateMonth(year, month); err != nil {
		return nil, err
	}
	return s.month(dbc, rd.TenantID, year, month)
}

// History returns the calculated months within the last n months, oldest first.
func (s *indicatorService) History(dbc dbctx.Context, months int) ([]IndicatorMonth, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if months <= 0 {
		months = defaultHistoryMonths
	}
	if months > maxHistoryMonths {
		months = maxHistoryMonths
	}
	cy, cm := s.currentMonth()
	first := time.Date(cy, time.Month(cm), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	rows, err := s.repo.ListSince(dbc, rd.TenantID, first.Year(), int(first.Month()))
	if err != nil {
		return nil, err
	}

	closures := map[[2]int]*types.RdcMonthClosure{}
	for y := first.Year(); y <= cy; y++ {
		list, err := s.repo.ListClosures(dbc, rd.TenantID, y)
		if err != nil {
			return nil, err
		}
		for _, c := range list {
			closures[[2]int{c.Year, c.Month}] = c
		}
	}

	out := []IndicatorMonth{}
	var cur []*types.RdcIndicator
	flush := func() {
		if len(cur) == 0 {
			return
		}
		y, m := cur[0].Year, cur[0].Month
		out = append(out, *buildMonth(y, m, cur, closures[[2]int{y, m}]))
		cur = nil
	}
	for _, r := range rows {
		if len(cur) > 0 && (cur[0].Year != r.Year || cur[0].Month != r.Month) {
			flush()
		}
		cur = append(cur, r)
	}
	flush()
	return out, nil
}

func (s *indicatorService) CloseMonth(dbc dbctx.Context, year, month int, note string) (*types.RdcMonthClosure, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validateMonth(year, month); err != nil {
		return nil, err
	}
	var out *types.RdcMonthClosure
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		rows, err := s.repo.ListByMonth(inner, rd.TenantID, year, month)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return apierr.Rule("indicators_missing", "no indicators calculated for this month")
		}
		closure, err := s.repo.GetClosure(inner, rd.TenantID, year, month)
		if err != nil {
			return err
		}
		if closure == nil {
			closure = &types.RdcMonthClosure{TenantID: rd.TenantID, Year: year, Month: month}
		}
		if closure.Status == indicators.MonthClosed {
			return apierr.Conflict("month_closed", "month is already closed")
		}
		at := s.now()
		actor := rd.UserID
		closure.Status = indicators.MonthClosed
		closure.ClosedAt = &at
		closure.ClosedBy = &actor
		closure.CloseNote = strings.TrimSpace(note)
		if err := s.repo.SaveClosure(inner, closure); err != nil {
			return err
		}
		out = closure
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("rdc month closed", "tenant_id", rd.TenantID, "year", year, "month", month, "user_id", rd.UserID)
	return out, nil
}

func (s *indicatorService) ReopenMonth(dbc dbctx.Context, year, month int, reason string) (*types.RdcMonthClosure, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validateMonth(year, month); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < minReopenReason {
		return nil, apierr.Validation(map[string]string{"reason": fmt.Sprintf("must have at least %d characters", minReopenReason)})
	}
	var out *types.RdcMonthClosure
	err = inTx(dbc, s.db, func(inner dbctx.Context) error {
		closure, err := s.repo.GetClosure(inner, rd.TenantID, year, month)
		if err != nil {
			return err
		}
		if closure == nil || closure.Status != indicators.MonthClosed {
			return apierr.Conflict("month_open", "month is already open")
		}
		at := s.now()
		actor := rd.UserID
		closure.Status = indicators.MonthOpen
		closure.ReopenedAt = &at
		closure.ReopenedBy = &actor
		closure.ReopenReason = reason
		if err := s.repo.SaveClosure(inner, closure); err != nil {
			return err
		}
		out = closure
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Warn("rdc month reopened", "tenant_id", rd.TenantID, "year", year, "month", month, "user_id", rd.UserID, "reason", reason)
	return out, nil
}

// Annual consolidates the twelve months of a year. Year 0 means the previous year.
func (s *indicatorService) Annual(dbc dbctx.Context, year int) (*AnnualReport, error) {
	rd, err := tenantScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if year == 0 {
		cy, _ := s.currentMonth()
		year = cy - 1
	}
	if err := s.validateMonth(year, 1); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByYear(dbc, rd.TenantID, year)
	if err != nil {
		return nil, err
	}
	closures, err := s.repo.ListClosures(dbc, rd.TenantID, year)
	if err != nil {
		return nil, err
	}
	closedMonth := map[int]bool{}
	for _, c := range closures {
		closedMonth[c.Month] = c.Status == indicators.MonthClosed
	}
	byMonth := map[int]map[string]*types.RdcIndicator{}
	for _, r := range rows {
		if byMonth[r.Month] == nil {
			byMonth[r.Month] = map[string]*types.RdcIndicator{}
		}
		byMonth[r.Month][r.IndicatorType] = r
	}

	out := &AnnualReport{Year: year, GeneratedAt: s.now(), Months: make([]AnnualMonth, 0, 12)}
	out.Summary.TotalMonths = 12
	for m := 1; m <= 12; m++ {
		am := AnnualMonth{Month: m, MonthLabel: monthLabel(year, m), Indicators: make([]AnnualIndicator, 0, len(indicators.Types))}
		for _, typ := range indicators.Types {
			ai := AnnualIndicator{IndicatorType: typ, Status: monthMissing}
			if r := byMonth[m][typ]; r != nil {
				ai.Numerator, ai.Denominator, ai.Rate = r.Numerator, r.Denominator, r.Rate
				ai.Status = indicators.MonthOpen
				if closedMonth[m] {
					ai.Status = indicators.MonthClosed
				}
			}
			am.Indicators = append(am.Indicators, ai)
		}
		switch {
		case len(byMonth[m]) == 0:
			am.Status = monthMissing
			out.Summary.MissingMonths++
		case closedMonth[m]:
			am.Status = indicators.MonthClosed
			out.Summary.ClosedMonths++
		default:
			am.Status = indicators.MonthOpen
			out.Summary.OpenMonths++
		}
		out.Months = append(out.Months, am)
	}
	out.Summary.ReadyToSubmit = out.Summary.ClosedMonths == 12
	return out, nil
}

func (s *indicatorService) RecomputeCurrentMonth(dbc dbctx.Context) (*RecomputeSummary, error) {
	year, month := s.currentMonth()
	ids, err := s.tenantRepo.ListIDsByStatus(dbc, tenancy.TenantActive)
	if err != nil {
		return nil, err
	}
	out := &RecomputeSummary{Year: year, Month: month, Tenants: len(ids)}

	limit := s.concurrency
	if dbc.Tx != nil {
		// A shared transaction cannot serve concurrent queries.
		limit = 1
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(dbc.Ctx)
	g.SetLimit(limit)
	for _, id := range ids {
		tenantID := id
		g.Go(func() error {
			_, err := s.CalculateForTenant(dbctx.Context{Ctx: gctx, Tx: dbc.Tx}, tenantID, year, month)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				out.Calculated++
				return nil
			}
			if ae, ok := apierr.As(err); ok && ae.Code == "month_closed" {
				out.Skipped++
				return nil
			}
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			out.Failed++
			s.log.Error("rdc indicator recompute failed", "tenant_id", tenantID, "error", err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
