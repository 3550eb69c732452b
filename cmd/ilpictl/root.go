package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/app"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dates"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
)

// bootstrap builds the application; tests replace it.
var bootstrap = app.New

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ilpictl",
		Short:         "Operational commands for the ILPI platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newCreateSuperadminCmd(),
		newGenerateShiftsCmd(),
		newCalcIndicatorsCmd(),
		newJobsCmd(),
	)
	return root
}

// withApp bootstraps the application for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(_ context.Context, a *app.App) error {
				if err := a.Migrate(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the compliance question bank and the shift templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Seed(ctx)
				if err != nil {
					return err
				}
				state := "already present"
				if res.QuestionsLoaded {
					state = "loaded"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "question bank v%d %s\nshift templates: %d\n", res.QuestionVersion, state, res.ShiftTemplates)
				return nil
			})
		},
	}
}

func newCreateSuperadminCmd() *cobra.Command {
	var email, name, password string
	cmd := &cobra.Command{
		Use:   "create-superadmin",
		Short: "Create a platform operator account",
		Long: `Create a platform operator account with no tenant.

The password may be given with --password or ILPI_SUPERADMIN_PASSWORD.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("ILPI_SUPERADMIN_PASSWORD")
			}
			if password == "" {
				return fmt.Errorf("--password or ILPI_SUPERADMIN_PASSWORD is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				u, err := a.CreateSuperadmin(ctx, email, name, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "superadmin %s created (%s)\n", u.Email, u.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

type generateShiftsArgs struct {
	tenant     string
	start, end string
	days       int
}

// resolve fills defaults and checks the flag combination. A nil tenant means every active tenant.
func (g *generateShiftsArgs) resolve(now time.Time) (*uuid.UUID, error) {
	if g.tenant == "" {
		if g.start != "" || g.end != "" {
			return nil, fmt.Errorf("--start and --end require --tenant")
		}
		return nil, nil
	}
	id, err := uuid.Parse(g.tenant)
	if err != nil {
		return nil, fmt.Errorf("invalid --tenant: %w", err)
	}
	if g.days <= 0 {
		return nil, fmt.Errorf("--days must be positive")
	}
	if g.start == "" {
		g.start = dates.Today(now)
	}
	if !dates.Valid(g.start) {
		return nil, fmt.Errorf("invalid --start %q, want YYYY-MM-DD", g.start)
	}
	if g.end == "" {
		if g.end, err = dates.AddDays(g.start, g.days-1); err != nil {
			return nil, err
		}
	}
	if !dates.Valid(g.end) {
		return nil, fmt.Errorf("invalid --end %q, want YYYY-MM-DD", g.end)
	}
	if g.end < g.start {
		return nil, fmt.Errorf("--end is before --start")
	}
	return &id, nil
}

func newGenerateShiftsCmd() *cobra.Command {
	args := &generateShiftsArgs{}
	var tenantID *uuid.UUID
	cmd := &cobra.Command{
		Use:   "generate-shifts",
		Short: "Generate shifts from the weekly pattern",
		Long: `Generate shifts from each tenant's weekly pattern.

Without --tenant every active tenant gets the configured horizon starting today.`,
		Args: cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			id, err := args.resolve(time.Now())
			tenantID = id
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if tenantID == nil {
					return a.Tasks.GenerateShifts(ctx)
				}
				res, err := a.Services.Shift.GenerateForTenant(dbctx.Context{Ctx: ctx}, *tenantID, args.start, args.end)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&args.tenant, "tenant", "", "tenant id (default: every active tenant)")
	cmd.Flags().StringVar(&args.start, "start", "", "first date, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&args.end, "end", "", "last date, YYYY-MM-DD (default: start + days - 1)")
	cmd.Flags().IntVar(&args.days, "days", 14, "days to generate when --end is omitted")
	return cmd
}

type calcIndicatorsArgs struct {
	tenant      string
	year, month int
}

func (c *calcIndicatorsArgs) resolve(now time.Time) (*uuid.UUID, error) {
	if c.tenant == "" {
		if c.year != 0 || c.month != 0 {
			return nil, fmt.Errorf("--year and --month require --tenant")
		}
		return nil, nil
	}
	id, err := uuid.Parse(c.tenant)
	if err != nil {
		return nil, fmt.Errorf("invalid --tenant: %w", err)
	}
	local := now.In(dates.Location())
	if c.year == 0 {
		c.year = local.Year()
	}
	if c.month == 0 {
		c.month = int(local.Month())
	}
	if c.month < 1 || c.month > 12 {
		return nil, fmt.Errorf("--month must be between 1 and 12")
	}
	return &id, nil
}

func newCalcIndicatorsCmd() *cobra.Command {
	args := &calcIndicatorsArgs{}
	var tenantID *uuid.UUID
	cmd := &cobra.Command{
		Use:   "calc-indicators",
		Short: "Calculate the monthly RDC indicators",
		Long: `Calculate the monthly RDC indicators.

Without --tenant the open current month of every active tenant is recomputed.`,
		Args: cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			id, err := args.resolve(time.Now())
			tenantID = id
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if tenantID == nil {
					return a.Tasks.RecomputeIndicators(ctx)
				}
				res, err := a.Services.Indicator.CalculateForTenant(dbctx.Context{Ctx: ctx}, *tenantID, args.year, args.month)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&args.tenant, "tenant", "", "tenant id (default: every active tenant, current month)")
	cmd.Flags().IntVar(&args.year, "year", 0, "year (default: current)")
	cmd.Flags().IntVar(&args.month, "month", 0, "month 1-12 (default: current)")
	return cmd
}

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and run scheduled jobs",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List scheduled jobs with their cron specs",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, func(_ context.Context, a *app.App) error {
					for _, j := range a.Scheduler.Jobs() {
						fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", j[0], j[1])
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "run <name>",
			Short: "Run a scheduled job once, now",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, a *app.App) error {
					return a.Scheduler.RunNow(ctx, args[0])
				})
			},
		},
	)
	return cmd
}
