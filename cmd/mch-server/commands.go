package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
	"github.com/Yamojr001/lip-sub002/internal/export"
	"github.com/Yamojr001/lip-sub002/internal/platform/db"
	"github.com/Yamojr001/lip-sub002/internal/platform/jobs"
	"github.com/Yamojr001/lip-sub002/internal/platform/sandbox"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withMigrator(dir, func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withMigrator(dir, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printStatus(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func withMigrator(dir string, fn func(ctx context.Context, m *db.Migrator) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if dir == "" {
		dir = cfg.MigrationsDir
	}
	ctx := context.Background()
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, db.NewMigrator(pool, os.DirFS(dir)))
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status, at := "pending", ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				at = s.AppliedAt.Format(time.RFC3339)
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, at)
	}
}

type exportFlags struct {
	out        string
	lgaID      string
	wardID     string
	facilityID string
	from       string
	to         string
}

// filter builds the export filter. "to" is inclusive.
func (f exportFlags) filter() (patient.Filter, error) {
	var out patient.Filter
	for _, id := range []struct {
		name string
		raw  string
		dst  **uuid.UUID
	}{
		{"lga", f.lgaID, &out.LGAID},
		{"ward", f.wardID, &out.WardID},
		{"facility", f.facilityID, &out.FacilityID},
	} {
		if id.raw == "" {
			continue
		}
		v, err := uuid.Parse(id.raw)
		if err != nil {
			return out, fmt.Errorf("invalid --%s: %w", id.name, err)
		}
		*id.dst = &v
	}
	if f.from != "" {
		t, err := time.Parse("2006-01-02", f.from)
		if err != nil {
			return out, fmt.Errorf("invalid --from: %w", err)
		}
		out.RegisteredFrom = &t
	}
	if f.to != "" {
		t, err := time.Parse("2006-01-02", f.to)
		if err != nil {
			return out, fmt.Errorf("invalid --to: %w", err)
		}
		end := t.AddDate(0, 0, 1)
		out.RegisteredTo = &end
	}
	return out, nil
}

type exportWriter func(ctx context.Context, w io.Writer, src export.Source, f patient.Filter) (int, error)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export patient records to a file",
	}
	cmd.AddCommand(exportFormatCmd("csv", export.WriteCSV))
	cmd.AddCommand(exportFormatCmd("xlsx", export.WriteXLSX))
	return cmd
}

func exportFormatCmd(format string, write exportWriter) *cobra.Command {
	var flags exportFlags
	cmd := &cobra.Command{
		Use:   format,
		Short: fmt.Sprintf("Export patient records as %s", format),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := flags.filter()
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				var w io.Writer = cmd.OutOrStdout()
				if flags.out != "" && flags.out != "-" {
					file, err := os.Create(flags.out)
					if err != nil {
						return fmt.Errorf("create %s: %w", flags.out, err)
					}
					defer file.Close()
					w = file
				}
				n, err := write(ctx, w, a.patients, f)
				if err != nil {
					return fmt.Errorf("export %s: %w", format, err)
				}
				a.logger.Info().Int("rows", n).Str("format", format).Str("out", flags.out).Msg("export written")
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&flags.lgaID, "lga", "", "Only records of this LGA id")
	cmd.Flags().StringVar(&flags.wardID, "ward", "", "Only records of this ward id")
	cmd.Flags().StringVar(&flags.facilityID, "facility", "", "Only records of this facility id")
	cmd.Flags().StringVar(&flags.from, "from", "", "Registered on or after YYYY-MM-DD")
	cmd.Flags().StringVar(&flags.to, "to", "", "Registered on or before YYYY-MM-DD")
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Dashboard statistics maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "warm",
		Short: "Recompute and cache the current month's dashboards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				if a.cache == nil {
					return fmt.Errorf("stats warm needs a reachable REDIS_URL")
				}
				w, err := jobs.NewWarmer("", a.statistics, warmTimeout, a.logger)
				if err != nil {
					return err
				}
				return w.RunOnce(ctx)
			})
		},
	})
	return cmd
}

func seedCmd() *cobra.Command {
	cfg := sandbox.DefaultSeedConfig()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with synthetic LGAs, facilities and records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				res, err := sandbox.NewSeeder(cfg, a.locations, a.patients, a.children, a.logger).Run(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d LGAs, %d wards, %d facilities, %d patients, %d children\n",
					res.LGAs, res.Wards, res.Facilities, res.Patients, res.Children)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed; the same seed reproduces the same data")
	f.IntVar(&cfg.LGAs, "lgas", cfg.LGAs, "number of LGAs")
	f.IntVar(&cfg.WardsPerLGA, "wards", cfg.WardsPerLGA, "wards per LGA")
	f.IntVar(&cfg.FacilitiesPerWard, "facilities", cfg.FacilitiesPerWard, "facilities per ward")
	f.IntVar(&cfg.PatientsPerFacility, "patients", cfg.PatientsPerFacility, "patients per facility")
	f.IntVar(&cfg.ChildrenPerFacility, "children", cfg.ChildrenPerFacility, "directly registered children per facility")
	return cmd
}
