package patient_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Yamojr001/lip-sub002/internal/domain/immunization"
	"github.com/Yamojr001/lip-sub002/internal/domain/location"
	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
	"github.com/Yamojr001/lip-sub002/internal/platform/db"
)

// The Postgres round trip runs only when MCH_TEST_DATABASE_URL points at a
// disposable database. Each run migrates a fresh schema and drops it after.
const testDatabaseEnv = "MCH_TEST_DATABASE_URL"

func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "..", "migrations")
}

func setupSchema(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv(testDatabaseEnv)
	if url == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	schema := "it_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+schema); err != nil {
		admin.Close()
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		if _, err := admin.Exec(context.Background(), fmt.Sprintf("DROP SCHEMA %s CASCADE", schema)); err != nil {
			t.Logf("warning: failed to drop schema %s: %v", schema, err)
		}
		admin.Close()
	})

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect to schema: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := db.NewMigrator(pool, os.DirFS(migrationsDir())).Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func seedFacility(t *testing.T, ctx context.Context, pool *pgxpool.Pool) *location.Facility {
	t.Helper()
	svc := location.NewService(location.NewLGARepoPG(pool), location.NewWardRepoPG(pool), location.NewFacilityRepoPG(pool))
	lga := &location.LGA{Name: "Dala", Code: "DAL"}
	if err := svc.CreateLGA(ctx, lga); err != nil {
		t.Fatalf("create lga: %v", err)
	}
	ward := &location.Ward{LGAID: lga.ID, Name: "Kabuga", Code: "KAB"}
	if err := svc.CreateWard(ctx, ward); err != nil {
		t.Fatalf("create ward: %v", err)
	}
	fac := &location.Facility{WardID: ward.ID, Name: "PHC Kabuga", Type: "PHC"}
	if err := svc.CreateFacility(ctx, fac); err != nil {
		t.Fatalf("create facility: %v", err)
	}
	return fac
}

func TestRepoPG_RoundTrip(t *testing.T) {
	pool := setupSchema(t)
	ctx := context.Background()
	fac := seedFacility(t, ctx, pool)
	repo := patient.NewRepoPG(pool)

	visit := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	bcg := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	result := patient.HIVNegative
	age := 26
	rec := &patient.Record{
		UniqueCode:       "DAL/KAB/0001",
		Name:             "Hauwa Sani",
		Age:              &age,
		LGAID:            fac.LGAID,
		WardID:           fac.WardID,
		FacilityID:       fac.ID,
		RegistrationDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Vaccines:         immunization.Doses{"bcg": {Received: true, Date: &bcg}},
	}
	rec.ANCVisits[0] = patient.ANCVisit{Date: &visit, SP: true, HIVResultReceived: true, HIVResult: &result}
	rec.FamilyPlanning.Using = true
	rec.FamilyPlanning.Implant = true

	t.Run("Create", func(t *testing.T) {
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if rec.ID == uuid.Nil || rec.CreatedAt.IsZero() {
			t.Fatal("expected id and created_at after create")
		}
	})

	t.Run("GetByID", func(t *testing.T) {
		got, err := repo.GetByID(ctx, rec.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.FacilityName != "PHC Kabuga" || got.LGAName != "Dala" {
			t.Errorf("location labels not joined: %q %q", got.FacilityName, got.LGAName)
		}
		if got.ANCVisits[0].Date == nil || !got.ANCVisits[0].SP {
			t.Errorf("anc visit 1 not restored: %+v", got.ANCVisits[0])
		}
		if got.ANCVisits[1].Date != nil {
			t.Error("anc visit 2 should be empty")
		}
		if !got.Vaccines.Received("bcg") || got.Vaccines.Received("opv0") {
			t.Errorf("vaccines not restored: %+v", got.Vaccines)
		}
		if !got.FamilyPlanning.Implant {
			t.Error("fp implant not restored")
		}
	})

	t.Run("Update", func(t *testing.T) {
		outcome := patient.OutcomeLiveBirth
		rec.Delivery.Outcome = &outcome
		if err := repo.Update(ctx, rec); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, err := repo.GetByID(ctx, rec.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Delivery.Outcome == nil || *got.Delivery.Outcome != outcome {
			t.Errorf("expected outcome %q, got %v", outcome, got.Delivery.Outcome)
		}
	})

	t.Run("ListAndEach", func(t *testing.T) {
		from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		f := patient.Filter{FacilityID: &fac.ID, RegisteredFrom: &from, RegisteredTo: &to, Search: "hauwa"}

		items, total, err := repo.List(ctx, f, 10, 0)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 1 || len(items) != 1 {
			t.Fatalf("expected 1 match, got total=%d items=%d", total, len(items))
		}

		n := 0
		if err := repo.Each(ctx, patient.Filter{RegisteredTo: &from}, func(*patient.Record) error { n++; return nil }); err != nil {
			t.Fatalf("Each: %v", err)
		}
		if n != 0 {
			t.Errorf("expected no records before %s, got %d", from.Format("2006-01-02"), n)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := repo.Delete(ctx, rec.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := repo.GetByID(ctx, rec.ID); err == nil {
			t.Error("expected not found after delete")
		}
	})
}
