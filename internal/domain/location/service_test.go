package location

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Yamojr001/lip-sub002/internal/platform/apperr"
)

// =========== Mock Repositories ===========

type mockLGARepo struct {
	store map[uuid.UUID]*LGA
}

func newMockLGARepo() *mockLGARepo {
	return &mockLGARepo{store: make(map[uuid.UUID]*LGA)}
}

func (m *mockLGARepo) Create(_ context.Context, l *LGA) error {
	l.ID = uuid.New()
	m.store[l.ID] = l
	return nil
}

func (m *mockLGARepo) GetByID(_ context.Context, id uuid.UUID) (*LGA, error) {
	l, ok := m.store[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return l, nil
}

func (m *mockLGARepo) Update(_ context.Context, l *LGA) error {
	if _, ok := m.store[l.ID]; !ok {
		return apperr.ErrNotFound
	}
	m.store[l.ID] = l
	return nil
}

func (m *mockLGARepo) List(_ context.Context) ([]*LGA, error) {
	var out []*LGA
	for _, l := range m.store {
		out = append(out, l)
	}
	return out, nil
}

type mockWardRepo struct {
	store map[uuid.UUID]*Ward
	lgas  *mockLGARepo
}

func newMockWardRepo(lgas *mockLGARepo) *mockWardRepo {
	return &mockWardRepo{store: make(map[uuid.UUID]*Ward), lgas: lgas}
}

func (m *mockWardRepo) Create(_ context.Context, w *Ward) error {
	w.ID = uuid.New()
	m.store[w.ID] = w
	return nil
}

func (m *mockWardRepo) GetByID(_ context.Context, id uuid.UUID) (*Ward, error) {
	w, ok := m.store[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return w, nil
}

func (m *mockWardRepo) Update(_ context.Context, w *Ward) error {
	existing, ok := m.store[w.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	existing.Name, existing.Code = w.Name, w.Code
	return nil
}

func (m *mockWardRepo) List(_ context.Context, lgaID *uuid.UUID) ([]*Ward, error) {
	var out []*Ward
	for _, w := range m.store {
		if lgaID == nil || w.LGAID == *lgaID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *mockWardRepo) NextSerial(_ context.Context, wardID uuid.UUID) (*Serial, error) {
	w, ok := m.store[wardID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	l := m.lgas.store[w.LGAID]
	w.PatientSerial++
	return &Serial{LGACode: l.Code, WardCode: w.Code, Number: w.PatientSerial}, nil
}

type mockFacilityRepo struct {
	store map[uuid.UUID]*Facility
}

func newMockFacilityRepo() *mockFacilityRepo {
	return &mockFacilityRepo{store: make(map[uuid.UUID]*Facility)}
}

func (m *mockFacilityRepo) Create(_ context.Context, f *Facility) error {
	f.ID = uuid.New()
	m.store[f.ID] = f
	return nil
}

func (m *mockFacilityRepo) GetByID(_ context.Context, id uuid.UUID) (*Facility, error) {
	f, ok := m.store[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return f, nil
}

func (m *mockFacilityRepo) Update(_ context.Context, f *Facility) error {
	if _, ok := m.store[f.ID]; !ok {
		return apperr.ErrNotFound
	}
	m.store[f.ID] = f
	return nil
}

func (m *mockFacilityRepo) List(_ context.Context, lgaID, wardID *uuid.UUID) ([]*Facility, error) {
	var out []*Facility
	for _, f := range m.store {
		if (lgaID == nil || f.LGAID == *lgaID) && (wardID == nil || f.WardID == *wardID) {
			out = append(out, f)
		}
	}
	return out, nil
}

func newTestService() *Service {
	lgas := newMockLGARepo()
	return NewService(lgas, newMockWardRepo(lgas), newMockFacilityRepo())
}

// seed creates one LGA, ward and facility.
func seed(t *testing.T, svc *Service) (*LGA, *Ward, *Facility) {
	t.Helper()
	ctx := context.Background()
	l := &LGA{Name: "Dala", Code: "dal"}
	if err := svc.CreateLGA(ctx, l); err != nil {
		t.Fatalf("create lga: %v", err)
	}
	w := &Ward{LGAID: l.ID, Name: "Kabuga", Code: "KAB"}
	if err := svc.CreateWard(ctx, w); err != nil {
		t.Fatalf("create ward: %v", err)
	}
	f := &Facility{WardID: w.ID, Name: "Kabuga PHC"}
	if err := svc.CreateFacility(ctx, f); err != nil {
		t.Fatalf("create facility: %v", err)
	}
	return l, w, f
}

func TestService_CreateLGA_NormalisesCode(t *testing.T) {
	svc := newTestService()
	l := &LGA{Name: "Dala", Code: " dal "}
	if err := svc.CreateLGA(context.Background(), l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Code != "DAL" {
		t.Errorf("expected code DAL, got %q", l.Code)
	}
}

func TestService_CreateLGA_Validation(t *testing.T) {
	svc := newTestService()
	err := svc.CreateLGA(context.Background(), &LGA{Name: "", Code: "d/l"})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ve.Fields) != 2 {
		t.Errorf("expected 2 field errors, got %v", ve.Fields)
	}
}

func TestService_CreateWard_UnknownLGA(t *testing.T) {
	svc := newTestService()
	err := svc.CreateWard(context.Background(), &Ward{LGAID: uuid.New(), Name: "Gwale", Code: "GWL"})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_CreateFacility_InheritsLGA(t *testing.T) {
	svc := newTestService()
	l, _, f := seed(t, svc)
	if f.LGAID != l.ID {
		t.Errorf("facility should inherit lga %s, got %s", l.ID, f.LGAID)
	}
	if f.Type != "PHC" {
		t.Errorf("expected default type PHC, got %q", f.Type)
	}
}

func TestService_CreateFacility_InvalidType(t *testing.T) {
	svc := newTestService()
	_, w, _ := seed(t, svc)
	err := svc.CreateFacility(context.Background(), &Facility{WardID: w.ID, Name: "X", Type: "Spaceport"})
	if err == nil {
		t.Fatal("expected error for invalid facility type")
	}
}

func TestService_UpdateFacility_KeepsWard(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	alpha, w, f := seed(t, svc)

	beta := &LGA{Name: "Gwale", Code: "GWA"}
	if err := svc.CreateLGA(ctx, beta); err != nil {
		t.Fatalf("create lga: %v", err)
	}
	other := &Ward{LGAID: beta.ID, Name: "Dorayi", Code: "DOR"}
	if err := svc.CreateWard(ctx, other); err != nil {
		t.Fatalf("create ward: %v", err)
	}

	err := svc.UpdateFacility(ctx, &Facility{ID: f.ID, WardID: other.ID, Name: "Kabuga PHC"})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error moving facility to another ward, got %v", err)
	}
	got, _ := svc.GetFacility(ctx, f.ID)
	if got.WardID != w.ID || got.LGAID != alpha.ID {
		t.Errorf("facility moved to ward %s lga %s", got.WardID, got.LGAID)
	}

	// Omitting the ward keeps it; renaming still works.
	renamed := &Facility{ID: f.ID, Name: "Kabuga Comprehensive"}
	if err := svc.UpdateFacility(ctx, renamed); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.WardID != w.ID || renamed.LGAID != alpha.ID {
		t.Errorf("rename changed location to ward %s lga %s", renamed.WardID, renamed.LGAID)
	}
}

func TestService_UpdateFacility_Unknown(t *testing.T) {
	svc := newTestService()
	err := svc.UpdateFacility(context.Background(), &Facility{ID: uuid.New(), Name: "X"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_AllocateUniqueCode_Sequential(t *testing.T) {
	svc := newTestService()
	_, w, _ := seed(t, svc)
	ctx := context.Background()

	first, err := svc.AllocateUniqueCode(ctx, w.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := svc.AllocateUniqueCode(ctx, w.ID)

	if first != "DAL/KAB/0001" {
		t.Errorf("expected DAL/KAB/0001, got %s", first)
	}
	if second != "DAL/KAB/0002" {
		t.Errorf("expected DAL/KAB/0002, got %s", second)
	}
}

func TestService_AllocateUniqueCode_UnknownWard(t *testing.T) {
	svc := newTestService()
	_, err := svc.AllocateUniqueCode(context.Background(), uuid.New())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ResolveFacility_Unknown(t *testing.T) {
	svc := newTestService()
	_, err := svc.ResolveFacility(context.Background(), uuid.New())
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFormatUniqueCode_PadsSerial(t *testing.T) {
	if got := FormatUniqueCode(&Serial{LGACode: "NAS", WardCode: "W01", Number: 12345}); got != "NAS/W01/12345" {
		t.Errorf("unexpected code %q", got)
	}
	if got := FormatUniqueCode(&Serial{LGACode: "NAS", WardCode: "W01", Number: 7}); got != "NAS/W01/0007" {
		t.Errorf("unexpected code %q", got)
	}
}

func TestService_ListFacilities_FilterByWard(t *testing.T) {
	svc := newTestService()
	_, w, _ := seed(t, svc)
	other := &Ward{LGAID: w.LGAID, Name: "Other", Code: "OTH"}
	_ = svc.CreateWard(context.Background(), other)
	_ = svc.CreateFacility(context.Background(), &Facility{WardID: other.ID, Name: "Other PHC"})

	items, err := svc.ListFacilities(context.Background(), nil, &w.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 facility in ward, got %d", len(items))
	}
}
