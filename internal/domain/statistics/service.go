package statistics

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Yamojr001/lip-sub002/internal/domain/child"
	"github.com/Yamojr001/lip-sub002/internal/domain/location"
	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
	"github.com/Yamojr001/lip-sub002/internal/platform/cache"
	"github.com/Yamojr001/lip-sub002/internal/platform/metrics"
	"github.com/Yamojr001/lip-sub002/internal/stats"
)

// Records is the patient source the dashboards aggregate.
type Records interface {
	All(ctx context.Context, f patient.Filter) ([]*patient.Record, error)
}

// Children is the child source for the child dashboard.
type Children interface {
	Each(ctx context.Context, f child.Filter, fn func(*child.Record) error) error
	LatestNutrition(ctx context.Context, f child.Filter) (map[uuid.UUID]*child.NutritionLogEntry, error)
}

// Locations lists the facilities and LGAs that seed the admin rows.
type Locations interface {
	ListLGAs(ctx context.Context) ([]*location.LGA, error)
	ListFacilities(ctx context.Context, lgaID, wardID *uuid.UUID) ([]*location.Facility, error)
}

// Cache stores assembled dashboards. *cache.Cache satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, v any) error
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
}

// Filter narrows a dashboard to part of the location hierarchy.
type Filter struct {
	LGAID      *uuid.UUID
	WardID     *uuid.UUID
	FacilityID *uuid.UUID
}

func idKey(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}

// Key identifies the filter in cache keys.
func (f Filter) Key() string {
	return idKey(f.LGAID) + "." + idKey(f.WardID) + "." + idKey(f.FacilityID)
}

func (f Filter) patients(p *Period) patient.Filter {
	out := patient.Filter{LGAID: f.LGAID, WardID: f.WardID, FacilityID: f.FacilityID}
	if p != nil {
		start, end := p.Start, p.End
		out.RegisteredFrom = &start
		out.RegisteredTo = &end
	}
	return out
}

func (f Filter) children() child.Filter {
	return child.Filter{LGAID: f.LGAID, WardID: f.WardID, FacilityID: f.FacilityID}
}

// Scoped pins f to the caller's facility when the caller may not see more.
func Scoped(actor patient.Actor, f Filter) Filter {
	if scope := actor.FacilityScope(); scope != nil {
		f.FacilityID = scope
	}
	return f
}

var cachePrefix = cache.Key("stats")

type Service struct {
	records   Records
	children  Children
	locations Locations
	cache     Cache
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
	workers   int

	// gen counts invalidations so a computation that overlaps one does not
	// cache its result.
	gen atomic.Uint64
}

func NewService(records Records, children Children, locations Locations, logger zerolog.Logger) *Service {
	return &Service{
		records:   records,
		children:  children,
		locations: locations,
		logger:    logger.With().Str("component", "statistics").Logger(),
		now:       time.Now,
		workers:   1,
	}
}

// WithCache enables dashboard caching.
func (s *Service) WithCache(c Cache) *Service {
	s.cache = c
	return s
}

func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithWorkers sets how many goroutines fold large record sets.
func (s *Service) WithWorkers(n int) *Service {
	if n < 1 {
		n = 1
	}
	s.workers = n
	return s
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// serve returns the cached dashboard under key, or computes and caches it.
// Cache failures degrade to computing; they are never returned. force skips
// the read. fn reports how many records it read. Keys carry the local date
// of now, the same day the derivations count from.
func serve[T any](ctx context.Context, s *Service, kind, key string, force bool, fn func(ctx context.Context, now time.Time) (T, int, error)) (T, error) {
	now := s.now()
	key = cache.Key("stats", kind, key, now.Format(dateLayout))

	var out T
	if s.cache != nil && !force {
		err := s.cache.GetJSON(ctx, key, &out)
		if err == nil {
			s.record(kind, true, 0, 0)
			return out, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn().Err(err).Str("key", key).Msg("stats cache read failed")
		}
	}

	gen := s.gen.Load()
	start := time.Now()
	out, n, err := fn(ctx, now)
	if err != nil {
		return out, err
	}
	s.record(kind, false, n, time.Since(start))

	if s.cache == nil {
		return out, nil
	}
	if s.gen.Load() != gen {
		s.logger.Debug().Str("key", key).Msg("records changed during computation; not caching")
		return out, nil
	}
	if err := s.cache.SetJSON(ctx, key, out); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("stats cache write failed")
		return out, nil
	}
	// An invalidation that landed between the check and the write.
	if s.gen.Load() != gen {
		if _, err := s.cache.InvalidatePrefix(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("stats cache invalidation failed")
		}
	}
	return out, nil
}

func (s *Service) record(kind string, cached bool, records int, latency time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordDashboard(kind, cached, records, latency)
	}
}

// periods loads the current and prior period records concurrently, plus any
// extra loads the caller registers on g.
func (s *Service) periods(ctx context.Context, f Filter, p Period, extra func(g *errgroup.Group, ctx context.Context)) (cur, prior []*patient.Record, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cur, err = s.records.All(gctx, f.patients(&p))
		return err
	})
	g.Go(func() error {
		pp := p.Prior()
		var err error
		prior, err = s.records.All(gctx, f.patients(&pp))
		return err
	})
	if extra != nil {
		extra(g, gctx)
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return cur, prior, nil
}

func (s *Service) input(cur, prior []*patient.Record, now time.Time) stats.Input {
	return stats.Input{Current: cur, Prior: prior, Now: now, Workers: s.workers}
}

// Admin builds the admin dashboard with one row per facility and LGA in f.
func (s *Service) Admin(ctx context.Context, f Filter, p Period) (stats.Admin, error) {
	return s.admin(ctx, f, p, false)
}

func (s *Service) admin(ctx context.Context, f Filter, p Period, force bool) (stats.Admin, error) {
	return serve(ctx, s, "admin", f.Key()+":"+p.Key(), force, func(ctx context.Context, now time.Time) (stats.Admin, int, error) {
		var (
			facilities []*location.Facility
			lgas       []*location.LGA
		)
		cur, prior, err := s.periods(ctx, f, p, func(g *errgroup.Group, ctx context.Context) {
			g.Go(func() error {
				var err error
				facilities, err = s.locations.ListFacilities(ctx, f.LGAID, f.WardID)
				return err
			})
			g.Go(func() error {
				var err error
				lgas, err = s.locations.ListLGAs(ctx)
				return err
			})
		})
		if err != nil {
			return stats.Admin{}, 0, err
		}
		facilities, lgas = narrow(f, facilities, lgas)
		return stats.AdminDashboard(s.input(cur, prior, now), facilities, lgas), len(cur) + len(prior), nil
	})
}

// narrow drops the seed rows that fall outside f.
func narrow(f Filter, facilities []*location.Facility, lgas []*location.LGA) ([]*location.Facility, []*location.LGA) {
	if f.FacilityID != nil {
		kept := facilities[:0:0]
		for _, fac := range facilities {
			if fac.ID == *f.FacilityID {
				kept = append(kept, fac)
			}
		}
		facilities = kept
	}
	if f.LGAID != nil || f.WardID != nil || f.FacilityID != nil {
		inScope := make(map[uuid.UUID]bool)
		if f.LGAID != nil {
			inScope[*f.LGAID] = true
		}
		for _, fac := range facilities {
			inScope[fac.LGAID] = true
		}
		kept := lgas[:0:0]
		for _, l := range lgas {
			if inScope[l.ID] {
				kept = append(kept, l)
			}
		}
		lgas = kept
	}
	return facilities, lgas
}

// Facility builds one facility's dashboard. The follow-up lists cover every
// record of the facility, not only those registered in p.
func (s *Service) Facility(ctx context.Context, facilityID uuid.UUID, p Period) (stats.Facility, error) {
	f := Filter{FacilityID: &facilityID}
	return serve(ctx, s, "facility", f.Key()+":"+p.Key(), false, func(ctx context.Context, now time.Time) (stats.Facility, int, error) {
		var open []*patient.Record
		cur, prior, err := s.periods(ctx, f, p, func(g *errgroup.Group, ctx context.Context) {
			g.Go(func() error {
				var err error
				open, err = s.records.All(ctx, f.patients(nil))
				return err
			})
		})
		if err != nil {
			return stats.Facility{}, 0, err
		}
		return stats.FacilityDashboard(s.input(cur, prior, now), open), len(cur) + len(prior) + len(open), nil
	})
}

// Page builds the filtered statistics page.
func (s *Service) Page(ctx context.Context, f Filter, p Period) (stats.Page, error) {
	return s.page(ctx, f, p, false)
}

func (s *Service) page(ctx context.Context, f Filter, p Period, force bool) (stats.Page, error) {
	return serve(ctx, s, "page", f.Key()+":"+p.Key(), force, func(ctx context.Context, now time.Time) (stats.Page, int, error) {
		cur, prior, err := s.periods(ctx, f, p, nil)
		if err != nil {
			return stats.Page{}, 0, err
		}
		return stats.StatisticsPage(s.input(cur, prior, now), p.Start, p.End), len(cur) + len(prior), nil
	})
}

// Children builds the child dashboard over every child in f.
func (s *Service) Children(ctx context.Context, f Filter) (stats.Children, error) {
	return serve(ctx, s, "children", f.Key(), false, func(ctx context.Context, now time.Time) (stats.Children, int, error) {
		var (
			list   []*child.Record
			latest map[uuid.UUID]*child.NutritionLogEntry
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return s.children.Each(gctx, f.children(), func(c *child.Record) error {
				list = append(list, c)
				return nil
			})
		})
		g.Go(func() error {
			var err error
			latest, err = s.children.LatestNutrition(gctx, f.children())
			return err
		})
		if err := g.Wait(); err != nil {
			return stats.Children{}, 0, err
		}
		return stats.ChildDashboard(list, latest, now, s.workers), len(list), nil
	})
}

// Warm recomputes the unfiltered admin dashboard and statistics page for the
// current month and stores them in the cache.
func (s *Service) Warm(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	p, err := ParsePeriod(Month, "", "", s.now())
	if err != nil {
		return err
	}
	if _, err := s.admin(ctx, Filter{}, p, true); err != nil {
		return err
	}
	if _, err := s.page(ctx, Filter{}, p, true); err != nil {
		return err
	}
	s.logger.Debug().Str("period", p.Key()).Msg("stats cache warmed")
	return nil
}

// Invalidate drops every cached dashboard. Registered as the OnChange hook
// of the patient and child services.
func (s *Service) Invalidate(ctx context.Context) {
	s.gen.Add(1)
	if s.cache == nil {
		return
	}
	n, err := s.cache.InvalidatePrefix(ctx, cachePrefix)
	if err != nil {
		s.logger.Warn().Err(err).Msg("stats cache invalidation failed")
		return
	}
	s.logger.Debug().Int("removed", n).Msg("stats cache invalidated")
}
