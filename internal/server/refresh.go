package server

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dan/depara/internal/progress"
)

const refreshTimeout = 2 * time.Minute

// refreshParallel bounds how many tenants are collected at once.
const refreshParallel = 4

var errRefreshInFlight = errors.New("refresh already in progress")

// refresher runs in a goroutine and periodically refreshes the snapshot of
// every project database, updating the cache and activity log.
func (s *Server) refresher() {
	// Run an initial refresh immediately after startup.
	s.refreshAll(s.backgroundContext())

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopRefresh:
			s.log.Info("refresher stopped")
			return
		case <-ticker.C:
			s.refreshAll(s.backgroundContext())
		}
	}
}

// refreshAll collects every project database in parallel.
func (s *Server) refreshAll(ctx context.Context) {
	projects, err := s.projects.ListWithDatabase()
	if err != nil {
		s.log.Error("list projects for refresh", zap.Error(err))
		return
	}

	seen := make(map[string]bool)
	var tenants []string
	for _, p := range projects {
		if !seen[p.Database] {
			seen[p.Database] = true
			tenants = append(tenants, p.Database)
		}
	}
	if len(tenants) == 0 {
		return
	}

	s.log.Info("refreshing snapshots", zap.Int("tenants", len(tenants)))
	s.activity.Logf("system", "info", "Refresh started for %d database(s)", len(tenants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshParallel)
	for _, t := range tenants {
		g.Go(func() error {
			_ = s.refreshTenant(gctx, t)
			return nil
		})
	}
	_ = g.Wait()

	metricSnapshotsCached.Set(float64(s.snapshots.Len()))
	s.activity.Logf("system", "info", "Refresh complete")
}

// refreshTenant collects one tenant and stores the result. It returns
// errRefreshInFlight when another refresh of the tenant is running.
func (s *Server) refreshTenant(ctx context.Context, tenant string) error {
	if !s.snapshots.MarkLoading(tenant) {
		return errRefreshInFlight
	}

	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	start := time.Now()
	snap, err := s.tenants.Collect(ctx, tenant, s.catalog.Entities)
	latency := time.Since(start)
	metricRefreshDuration.Observe(latency.Seconds())

	if err != nil {
		st := s.snapshots.Fail(tenant, err)
		metricRefreshes.WithLabelValues("error").Inc()
		s.activity.Logf(tenant, "error", "Refresh failed (%s): %s", latency.Round(time.Millisecond), err)
		s.log.Warn("refresh failed",
			zap.String("tenant", tenant),
			zap.Int("consec_fails", st.ConsecFails),
			zap.Error(err),
		)
		return err
	}

	s.snapshots.Put(snap)
	metricRefreshes.WithLabelValues("ok").Inc()
	totals := progress.Summarize(snap.Ordered(s.catalog.Entities))
	metricTenantCompletion.WithLabelValues(tenant).Set(totals.Percent)
	s.activity.Logf(tenant, "success", "Snapshot refreshed: %d tables, %s%% complete (%s)",
		len(snap.Stats), progress.FormatPercent(totals.Percent), latency.Round(time.Millisecond))
	s.log.Info("snapshot refreshed",
		zap.String("tenant", tenant),
		zap.Float64("percent", totals.Percent),
		zap.Duration("took", latency),
	)
	return nil
}
