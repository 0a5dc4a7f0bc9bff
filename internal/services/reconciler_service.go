package services

import (
	"context"
	"strings"
	"time"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/panel"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/pkg/metrics"
)

// PanelAPI is the slice of the hosting control plane the services consume.
type PanelAPI interface {
	ListServers(ctx context.Context, panelUserID int64) ([]panel.Server, error)
	SuspendServer(ctx context.Context, serverID int64) error
}

// ReconcilerService implements ledger.Reconciler
type ReconcilerService struct {
	repo   ledger.Repository
	panel  PanelAPI
	logger *logger.Logger
}

// NewReconcilerService creates a new reconciler service
func NewReconcilerService(repo ledger.Repository, panelAPI PanelAPI, log *logger.Logger) ledger.Reconciler {
	return &ReconcilerService{
		repo:   repo,
		panel:  panelAPI,
		logger: log,
	}
}

// Reconcile pulls the user's live server listing from the panel, aggregates
// per-server limits into a usage total, and writes it back only when it
// differs from the stored vector. Transport failures leave the stored usage
// untouched; retry policy belongs to the caller.
func (s *ReconcilerService) Reconcile(ctx context.Context, userID int64) (*ledger.ReconcileResult, error) {
	start := time.Now()

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.PanelUserID == nil {
		return nil, errors.NotProvisioned(userID)
	}

	servers, err := s.panel.ListServers(ctx, *u.PanelUserID)
	if err != nil {
		metrics.RecordReconcile("upstream_error", time.Since(start))
		s.logger.WithFields(map[string]interface{}{
			"user_id":       userID,
			"panel_user_id": *u.PanelUserID,
		}).ErrorWithErr(err, "Failed to fetch server listing from panel")
		return nil, errors.UpstreamUnavailable(err)
	}

	total, demoSkipped := aggregate(servers)

	result := &ledger.ReconcileResult{
		Usage:       total,
		DemoSkipped: demoSkipped,
	}

	// An empty listing still writes all-zero usage; only a fetch failure
	// writes nothing.
	if !u.Usage.Equal(total) {
		if err := s.repo.UpdateUsage(ctx, userID, total); err != nil {
			metrics.RecordReconcile("write_error", time.Since(start))
			return nil, err
		}
		result.Updated = true
		s.logger.WithFields(map[string]interface{}{
			"user_id":   userID,
			"servers":   total.Servers,
			"demo_skip": demoSkipped,
		}).Info("User usage updated from panel")
	} else {
		s.logger.WithFields(map[string]interface{}{
			"user_id": userID,
		}).Debug("No usage changes for user")
	}

	result.Elapsed = time.Since(start)
	result.ElapsedMS = float64(result.Elapsed.Microseconds()) / 1000.0
	metrics.RecordReconcile("ok", result.Elapsed)
	metrics.AddDemoServersSkipped(demoSkipped)

	return result, nil
}

// aggregate sums resource and feature limits across all non-demo servers.
// Malformed numeric fields have already been coerced to zero by the panel
// decoder, so a bad record degrades to a partial contribution instead of
// aborting the pass.
func aggregate(servers []panel.Server) (ledger.Resources, int) {
	var total ledger.Resources
	demoSkipped := 0

	for _, srv := range servers {
		if isDemoServer(srv) {
			demoSkipped++
			continue
		}

		total.Memory += srv.Limits.Memory.Int64()
		total.Swap += srv.Limits.Swap.Int64()
		total.Disk += srv.Limits.Disk.Int64()
		total.IO += srv.Limits.IO.Int64()
		total.CPU += srv.Limits.CPU.Int64()

		total.Databases += srv.FeatureLimits.Databases.Int64()
		total.Allocations += srv.FeatureLimits.Allocations.Int64()
		total.Backups += srv.FeatureLimits.Backups.Int64()
	}

	total.Servers = int64(len(servers) - demoSkipped)
	return total, demoSkipped
}

// isDemoServer classifies trial servers by naming convention. Demo servers
// are provisioned outside the entitlement economy and must not count against
// paid limits.
func isDemoServer(srv panel.Server) bool {
	return strings.Contains(strings.ToLower(srv.Name), "demo") ||
		strings.Contains(strings.ToLower(srv.Description), "demo")
}
