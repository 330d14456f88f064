package sessionmgr

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/faiyaz7283/dashtam-authcore/internal/cache"
	"github.com/faiyaz7283/dashtam-authcore/internal/enrich"
	"github.com/faiyaz7283/dashtam-authcore/internal/store"
)

// Config selects concrete Backend/Audit implementations, grounded on the
// reference's models/config.py SessionConfig (storage_type/audit_type
// string switches, backend_type dropped per the models.go doc comment).
type Config struct {
	StorageType string // "database" | "cache" | "memory"
	AuditType   string // "database" | "logger" | "noop" | "metrics"
	CacheTTL    time.Duration
	EnableEnrichment bool
}

// New builds a Manager from cfg, grounded on the reference's factory.py
// create_session_manager.
func New(cfg Config, s *store.Store, c cache.Cache, logger *slog.Logger, reg prometheus.Registerer) (*Manager, error) {
	db := NewDatabaseBackend(s)

	var backend Backend
	switch cfg.StorageType {
	case "", "database":
		backend = db
	case "cache":
		if c == nil {
			return nil, fmt.Errorf("sessionmgr: cache storage requested but no cache client provided")
		}
		backend = NewCacheBackend(db, c, cfg.CacheTTL)
	case "memory":
		backend = NewMemoryBackend()
	default:
		return nil, fmt.Errorf("sessionmgr: unknown storage_type %q", cfg.StorageType)
	}

	var audit Audit
	switch cfg.AuditType {
	case "", "noop":
		audit = NoopAudit{}
	case "logger":
		audit = NewLoggerAudit(logger)
	case "database":
		audit = NewDatabaseAudit(s, logger)
	case "metrics":
		if reg == nil {
			return nil, fmt.Errorf("sessionmgr: metrics audit requested but no prometheus registerer provided")
		}
		audit = NewMetricsAudit(reg)
	default:
		return nil, fmt.Errorf("sessionmgr: unknown audit_type %q", cfg.AuditType)
	}

	return NewManager(backend, audit, enrich.StaticLocator{}, enrich.HeuristicUAParser{}, cfg.EnableEnrichment), nil
}
