package sessionmgr

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/faiyaz7283/dashtam-authcore/internal/store"
)

// Audit is the pluggable audit-sink interface, grounded on the reference's
// audit/base.py SessionAuditBackend (four event kinds: created, revoked,
// accessed, suspicious).
type Audit interface {
	LogCreated(ctx context.Context, session *Session, meta map[string]string)
	LogRevoked(ctx context.Context, sessionID uuid.UUID, reason string, meta map[string]string)
	LogAccessed(ctx context.Context, sessionID uuid.UUID, meta map[string]string)
	LogSuspicious(ctx context.Context, sessionID uuid.UUID, event string, meta map[string]string)
}

// LoggerAudit writes structured log lines, grounded on the reference's
// internal/audit/audit.go JSONAuditLogger. It writes through whatever
// logger it is given, tagging every line log_type=audit; it builds no
// separate slog handler of its own.
type LoggerAudit struct {
	Logger *slog.Logger
}

func NewLoggerAudit(logger *slog.Logger) *LoggerAudit {
	return &LoggerAudit{Logger: logger}
}

func (a *LoggerAudit) fields(base []any, meta map[string]string) []any {
	for k, v := range meta {
		base = append(base, "meta_"+k, v)
	}
	return base
}

func (a *LoggerAudit) LogCreated(ctx context.Context, session *Session, meta map[string]string) {
	a.Logger.InfoContext(ctx, "session_created", a.fields([]any{"log_type", "audit", "session_id", session.ID, "user_id", session.UserID}, meta)...)
}

func (a *LoggerAudit) LogRevoked(ctx context.Context, sessionID uuid.UUID, reason string, meta map[string]string) {
	a.Logger.InfoContext(ctx, "session_revoked", a.fields([]any{"log_type", "audit", "session_id", sessionID, "reason", reason}, meta)...)
}

func (a *LoggerAudit) LogAccessed(ctx context.Context, sessionID uuid.UUID, meta map[string]string) {
	a.Logger.InfoContext(ctx, "session_accessed", a.fields([]any{"log_type", "audit", "session_id", sessionID}, meta)...)
}

func (a *LoggerAudit) LogSuspicious(ctx context.Context, sessionID uuid.UUID, event string, meta map[string]string) {
	a.Logger.WarnContext(ctx, "session_suspicious", a.fields([]any{"log_type", "audit", "session_id", sessionID, "event", event}, meta)...)
}

// NoopAudit discards every event, grounded on the reference's
// MockAuditLogger — the default for tests.
type NoopAudit struct{}

func (NoopAudit) LogCreated(context.Context, *Session, map[string]string)               {}
func (NoopAudit) LogRevoked(context.Context, uuid.UUID, string, map[string]string)       {}
func (NoopAudit) LogAccessed(context.Context, uuid.UUID, map[string]string)              {}
func (NoopAudit) LogSuspicious(context.Context, uuid.UUID, string, map[string]string)    {}

// DatabaseAudit persists each event as a row in session_audit_log, grounded
// on the reference's internal/audit/service.go AuditService (json.Marshal
// metadata, insert-and-log-on-failure). Insert failures are logged, never
// propagated: an audit sink must not be able to fail the request it is
// observing.
type DatabaseAudit struct {
	Store  *store.Store
	Logger *slog.Logger
}

func NewDatabaseAudit(s *store.Store, logger *slog.Logger) *DatabaseAudit {
	return &DatabaseAudit{Store: s, Logger: logger}
}

func (a *DatabaseAudit) insert(ctx context.Context, sessionID, userID uuid.UUID, event string, meta map[string]string) {
	if err := a.Store.InsertSessionAudit(ctx, a.Store.Pool, sessionID, userID, event, meta); err != nil {
		a.Logger.ErrorContext(ctx, "session_audit_insert_failed", "error", err, "event", event, "session_id", sessionID)
	}
}

func (a *DatabaseAudit) LogCreated(ctx context.Context, session *Session, meta map[string]string) {
	a.insert(ctx, session.ID, session.UserID, "session_created", meta)
}

func (a *DatabaseAudit) LogRevoked(ctx context.Context, sessionID uuid.UUID, reason string, meta map[string]string) {
	merged := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		merged[k] = v
	}
	merged["reason"] = reason
	a.insert(ctx, sessionID, uuid.Nil, "session_revoked", merged)
}

func (a *DatabaseAudit) LogAccessed(ctx context.Context, sessionID uuid.UUID, meta map[string]string) {
	a.insert(ctx, sessionID, uuid.Nil, "session_accessed", meta)
}

func (a *DatabaseAudit) LogSuspicious(ctx context.Context, sessionID uuid.UUID, event string, meta map[string]string) {
	merged := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		merged[k] = v
	}
	merged["event"] = event
	a.insert(ctx, sessionID, uuid.Nil, "session_suspicious", merged)
}

// MetricsAudit counts events via Prometheus counters instead of logging
// them, grounded on the reference's audit/metrics.py MetricsAuditBackend —
// no reference precedent in the teacher repo, added because
// prometheus/client_golang is part of this module's domain stack and a
// metrics-only audit sink is an
// ecosystem-idiomatic way to track session churn without log volume.
type MetricsAudit struct {
	created    *prometheus.CounterVec
	revoked    *prometheus.CounterVec
	accessed   prometheus.Counter
	suspicious *prometheus.CounterVec
}

func NewMetricsAudit(reg prometheus.Registerer) *MetricsAudit {
	m := &MetricsAudit{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authcore_sessions_created_total",
			Help: "Sessions created, by device type.",
		}, []string{"device"}),
		revoked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authcore_sessions_revoked_total",
			Help: "Sessions revoked, by reason.",
		}, []string{"reason"}),
		accessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authcore_sessions_accessed_total",
			Help: "Session-bearing requests processed.",
		}),
		suspicious: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authcore_sessions_suspicious_total",
			Help: "Suspicious session events detected, by kind.",
		}, []string{"event"}),
	}
	reg.MustRegister(m.created, m.revoked, m.accessed, m.suspicious)
	return m
}

func (m *MetricsAudit) LogCreated(_ context.Context, session *Session, _ map[string]string) {
	m.created.WithLabelValues(session.DeviceInfo).Inc()
}

func (m *MetricsAudit) LogRevoked(_ context.Context, _ uuid.UUID, reason string, _ map[string]string) {
	m.revoked.WithLabelValues(reason).Inc()
}

func (m *MetricsAudit) LogAccessed(context.Context, uuid.UUID, map[string]string) {
	m.accessed.Inc()
}

func (m *MetricsAudit) LogSuspicious(_ context.Context, _ uuid.UUID, event string, _ map[string]string) {
	m.suspicious.WithLabelValues(event).Inc()
}
