package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/lessonplan-backend/internal/platform/envutil"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	stageRequests  *CounterVec
	stageLatency   *HistogramVec
	stageCoalesced *CounterVec

	generationRequests *CounterVec
	generationLatency  *HistogramVec

	cacheWrites    *HistogramVec
	cacheConflicts *CounterVec

	lockWait *HistogramVec
	guard    *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide Metrics when METRICS_ENABLED is set and
// returns nil otherwise.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("lp_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"lp_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 5, 15, 30, 60, 120, 180},
		),
		apiInflight: NewGauge("lp_api_inflight_requests", "In-flight API requests."),

		stageRequests: NewCounterVec("lp_stage_requests_total", "Pipeline stage calls by stage/result.", []string{"stage", "result"}),
		stageLatency: NewHistogramVec(
			"lp_stage_duration_seconds",
			"Pipeline stage latency in seconds by stage/result.",
			[]string{"stage", "result"},
			[]float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 180},
		),
		stageCoalesced: NewCounterVec("lp_stage_coalesced_total", "Stage misses served by another in-flight call.", []string{"stage"}),

		generationRequests: NewCounterVec("lp_generation_requests_total", "Generation service calls by capability/status.", []string{"capability", "status"}),
		generationLatency: NewHistogramVec(
			"lp_generation_request_duration_seconds",
			"Generation service latency in seconds by capability/status.",
			[]string{"capability", "status"},
			[]float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90, 120, 180},
		),

		cacheWrites: NewHistogramVec(
			"lp_cache_write_duration_seconds",
			"Cache repository write latency by operation/status.",
			[]string{"operation", "status"},
			[]float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		),
		cacheConflicts: NewCounterVec("lp_cache_conflicts_total", "Unique-key conflicts by operation.", []string{"operation"}),

		lockWait: NewHistogramVec(
			"lp_lock_wait_seconds",
			"Time spent acquiring stage key locks by backend/status.",
			[]string{"backend", "status"},
			[]float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
		),
		guard: NewCounterVec("lp_consistency_guard_total", "Consistency guard outcomes after failed session persistence.", []string{"outcome"}),

		dbStats:   NewGaugeVec("lp_db_pool", "Database pool stats.", []string{"stat"}),
		redisUp:   NewGauge("lp_redis_up", "Redis ping status (1 = up)."),
		redisPing: NewGauge("lp_redis_ping_seconds", "Redis ping latency in seconds."),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, p := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.stageRequests, m.stageLatency, m.stageCoalesced,
		m.generationRequests, m.generationLatency,
		m.cacheWrites, m.cacheConflicts,
		m.lockWait, m.guard,
		m.dbStats, m.redisUp, m.redisPing,
	} {
		if err := p.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Add(1)
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Add(-1)
}

// ObserveStage records one stage call. result is "hit", "miss" or an error code.
func (m *Metrics) ObserveStage(stage, result string, dur time.Duration) {
	if m == nil {
		return
	}
	m.stageRequests.Inc(stage, result)
	m.stageLatency.Observe(dur.Seconds(), stage, result)
}

func (m *Metrics) IncStageCoalesced(stage string) {
	if m == nil {
		return
	}
	m.stageCoalesced.Inc(stage)
}

func (m *Metrics) StageCount(stage, result string) float64 {
	if m == nil {
		return 0
	}
	return m.stageRequests.Value(stage, result)
}

func (m *Metrics) ObserveGeneration(capability, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.generationRequests.Inc(capability, status)
	m.generationLatency.Observe(dur.Seconds(), capability, status)
}

func (m *Metrics) GenerationCount(capability, status string) float64 {
	if m == nil {
		return 0
	}
	return m.generationRequests.Value(capability, status)
}

func (m *Metrics) ObserveCacheWrite(operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrites.Observe(dur.Seconds(), strings.TrimSpace(operation), strings.TrimSpace(status))
}

func (m *Metrics) IncCacheConflict(operation string) {
	if m == nil {
		return
	}
	m.cacheConflicts.Inc(strings.TrimSpace(operation))
}

func (m *Metrics) ObserveLockWait(backend, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(dur.Seconds(), backend, status)
}

func (m *Metrics) IncGuard(outcome string) {
	if m == nil {
		return
	}
	m.guard.Inc(outcome)
}

func scrapeInterval() time.Duration {
	return envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
			}
		}
	}()
}

// StartRedisCollector pings the lock backend on every scrape interval.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
