package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 训练日志创建数
	logsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "training_logs_created_total",
			Help: "Total number of training logs created",
		},
	)

	// 审批操作数
	approvalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approvals_total",
			Help: "Total number of approval operations",
		},
		[]string{"action", "role"}, // approve, reject, bulk_approve
	)

	// 待同步操作处理数
	outboxOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_operations_total",
			Help: "Total number of outbox operations by final status",
		},
		[]string{"action", "status"},
	)

	// 远程表格读取数
	remoteReadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_reads_total",
			Help: "Total number of remote sheet reads",
		},
		[]string{"tab", "result"},
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)

	// 日志状态分布
	logsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "training_logs_by_status",
			Help: "Number of stored training logs by approval status",
		},
		[]string{"status"},
	)

	// 待同步队列分布
	outboxByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "outbox_entries_by_status",
			Help: "Number of outbox entries by status",
		},
		[]string{"status"},
	)
)

var (
	once sync.Once
)

func init() {
	// 注册指标
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(logsCreatedTotal)
	prometheus.MustRegister(approvalsTotal)
	prometheus.MustRegister(outboxOperationsTotal)
	prometheus.MustRegister(remoteReadsTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)
	prometheus.MustRegister(logsByStatus)
	prometheus.MustRegister(outboxByStatus)

	// 注册 Go 运行时指标（只注册一次）
	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	apiRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordLogCreated 记录日志创建
func RecordLogCreated() {
	logsCreatedTotal.Inc()
}

// RecordApproval 记录审批操作
func RecordApproval(action, role string) {
	approvalsTotal.WithLabelValues(action, role).Inc()
}

// RecordOutbox 记录待同步操作的处理结果
func RecordOutbox(action, status string) {
	outboxOperationsTotal.WithLabelValues(action, status).Inc()
}

// RecordRemoteRead 记录远程表格读取
func RecordRemoteRead(tab string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	if tab == "" {
		tab = "data"
	}
	remoteReadsTotal.WithLabelValues(tab, result).Inc()
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}

// UpdateLogsByStatus 更新日志状态分布指标
func UpdateLogsByStatus(status string, count float64) {
	logsByStatus.WithLabelValues(status).Set(count)
}

// UpdateOutboxByStatus 更新待同步队列分布指标
func UpdateOutboxByStatus(status string, count float64) {
	outboxByStatus.WithLabelValues(status).Set(count)
}
