package metrics

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Collector 指标收集器，定期刷新数据库相关的状态分布
type Collector struct {
	db       *gorm.DB
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, interval time.Duration) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// collect 定期收集指标
func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	c.CollectOnce()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.CollectOnce()
		}
	}
}

// CollectOnce 立即收集一次
func (c *Collector) CollectOnce() {
	_ = UpdateDatabaseConnections(c.db)
	c.updateGrouped("training_logs", UpdateLogsByStatus)
	c.updateGrouped("outbox", UpdateOutboxByStatus)
}

// updateGrouped 按 status 分组计数并写入指标
func (c *Collector) updateGrouped(table string, set func(status string, count float64)) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := c.db.Table(table).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return
	}
	for _, row := range rows {
		set(row.Status, float64(row.Count))
	}
}
