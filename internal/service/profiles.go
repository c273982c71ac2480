package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"iap/invcheck/internal/engine"
	"iap/invcheck/internal/store"
	"iap/invcheck/pkg/logger"
)

// VendorProfileCache 供应商历史画像缓存
// 评分路径只读内存快照，后台定时从存储层全量重建
type VendorProfileCache struct {
	store  *store.InvoiceStore
	logger logger.Logger

	mu       sync.RWMutex
	profiles map[string]engine.VendorProfile

	cron *cron.Cron
}

// NewVendorProfileCache 创建画像缓存
func NewVendorProfileCache(s *store.InvoiceStore, log logger.Logger) *VendorProfileCache {
	return &VendorProfileCache{
		store:    s,
		logger:   log,
		profiles: make(map[string]engine.VendorProfile),
	}
}

// Refresh 全量重建画像缓存
// 单个供应商查询失败只记日志跳过，不影响其余供应商
func (c *VendorProfileCache) Refresh(ctx context.Context) error {
	vendors, err := c.store.Vendors(ctx)
	if err != nil {
		return fmt.Errorf("list vendors failed: %w", err)
	}

	fresh := make(map[string]engine.VendorProfile, len(vendors))
	for _, vendor := range vendors {
		amounts, err := c.store.VendorHistory(ctx, vendor)
		if err != nil {
			c.logger.Warnf(ctx, "[ProfileCache] vendor history failed for %q: %v", vendor, err)
			continue
		}
		if len(amounts) == 0 {
			continue
		}
		fresh[vendor] = engine.BuildProfile(amounts)
	}

	c.mu.Lock()
	c.profiles = fresh
	c.mu.Unlock()

	c.logger.Infof(ctx, "[ProfileCache] Refreshed, vendors: %d", len(fresh))
	return nil
}

// Snapshot 返回画像快照（浅拷贝，调用方只读）
func (c *VendorProfileCache) Snapshot() map[string]engine.VendorProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]engine.VendorProfile, len(c.profiles))
	for k, v := range c.profiles {
		snapshot[k] = v
	}
	return snapshot
}

// StartRefresher 启动定时刷新任务
func (c *VendorProfileCache) StartRefresher(interval time.Duration) error {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	c.cron = cron.New()
	spec := fmt.Sprintf("@every %s", interval)
	_, err := c.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := c.Refresh(ctx); err != nil {
			c.logger.Errorf(ctx, "[ProfileCache] scheduled refresh failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule profile refresh failed: %w", err)
	}

	c.cron.Start()
	return nil
}

// StopRefresher 停止定时刷新
func (c *VendorProfileCache) StopRefresher() {
	if c.cron != nil {
		c.cron.Stop()
	}
}
