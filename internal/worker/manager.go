package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"iap/invcheck/internal/domains"
	"iap/invcheck/internal/engine"
	"iap/invcheck/internal/framework"
	"iap/invcheck/internal/service"
	"iap/invcheck/internal/store"
	"iap/invcheck/pkg/config"
	"iap/invcheck/pkg/infra/mysql"
	"iap/invcheck/pkg/infra/redis"
	"iap/invcheck/pkg/lmstfy"
	"iap/invcheck/pkg/logger"
)

// Manager 接口
type Manager interface {
	Start() error
	Shutdown()
}

// ManagerInstance Manager 实例
type ManagerInstance struct {
	ctx            context.Context
	cfg            *config.Config
	lmstfyClient   *lmstfy.Client
	scoringService *service.ScoringService
	profileCache   *service.VendorProfileCache
	callbackQueue  string
	workers        []Worker
	closing        *atomic.Bool
	shutdownCh     chan struct{}
	wg             sync.WaitGroup
	logger         logger.Logger
}

// NewManagerInstance 创建 Manager，组装 worker 端全部依赖
func NewManagerInstance(cfg *config.Config, log logger.Logger) (Manager, error) {
	ctx := context.Background()

	// 初始化 lmstfy 客户端
	lmstfyClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create lmstfy client: %w", err)
	}

	var callbackQueue string
	if len(cfg.Workers) > 0 {
		callbackQueue = cfg.Workers[0].CallbackQueue
	}
	if callbackQueue == "" {
		return nil, fmt.Errorf("callback_queue is required in worker config")
	}

	// 初始化存储
	db, err := mysql.Open(cfg.MySQL.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}
	if cfg.App.Env == "dev" {
		if err := store.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("auto migrate failed: %w", err)
		}
	}
	invoiceStore := store.NewInvoiceStore(db)

	// 供应商画像缓存：启动时全量构建一次，之后定时刷新
	profileCache := service.NewVendorProfileCache(invoiceStore, log)
	if err := profileCache.Refresh(ctx); err != nil {
		log.Warnf(ctx, "[Manager] initial profile refresh failed: %v", err)
	}
	if err := profileCache.StartRefresher(cfg.Scoring.ProfileRefresh); err != nil {
		return nil, fmt.Errorf("failed to start profile refresher: %w", err)
	}

	// 批次完成通知（redis 不可用时降级为只发回调）
	var notifier service.Notifier
	if cfg.Redis.Addr != "" {
		pubsub, err := redis.NewPubSub(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warnf(ctx, "[Manager] redis unavailable, notifications disabled: %v", err)
		} else {
			notifier = pubsub
		}
	}

	// 评分引擎与评分服务
	eng := engine.NewEngine(engine.NewScorer(cfg.Scoring.Formula))
	scoringService := service.NewScoringService(
		eng, invoiceStore, profileCache,
		lmstfyClient, callbackQueue,
		notifier, cfg.Redis.Channel,
		cfg.Scoring.Concurrency, log,
	)

	log.Infof(ctx, "[Manager] Initialized with callback_queue: %s, formula: %s", callbackQueue, eng.FormulaName())

	return &ManagerInstance{
		ctx:            ctx,
		cfg:            cfg,
		lmstfyClient:   lmstfyClient,
		scoringService: scoringService,
		profileCache:   profileCache,
		callbackQueue:  callbackQueue,
		closing:        atomic.NewBool(false),
		shutdownCh:     make(chan struct{}),
		workers:        make([]Worker, 0),
		logger:         log,
	}, nil
}

// Start 启动 Manager
func (m *ManagerInstance) Start() error {
	m.logger.Infof(m.ctx, "[Manager] Starting...")

	// 1. 加载所有 Worker
	if err := m.loadWorkers(); err != nil {
		return fmt.Errorf("failed to load workers: %w", err)
	}

	m.logger.Infof(m.ctx, "[Manager] All workers loaded, count: %d", len(m.workers))

	// 2. 启动所有 Worker（每个 Worker 在独立 goroutine）
	for _, worker := range m.workers {
		w := worker
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			w.Start()
		}()
		m.logger.Infof(m.ctx, "[Manager] Worker started: %s", w.GetName())
	}

	m.logger.Infof(m.ctx, "[Manager] Start success")

	// 3. 阻塞等待退出信号
	<-m.shutdownCh

	return nil
}

// Shutdown 优雅退出
func (m *ManagerInstance) Shutdown() {
	m.logger.Infof(m.ctx, "[Manager] Began to close")

	// 原子操作，保证并发安全
	if m.closing.CAS(false, true) {
		// 1. 所有 Worker 安全退出
		for _, worker := range m.workers {
			m.logger.Infof(m.ctx, "[Manager] Shutting down worker: %s", worker.GetName())
			worker.Shutdown()
		}

		// 2. 等待所有 Worker 退出
		m.wg.Wait()

		// 3. 停止画像刷新
		m.profileCache.StopRefresher()

		// 4. 关闭信号通道
		close(m.shutdownCh)

		m.logger.Infof(m.ctx, "[Manager] Shutdown complete")
	}
}

// loadWorkers 加载所有 Worker
func (m *ManagerInstance) loadWorkers() error {
	for _, workerCfg := range m.cfg.Workers {
		subCfg := &framework.SubscriberConfig{
			QueueName:    workerCfg.QueueName,
			Concurrency:  workerCfg.Subscriber.Threads,
			Rate:         workerCfg.Subscriber.Rate,
			Timeout:      workerCfg.Subscriber.Timeout,
			TTR:          workerCfg.Subscriber.TTR,
			ErrorBackoff: workerCfg.Subscriber.ErrorBackoff,
		}

		procCfg := &framework.ProcessorConfig{
			Concurrency: workerCfg.Processor.Threads,
			BufferSize:  workerCfg.Processor.BufferSize,
			Timeout:     workerCfg.Processor.Timeout,
		}

		// 获取 GetProcess 函数
		getProcess := domains.GetProcess(m.logger, m.scoringService)

		worker, err := NewWorkerInstance(
			m.ctx,
			workerCfg.Name,
			subCfg,
			procCfg,
			m.lmstfyClient, // MessageSource
			getProcess,     // framework.Proc
			m.logger,
		)
		if err != nil {
			return fmt.Errorf("failed to create worker %s: %w", workerCfg.Name, err)
		}

		m.workers = append(m.workers, worker)
	}

	return nil
}
