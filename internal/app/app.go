package app

import (
	"career_path_backend/internal/catalog"
	"career_path_backend/internal/config"
	"career_path_backend/internal/controller"
	"career_path_backend/internal/repository"
	"career_path_backend/internal/service"
	"career_path_backend/pkg/configwatcher"
	"career_path_backend/pkg/database"
	"career_path_backend/pkg/events"
	"career_path_backend/pkg/logger"
	"career_path_backend/pkg/monitoring"
	"career_path_backend/pkg/security"
	"career_path_backend/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Policy          *service.PolicyStore
	Events          events.Publisher
	Services        *Services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

// Deps 外部依赖，NewApp 从配置创建，测试可直接注入
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client // 可选
	AI        service.Completer
	ModelName string
	Archive   service.Archiver // 可选
	Events    events.Publisher
}

type repositories struct {
	careerSession     *repository.CareerSessionRepository
	roadmap           *repository.RoadmapRepository
	roadmapAssessment *repository.RoadmapAssessmentRepository
}

type Services struct {
	CareerSession   *service.CareerSessionService
	Recommendation  *service.RecommendationService
	Generation      *service.AssessmentGenerationService
	AssessmentCache *service.AssessmentCacheService
	RoadmapGate     *service.RoadmapGateService
}

type controllers struct {
	careerAssessment  *controller.CareerAssessmentController
	roadmapAssessment *controller.RoadmapAssessmentController
	adminAssessment   *controller.AdminAssessmentController
	health            *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		careerSession:     repository.NewCareerSessionRepository(db),
		roadmap:           repository.NewRoadmapRepository(db),
		roadmapAssessment: repository.NewRoadmapAssessmentRepository(db),
	}
}

func (a *App) initServices(repos *repositories, deps Deps) (*Services, error) {
	rules, err := catalog.LoadRules()
	if err != nil {
		return nil, fmt.Errorf("load career rules: %w", err)
	}
	roadmaps, err := catalog.LoadRoadmaps()
	if err != nil {
		return nil, fmt.Errorf("load roadmap catalog: %w", err)
	}

	ai := deps.AI
	if ai == nil {
		ai = service.UnavailableCompleter{Reason: errors.New("ai provider not configured")}
	}
	cfg := a.Config.AI

	s := &Services{}
	s.Recommendation = &service.RecommendationService{
		AI:          deps.AI,
		Rules:       rules,
		Policy:      a.Policy,
		MaxTokens:   cfg.RecommendationMaxTokens,
		Temperature: cfg.RecommendationTemperature,
	}
	s.CareerSession = &service.CareerSessionService{
		Store:     repos.careerSession,
		Rules:     rules,
		Finalizer: s.Recommendation,
		Policy:    a.Policy,
		Events:    a.Events,
	}
	s.Generation = &service.AssessmentGenerationService{
		AI:          ai,
		Policy:      a.Policy,
		ModelName:   deps.ModelName,
		MaxTokens:   cfg.GenerationMaxTokens,
		Temperature: cfg.GenerationTemperature,
	}
	s.AssessmentCache = &service.AssessmentCacheService{
		Store:     repos.roadmapAssessment,
		Roadmaps:  repos.roadmap,
		Catalog:   roadmaps,
		Generator: s.Generation,
		Policy:    a.Policy,
		Events:    a.Events,
		Redis:     deps.Redis,
		Archive:   deps.Archive,
	}
	s.RoadmapGate = &service.RoadmapGateService{
		Roadmaps:    repos.roadmap,
		Assessments: repos.roadmapAssessment,
		Cache:       s.AssessmentCache,
		Catalog:     roadmaps,
		Events:      a.Events,
	}
	return s, nil
}

func (a *App) initControllers(s *Services) *controllers {
	return &controllers{
		careerAssessment:  controller.NewCareerAssessmentController(s.CareerSession),
		roadmapAssessment: controller.NewRoadmapAssessmentController(s.RoadmapGate),
		adminAssessment:   controller.NewAdminAssessmentController(s.AssessmentCache, s.RoadmapGate),
		health:            controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 用已创建好的依赖组装服务和路由
func New(cfg *config.Config, deps Deps) (*App, error) {
	if deps.Events == nil {
		deps.Events = events.LogPublisher{}
	}

	app := &App{
		Config: cfg,
		DB:     deps.DB,
		Redis:  deps.Redis,
		Policy: service.NewPolicyStore(cfg.Assessment),
		Events: deps.Events,
	}

	repos := app.initRepositories(deps.DB)
	services, err := app.initServices(repos, deps)
	if err != nil {
		return nil, err
	}
	app.Services = services
	controllers := app.initControllers(services)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	// 阈值热更新
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		app.Policy.Set(newCfg.Assessment)
		logger.Log.Info("Assessment policy reloaded",
			zap.Int("confidenceThreshold", newCfg.Assessment.ConfidenceThreshold),
			zap.Int("maxQuestions", newCfg.Assessment.MaxQuestions),
			zap.Int("passingScore", newCfg.Assessment.PassingScore))
	})

	return app, nil
}

// NewApp 按配置连接数据库、Redis、AI、存储和消息队列并组装应用
func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.ForceMigrate || cfg.Server.Mode != "release" {
		if err := database.Migrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	deps := Deps{DB: db}

	// Redis 只作为测验读缓存，不可用时降级为直接读库
	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Warn("Redis unavailable, assessment cache disabled", zap.Error(err))
		} else {
			deps.Redis = rdb
		}
	}

	ai, err := service.NewAIService(context.Background(), cfg.AI)
	if err != nil {
		logger.Log.Warn("AI provider not configured, recommendations use rule-based fallback",
			zap.String("provider", cfg.AI.Provider), zap.Error(err))
	} else {
		deps.AI = ai
		deps.ModelName = ai.Model()
	}

	storage, err := service.NewStorageService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	deps.Archive = storage

	if cfg.Events.Enabled {
		pub, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			logger.Log.Warn("AMQP unavailable, events are logged only", zap.Error(err))
		} else {
			deps.Events = pub
		}
	}

	app, err := New(cfg, deps)
	if err != nil {
		return nil, err
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracer = tp
		}
	}

	return app, nil
}

// WatchConfig 监听配置文件并触发回调，ctx 取消时退出
func (a *App) WatchConfig(ctx context.Context) {
	if a.Config.Path == "" {
		return
	}
	path := filepath.Join(a.Config.Path, "config.yaml")
	go func() {
		err := configwatcher.WatchConfig(ctx, path, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

// Close 释放连接，Run 退出时调用
func (a *App) Close() {
	if a.Events != nil {
		a.Events.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = logger.Log.Sync()
}

func (a *App) Run() error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	a.WatchConfig(ctx)

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		a.Close()
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	a.Close()
	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Log.Info("Server exiting")
	return nil
}
