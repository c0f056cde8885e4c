package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"taskManager/internal/auth"
	"taskManager/internal/config"
	"taskManager/internal/handlers"
	"taskManager/internal/logger"
	"taskManager/internal/mailer"
	"taskManager/internal/middleware"
	"taskManager/internal/ratelimit"
	"taskManager/internal/repository/inmemory"
	"taskManager/internal/repository/postgres"
	"taskManager/internal/service"
	"taskManager/internal/worker"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Storage - всё, что сервисам и воркерам нужно от хранилища
type Storage interface {
	service.UserRepository
	service.TaskRepository
	service.OTPRepository
	service.StatsRepository
	HealthCheck(ctx context.Context) error
	Close()
}

var _ Storage = (*postgres.Storage)(nil)
var _ Storage = (*inmemory.Storage)(nil)

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	storage    Storage
	tokens     *auth.TokenManager
	auth       *service.AuthService
	tasks      *service.TaskService
	admin      *service.AdminService
	overdue    *worker.OverdueWorker
	otpCleanup *worker.OTPCleanupWorker
	shutdowns  []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.initStorage(ctx); err != nil {
		a.Shutdown()
		return nil, err
	}

	a.initServices(ctx)
	a.initRouter()

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      otelhttp.NewHandler(a.router, "task-manager"),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	return a, nil
}

func (a *App) initStorage(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryInMemory:
		logger.Warn("App: Используется in-memory хранилище, данные не переживут перезапуск")
		a.storage = inmemory.New()
	default:
		if a.config.Database.AutoMigrate {
			if err := postgres.MigrateUp(a.config.Database.URL); err != nil {
				return fmt.Errorf("миграции: %w", err)
			}
		}
		storage, err := postgres.New(ctx, a.config.Database)
		if err != nil {
			return fmt.Errorf("подключение к PostgreSQL: %w", err)
		}
		a.storage = storage
	}
	a.shutdowns = append(a.shutdowns, a.storage.Close)
	return nil
}

func (a *App) initServices(ctx context.Context) {
	a.tokens = auth.NewTokenManager(a.config.Auth.JWTSecret, a.config.Auth.TokenTTL)
	hasher := auth.NewHasher(a.config.Auth.BcryptCost)
	sender := mailer.NewSMTPSender(a.config.Email)

	var limiter service.Limiter
	if a.config.RateLimitEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     a.config.Redis.Addr,
			Password: a.config.Redis.Password,
			DB:       a.config.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// лимитер пропускает запросы, пока redis недоступен
			logger.Warn("App: Redis недоступен", zap.String("addr", a.config.Redis.Addr), zap.Error(err))
		}
		cancel()

		limiter = ratelimit.NewLimiter(rdb, ratelimit.DefaultPrefix, a.config.Redis.OTPRate, a.config.Redis.OTPBurst)
		a.shutdowns = append(a.shutdowns, func() {
			if err := rdb.Close(); err != nil {
				logger.Error("App: Ошибка закрытия Redis", err)
			}
		})
	}

	a.auth = service.NewAuthService(a.storage, a.storage, a.tokens, hasher, sender, limiter)
	a.tasks = service.NewTaskService(a.storage, a.storage)
	a.admin = service.NewAdminService(a.storage, a.storage)

	a.overdue = worker.NewOverdueWorker(a.storage, a.config.Worker.OverdueInterval, a.config.Worker.BatchSize)
	a.otpCleanup = worker.NewOTPCleanupWorker(a.storage, a.config.Worker.OTPCleanupInterval, a.config.Worker.OTPRetention)
}

func (a *App) initRouter() {
	authHandler := handlers.NewAuthHandler(a.auth)
	taskHandler := handlers.NewTaskHandler(a.tasks)
	adminHandler := handlers.NewAdminHandler(a.admin)
	healthHandler := handlers.NewHealthHandler(a.storage)
	authenticate := middleware.Authenticate(a.tokens, a.storage)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(middleware.Timeout(a.config.Server.RequestTimeout))
	r.Use(middleware.RateLimit(a.config.Server.RateLimitRPM))

	r.Get("/health", healthHandler.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)      // POST /auth/register
		r.Post("/login", authHandler.Login)            // POST /auth/login
		r.Post("/request-otp", authHandler.RequestOTP) // POST /auth/request-otp
		r.Post("/verify-otp", authHandler.VerifyOTP)   // POST /auth/verify-otp
		r.With(authenticate).Get("/me", authHandler.Me)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/", taskHandler.ListTasks)   // GET /tasks
		r.Post("/", taskHandler.CreateTask) // POST /tasks

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", taskHandler.GetTask)                // GET /tasks/{id}
			r.Put("/", taskHandler.UpdateTask)             // PUT /tasks/{id}
			r.Delete("/", taskHandler.DeleteTask)          // DELETE /tasks/{id}
			r.Patch("/complete", taskHandler.CompleteTask) // PATCH /tasks/{id}/complete
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireAdmin)

		r.Get("/dashboard", adminHandler.Dashboard) // GET /admin/dashboard
		r.Get("/users", adminHandler.Users)         // GET /admin/users
	})

	a.router = r
}

// Handler - корневой обработчик без otelhttp, нужен тестам
func (a *App) Handler() http.Handler {
	return a.router
}

// Run блокируется до SIGINT/SIGTERM или отмены ctx
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server: Запуск", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.overdue.Start(gctx)
		return nil
	})

	g.Go(func() error {
		a.otpCleanup.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Server: Остановка")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка http сервера: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.Shutdown()
	return err
}

// Shutdown выполняет зарегистрированные функции в обратном порядке
func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
