package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"drivercommission/internal/api"
	"drivercommission/internal/cache"
	"drivercommission/internal/commission"
	"drivercommission/internal/config"
	"drivercommission/internal/constants"
	"drivercommission/internal/db"
	"drivercommission/internal/finance"
	"drivercommission/internal/logging"
	"drivercommission/internal/models"
	"drivercommission/internal/monitoring"
	"drivercommission/internal/notify"
	"drivercommission/internal/repository"
	"drivercommission/internal/storage"
)

// repositories - набор хранилищ выбранного бэкенда.
type repositories struct {
	rates    repository.RatesRepository
	history  repository.HistoryRepository
	expenses repository.ExpenseRepository
	drivers  repository.DriverRepository
	orders   repository.OrderRepository
}

func main() {
	// --- Блок инициализации ---
	if err := godotenv.Load(); err != nil {
		log.Println("Предупреждение: не удалось загрузить файл .env. Переменные окружения должны быть установлены иным способом.")
	}

	env := os.Getenv("ENV")
	if err := logging.InitLogger(env == "production" || env == "prod"); err != nil {
		log.Fatalf("Критическая ошибка: не удалось инициализировать логгер: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Logger.Fatal("Критическая ошибка: не удалось загрузить конфигурацию", zap.Error(err))
	}

	healthChecks := make(map[string]func(ctx context.Context) error)

	repos, err := openStorage(cfg, healthChecks)
	if err != nil {
		logging.Logger.Fatal("Критическая ошибка: не удалось инициализировать хранилище", zap.Error(err))
	}
	defer db.CloseDB()

	if cfg.RedisURL != "" {
		redisClient, errRedis := cache.NewRedisClient(cfg.RedisURL)
		if errRedis != nil {
			logging.Logger.Warn("Redis недоступен, кэш ставок отключён", zap.Error(errRedis))
		} else {
			defer redisClient.Close()
			repos.rates = cache.NewRatesCache(repos.rates, redisClient, cfg.RatesCacheTTL)
			healthChecks["redis"] = redisClient.HealthCheck
		}
	}

	var seed *models.CommissionRates
	if cfg.CommissionSeedFile != "" {
		seed, err = commission.LoadSeed(cfg.CommissionSeedFile)
		if err != nil {
			logging.Logger.Error("Не удалось загрузить начальные ставки, используются встроенные", zap.String("file", cfg.CommissionSeedFile), zap.Error(err))
			seed = nil
		}
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.TelegramToken != "" && cfg.OwnerChatID != 0 {
		tg, errTg := notify.NewTelegram(cfg.TelegramToken, cfg.OwnerChatID, !cfg.IsProduction())
		if errTg != nil {
			logging.Logger.Warn("Не удалось инициализировать Telegram, уведомления отключены", zap.Error(errTg))
		} else {
			notifier = tg
		}
	}

	commissionService := commission.NewService(commission.Dependencies{
		Rates:    repos.rates,
		History:  repos.history,
		Drivers:  repos.drivers,
		Orders:   repos.orders,
		Notifier: notifier,
		Seed:     seed,
	})
	financeService := finance.NewService(finance.Dependencies{
		Orders:             repos.orders,
		Expenses:           repos.expenses,
		CommissionEstimate: cfg.FinanceCommissionEstimate,
	})

	// --- Настройка роутера и Middleware ---
	apiRouter := chi.NewRouter()

	// Глобальные middlewares должны идти перед api.SetupRoutes
	apiRouter.Use(middleware.RequestID)
	apiRouter.Use(middleware.Logger)
	apiRouter.Use(middleware.Recoverer)
	apiRouter.Use(monitoring.Middleware)
	apiRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.SetupRoutes(apiRouter, api.ApiDependencies{
		Config:       cfg,
		Commission:   commissionService,
		Finance:      financeService,
		HealthChecks: healthChecks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logging.Logger.Info("Запуск HTTP-сервера", zap.String("port", cfg.Port), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatal("Критическая ошибка: не удалось запустить HTTP-сервер", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logging.Logger.Info("Получен сигнал остановки, завершение работы")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Error("Ошибка при остановке HTTP-сервера", zap.Error(err))
	}
}

// openStorage создаёт хранилища выбранного бэкенда и регистрирует их
// проверки для /health.
func openStorage(cfg *config.Config, healthChecks map[string]func(ctx context.Context) error) (repositories, error) {
	if cfg.StorageDriver == constants.STORAGE_POSTGRES {
		conn, err := db.InitDB(cfg.DatabaseURL)
		if err != nil {
			return repositories{}, err
		}
		healthChecks["postgres"] = conn.PingContext
		store := db.NewStore(conn, cfg.HistoryLimit, cfg.ExpensesLimit)
		return repositories{rates: store, history: store, expenses: store, drivers: store, orders: store}, nil
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return repositories{}, err
	}
	store := storage.NewFileStore(cfg.DataDir, cfg.HistoryLimit, cfg.ExpensesLimit)
	logging.Logger.Info("Используется файловое хранилище", zap.String("dir", cfg.DataDir))
	return repositories{
		rates:    store.Rates,
		history:  store.History,
		expenses: store.Expenses,
		drivers:  store.Drivers,
		orders:   store.Orders,
	}, nil
}
