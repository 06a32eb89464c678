// Точка входа сервиса qrshare.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// инициализирует blob-хранилище, кэш и сервисный слой, запускает
// мониторинг зависимостей (topologymetrics) и HTTP-сервер
// с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/qrshare/internal/api/handlers"
	"github.com/bigkaa/qrshare/internal/blobstore"
	"github.com/bigkaa/qrshare/internal/config"
	"github.com/bigkaa/qrshare/internal/database"
	"github.com/bigkaa/qrshare/internal/repository"
	"github.com/bigkaa/qrshare/internal/server"
	"github.com/bigkaa/qrshare/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("qrshare запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("public_url", cfg.PublicURL),
	)

	if os.Getenv("QS_DEPHEALTH_GROUP") == "" {
		logger.Warn("QS_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Blob-хранилище на локальном диске
	blobs, err := blobstore.NewDiskStore(cfg.BlobDir, cfg.PublicURL, cfg.BlobCompress)
	if err != nil {
		logger.Error("Ошибка инициализации blob-хранилища",
			slog.String("dir", cfg.BlobDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	logger.Info("Blob-хранилище готово",
		slog.String("dir", cfg.BlobDir),
		slog.Bool("compress", cfg.BlobCompress),
	)

	// 6. Repositories
	textRepo := repository.NewTextShareRepository(pool)
	fileRepo := repository.NewFileShareRepository(pool)

	// 7. Services
	cache := service.NewCacheService(cfg.CacheSize, cfg.CacheTTL)
	shareSvc := service.NewShareService(textRepo, fileRepo, blobs, cfg.PublicURL, logger)
	accessSvc := service.NewAccessService(textRepo, fileRepo, cache, logger)

	// 8. Мониторинг зависимостей (topologymetrics).
	// Ошибка инициализации не фатальна — сервис работает без графа зависимостей.
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"qrshare",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseDSN(),
		cfg.DephealthCheckInterval,
		cfg.DephealthIsEntry,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 9. API handlers и маршрутизатор
	healthHandler := handlers.NewHealthHandler(
		database.NewReadinessChecker(pool),
		blobs,
	)
	apiHandler := handlers.NewAPIHandler(shareSvc, accessSvc, blobs, healthHandler, logger)

	// 10. HTTP-сервер (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg, logger, apiHandler.Router(logger))
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("qrshare остановлен")
}
