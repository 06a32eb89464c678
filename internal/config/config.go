// Пакет config — загрузка и валидация конфигурации QR Share
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации QR Share.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (диапазон 8040-8049)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Публичный базовый URL сервиса — origin для view-ссылок и QR-кодов
	PublicURL string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	// --- Blob-хранилище ---

	// Директория хранения загруженных файлов
	BlobDir string
	// Прозрачное zstd-сжатие файлов на диске
	BlobCompress bool

	// --- Кэш записей ---

	// Максимальное количество записей в LRU-кэше
	CacheSize int
	// TTL записи в кэше
	CacheTTL time.Duration

	// --- Мониторинг зависимостей ---

	// Имя группы в dephealth-метриках
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration
	// Лейбл isentry=yes для входной точки графа
	DephealthIsEntry bool

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.DBUser), url.QueryEscape(c.DBPassword),
		c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// QS_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("QS_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("QS_PORT: %w", err)
	}

	// QS_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("QS_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("QS_LOG_LEVEL: %w", err)
	}

	// QS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("QS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("QS_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// QS_PUBLIC_URL — публичный базовый URL (по умолчанию http://localhost:{port})
	cfg.PublicURL = getEnvDefault("QS_PUBLIC_URL", fmt.Sprintf("http://localhost:%d", cfg.Port))
	parsed, err := url.Parse(cfg.PublicURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("QS_PUBLIC_URL: некорректный URL %q", cfg.PublicURL)
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	// --- HTTP Server Timeouts ---

	// QS_HTTP_READ_TIMEOUT — таймаут чтения (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvDuration("QS_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("QS_HTTP_READ_TIMEOUT: %w", err)
	}

	// QS_HTTP_WRITE_TIMEOUT — таймаут записи (по умолчанию 60s)
	cfg.HTTPWriteTimeout, err = getEnvDuration("QS_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("QS_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// QS_HTTP_IDLE_TIMEOUT — таймаут простоя (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("QS_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("QS_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- PostgreSQL ---

	// QS_DB_HOST — адрес PostgreSQL (обязательная)
	cfg.DBHost, err = getEnvRequired("QS_DB_HOST")
	if err != nil {
		return nil, err
	}

	// QS_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("QS_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("QS_DB_PORT: %w", err)
	}

	// QS_DB_NAME — имя базы данных (обязательная)
	cfg.DBName, err = getEnvRequired("QS_DB_NAME")
	if err != nil {
		return nil, err
	}

	// QS_DB_USER — пользователь БД (обязательная)
	cfg.DBUser, err = getEnvRequired("QS_DB_USER")
	if err != nil {
		return nil, err
	}

	// QS_DB_PASSWORD — пароль БД (обязательная)
	cfg.DBPassword, err = getEnvRequired("QS_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// QS_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("QS_DB_SSL_MODE", "disable")

	// --- Blob-хранилище ---

	// QS_BLOB_DIR — директория хранения файлов (по умолчанию /var/lib/qrshare/uploads)
	cfg.BlobDir = getEnvDefault("QS_BLOB_DIR", "/var/lib/qrshare/uploads")

	// QS_BLOB_COMPRESS — zstd-сжатие файлов на диске (по умолчанию false)
	cfg.BlobCompress, err = getEnvBool("QS_BLOB_COMPRESS", false)
	if err != nil {
		return nil, fmt.Errorf("QS_BLOB_COMPRESS: %w", err)
	}

	// --- Кэш записей ---

	// QS_CACHE_SIZE — размер LRU-кэша (по умолчанию 1000)
	cfg.CacheSize, err = getEnvInt("QS_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("QS_CACHE_SIZE: %w", err)
	}
	if cfg.CacheSize < 1 {
		return nil, fmt.Errorf("QS_CACHE_SIZE: значение должно быть > 0")
	}

	// QS_CACHE_TTL — TTL записи в кэше (по умолчанию 5m)
	cfg.CacheTTL, err = getEnvDuration("QS_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("QS_CACHE_TTL: %w", err)
	}

	// --- Мониторинг зависимостей ---

	// QS_DEPHEALTH_GROUP — имя группы в метриках (по умолчанию qrshare)
	cfg.DephealthGroup = getEnvDefault("QS_DEPHEALTH_GROUP", "qrshare")

	// QS_DEPHEALTH_CHECK_INTERVAL — интервал проверки (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("QS_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("QS_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// DEPHEALTH_ISENTRY — лейбл isentry=yes (по умолчанию true — сервис является входной точкой)
	cfg.DephealthIsEntry, err = getEnvBool("DEPHEALTH_ISENTRY", true)
	if err != nil {
		return nil, fmt.Errorf("DEPHEALTH_ISENTRY: %w", err)
	}

	// --- Graceful shutdown ---

	// QS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("QS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("QS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
