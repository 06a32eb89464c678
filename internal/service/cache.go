// cache.go — LRU-кэш записей шаринга с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
// Записи write-once, поэтому инвалидация не нужна — только TTL.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/qrshare/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qs_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш записей.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qs_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша записей.",
	})
)

// CacheService — LRU-кэш записей шаринга с автоматическим TTL.
// Каждый экземпляр сервиса имеет собственный in-memory кэш.
type CacheService struct {
	texts *expirable.LRU[string, *model.TextShare]
	files *expirable.LRU[string, *model.FileShare]
}

// NewCacheService создаёт LRU-кэш с указанным максимальным размером и TTL.
// maxSize — максимальное количество записей каждого вида.
// ttl — время жизни записи после добавления.
func NewCacheService(maxSize int, ttl time.Duration) *CacheService {
	return &CacheService{
		texts: expirable.NewLRU[string, *model.TextShare](maxSize, nil, ttl),
		files: expirable.NewLRU[string, *model.FileShare](maxSize, nil, ttl),
	}
}

// GetText возвращает текстовую запись из кэша по id.
// Возвращает (запись, true) при hit или (nil, false) при miss.
func (c *CacheService) GetText(id string) (*model.TextShare, bool) {
	val, ok := c.texts.Get(id)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// SetText добавляет текстовую запись в кэш.
func (c *CacheService) SetText(id string, share *model.TextShare) {
	c.texts.Add(id, share)
}

// GetFile возвращает файловую запись из кэша по id.
func (c *CacheService) GetFile(id string) (*model.FileShare, bool) {
	val, ok := c.files.Get(id)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// SetFile добавляет файловую запись в кэш.
func (c *CacheService) SetFile(id string, share *model.FileShare) {
	c.files.Add(id, share)
}
