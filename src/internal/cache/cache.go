package cache

import (
	"sync"

	"github.com/CE-Thesis-2023/camctl/src/internal/logger"
	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

var (
	once  sync.Once
	cache *ristretto.Cache
)

func Init() {
	once.Do(func() {
		c, err := New()
		if err != nil {
			logger.SFatal("cache.Init: ristretto.NewCache", zap.Error(err))
			return
		}
		cache = c
	})
}

func New() (*ristretto.Cache, error) {
	return ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
}

func Cache() *ristretto.Cache {
	return cache
}
