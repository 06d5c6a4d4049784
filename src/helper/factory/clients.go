package factory

import (
	"context"
	"sync"

	"github.com/CE-Thesis-2023/camctl/src/internal/cache"
	"github.com/CE-Thesis-2023/camctl/src/internal/configs"
	"github.com/CE-Thesis-2023/camctl/src/internal/obs"
)

var once sync.Once

var obsClient *obs.Client

func Init(ctx context.Context, configs *configs.Configs) {
	once.Do(func() {
		obsClient = obs.NewClient(
			obs.WithGlobalConfigs(&configs.Obs),
			obs.WithCache(cache.Cache()),
		)
	})
}

func Obs() *obs.Client {
	return obsClient
}
