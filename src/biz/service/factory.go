package service

import (
	"sync"

	"github.com/CE-Thesis-2023/camctl/src/internal/configs"
)

var once sync.Once

var layoutService *LayoutService

func Init(remote RemoteApi) {
	once.Do(func() {
		layoutService = NewLayoutService(remote, &configs.Get().Layout)
	})
}

func GetLayoutService() *LayoutService {
	return layoutService
}
