package eventsapi

import (
	"sync"

	"github.com/CE-Thesis-2023/camctl/src/internal/concurrent"
	"github.com/CE-Thesis-2023/camctl/src/internal/configs"
)

var once sync.Once

var commandBridge *CommandBridge

func Init(responder Responder, c *configs.MqttConfigs) {
	once.Do(func() {
		commandBridge = NewCommandBridge(responder, custcon.New(1), c.ResultTopic())
	})
}

func GetCommandBridge() *CommandBridge {
	return commandBridge
}

func Shutdown() {
	if commandBridge != nil {
		commandBridge.pool.Release()
	}
}
