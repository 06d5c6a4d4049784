package main

import (
	"context"
	"time"

	eventsapi "github.com/CE-Thesis-2023/camctl/src/api/events"
	publicapi "github.com/CE-Thesis-2023/camctl/src/api/public"
	"github.com/CE-Thesis-2023/camctl/src/biz/handlers"
	"github.com/CE-Thesis-2023/camctl/src/biz/service"
	"github.com/CE-Thesis-2023/camctl/src/helper/factory"
	"github.com/CE-Thesis-2023/camctl/src/internal/app"
	"github.com/CE-Thesis-2023/camctl/src/internal/cache"
	"github.com/CE-Thesis-2023/camctl/src/internal/configs"
	"github.com/CE-Thesis-2023/camctl/src/internal/ipc"
	"github.com/CE-Thesis-2023/camctl/src/internal/logger"
	custmqtt "github.com/CE-Thesis-2023/camctl/src/internal/mqtt"
	"github.com/CE-Thesis-2023/camctl/src/sidecar"
	"go.uber.org/zap"
)

func main() {
	app.Run(
		time.Second*10,
		func(configs *configs.Configs, zl *zap.Logger) []app.Optioner {
			ctx := context.Background()

			cache.Init()
			factory.Init(ctx, configs)
			service.Init(factory.Obs())

			commandHandler := handlers.NewCommandHandler(service.GetLayoutService())

			options := []app.Optioner{
				app.WithServer(ipc.New(
					ipc.WithGlobalConfigs(&configs.Ipc),
					ipc.WithResponder(commandHandler),
				)),
			}

			if configs.Http.Enabled() {
				options = append(options, app.WithServer(sidecar.NewHttpSidecar(
					&configs.Http,
					publicapi.ServiceRegistration(service.GetLayoutService()),
				)))
			}

			options = append(options,
				app.WithFactoryHook(func() error {
					connectCtx, cancel := context.WithTimeout(ctx, configs.Obs.ConnectTimeout)
					defer cancel()
					if err := factory.Obs().Connect(connectCtx); err != nil {
						logger.SWarn("OBS not reachable at startup, connecting on first command",
							zap.String("url", configs.Obs.Url),
							zap.Error(err))
					}

					if configs.Mqtt.Enabled {
						eventsapi.Init(commandHandler, &configs.Mqtt)
						custmqtt.InitClient(
							ctx,
							custmqtt.WithClientGlobalConfigs(&configs.Mqtt),
							custmqtt.WithOnReconnection(eventsapi.Register),
							custmqtt.WithOnConnectError(func(err error) {
								zl.Error("MQTT Connection failed", zap.Error(err))
							}),
							custmqtt.WithClientError(eventsapi.ClientErrorHandler),
							custmqtt.WithOnServerDisconnect(eventsapi.DisconnectHandler),
							custmqtt.WithHandlerRegister(eventsapi.RouterHandler()),
						)
					}
					return nil
				}),
				app.WithShutdownHook(func(ctx context.Context) {
					custmqtt.StopClient(ctx)
					eventsapi.Shutdown()
					if err := factory.Obs().Close(ctx); err != nil {
						logger.SWarn("closing OBS connection failed", zap.Error(err))
					}
					logger.Close()
				}),
			)
			return options
		},
	)
}
