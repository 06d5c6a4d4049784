package custmqtt

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/CE-Thesis-2023/camctl/src/internal/configs"
	"github.com/CE-Thesis-2023/camctl/src/internal/logger"
	"go.uber.org/zap"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
)

var (
	clientMu sync.Mutex
	client   *autopaho.ConnectionManager
)

// InitClient starts the shared connection manager. The broker being down is
// not fatal, autopaho keeps retrying in the background.
func InitClient(ctx context.Context, options ...ClientOptioner) {
	clientMu.Lock()
	defer clientMu.Unlock()
	if client != nil {
		return
	}
	client = NewClient(ctx, options...)
}

func Client() *autopaho.ConnectionManager {
	clientMu.Lock()
	defer clientMu.Unlock()
	return client
}

func StopClient(ctx context.Context) {
	clientMu.Lock()
	defer clientMu.Unlock()
	if client == nil {
		return
	}
	if err := client.Disconnect(ctx); err != nil {
		logger.SError("StopClient: MQTT disconnect failed", zap.Error(err))
	}
	client = nil
}

func NewClient(ctx context.Context, options ...ClientOptioner) *autopaho.ConnectionManager {
	opts := &ClientOptions{}
	for _, opt := range options {
		opt(opts)
	}

	globalConfigs := opts.globalConfigs
	connUrl := brokerUrl(globalConfigs)

	router := paho.NewStandardRouter()

	if opts.register != nil {
		opts.register(router)
	}

	clientConfigs := autopaho.ClientConfig{
		KeepAlive:         20,
		ConnectRetryDelay: time.Second * 5,
		ConnectTimeout:    time.Second * 2,
		BrokerUrls: []*url.URL{
			connUrl,
		},
		Debug:     logger.NewZapToPahoLogger(logger.Logger()),
		PahoDebug: logger.NewZapToPahoLogger(logger.Logger()),
		ClientConfig: paho.ClientConfig{
			ClientID: globalConfigs.ClientId,
			Router:   router,
		},
	}

	if globalConfigs.Tls.Enabled {
		clientConfigs.TlsCfg = makeTlsConfigs(globalConfigs)
	}

	if globalConfigs.HasAuth() {
		clientConfigs.SetUsernamePassword(globalConfigs.Username, []byte(globalConfigs.Password))
	}

	if opts.reconCallback != nil {
		clientConfigs.OnConnectionUp = opts.reconCallback
	}

	if opts.connErrCallback != nil {
		clientConfigs.OnConnectError = opts.connErrCallback
	}

	if opts.clientErr != nil {
		clientConfigs.ClientConfig.OnClientError = opts.clientErr
	}

	if opts.serverDisconnect != nil {
		clientConfigs.ClientConfig.OnServerDisconnect = opts.serverDisconnect
	}

	connManager, err := autopaho.NewConnection(ctx, clientConfigs)
	if err != nil {
		logger.SError("MQTT connection failed",
			zap.Error(err))
		return nil
	}

	awaitCtx, cancel := context.WithTimeout(ctx, clientConfigs.ConnectTimeout*2)
	defer cancel()
	if err := connManager.AwaitConnection(awaitCtx); err != nil {
		logger.SWarn("MQTT broker not reachable yet, retrying in background",
			zap.String("broker", connUrl.String()),
			zap.Error(err))
	}

	return connManager
}

func brokerUrl(globalConfigs *configs.MqttConfigs) *url.URL {
	connUrl := &url.URL{}
	if globalConfigs.Tls.Enabled {
		connUrl.Scheme = "tls"
	} else {
		connUrl.Scheme = "mqtt"
	}
	hostname := globalConfigs.Host

	if globalConfigs.Port > 0 {
		hostname = fmt.Sprintf("%s:%d", globalConfigs.Host, globalConfigs.Port)
	}
	connUrl.Host = hostname
	return connUrl
}

func makeTlsConfigs(globalConfigs *configs.MqttConfigs) *tls.Config {
	return &tls.Config{
		ServerName: globalConfigs.Host,
	}
}

type ClientOptions struct {
	globalConfigs    *configs.MqttConfigs
	reconCallback    func(cm *autopaho.ConnectionManager, connack *paho.Connack)
	connErrCallback  func(err error)
	serverDisconnect func(d *paho.Disconnect)
	clientErr        func(err error)
	register         RouterRegister
}

type ClientOptioner func(options *ClientOptions)

type RouterRegister func(router *paho.StandardRouter)

func WithClientGlobalConfigs(configs *configs.MqttConfigs) ClientOptioner {
	return func(options *ClientOptions) {
		options.globalConfigs = configs
	}
}

func WithOnReconnection(cb func(cm *autopaho.ConnectionManager, connack *paho.Connack)) ClientOptioner {
	return func(options *ClientOptions) {
		options.reconCallback = cb
	}
}

func WithOnConnectError(cb func(err error)) ClientOptioner {
	return func(options *ClientOptions) {
		options.connErrCallback = cb
	}
}

func WithOnServerDisconnect(cb func(d *paho.Disconnect)) ClientOptioner {
	return func(options *ClientOptions) {
		options.serverDisconnect = cb
	}
}

func WithClientError(cb func(err error)) ClientOptioner {
	return func(options *ClientOptions) {
		options.clientErr = cb
	}
}

func WithHandlerRegister(cb RouterRegister) ClientOptioner {
	return func(options *ClientOptions) {
		options.register = cb
	}
}
