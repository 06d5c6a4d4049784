package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CE-Thesis-2023/camctl/src/internal/configs"
	"github.com/CE-Thesis-2023/camctl/src/internal/logger"
	"github.com/carlmjohnson/flowmatic"
	"go.uber.org/zap"
)

// Server is anything Run starts in the background and stops on shutdown.
type Server interface {
	Name() string
	Start() error
	Stop(ctx context.Context) error
}

// Binder is implemented by servers that must bind before Run reports the
// process as started.
type Binder interface {
	Listen() error
	Serve() error
}

func Run(shutdownTimeout time.Duration, registration RegistrationFunc) {
	ctx := context.Background()
	configs.Init(ctx)

	globalConfigs := configs.Get()

	loggerConfigs := globalConfigs.Logger
	logger.Init(ctx, logger.WithGlobalConfigs(&loggerConfigs))

	options := registration(globalConfigs, logger.Logger())

	opts := Options{}
	for _, optioner := range options {
		optioner(&opts)
	}

	logger := zap.L().Sugar()

	logger.Infof("Run: configs = %s", globalConfigs.String())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if opts.factoryHook != nil {
		if err := opts.factoryHook(); err != nil {
			logger.Fatalf("Run: factoryHook err = %s", err)
			return
		}
	}

	for _, s := range opts.servers {
		s := s
		if binder, ok := s.(Binder); ok {
			if err := binder.Listen(); err != nil {
				logger.Fatalf("Run: bind server name = %s err = %s", s.Name(), err)
				return
			}
			go func() {
				logger.Infof("Run: start server name = %s", s.Name())
				if err := binder.Serve(); err != nil {
					logger.Errorf("Run: server name = %s err = %s", s.Name(), err)
				}
			}()
			continue
		}
		go func() {
			logger.Infof("Run: start server name = %s", s.Name())
			if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("Run: server name = %s err = %s", s.Name(), err)
			}
		}()
	}

	sig := <-quit
	logger.Infof("Run: received signal = %s", sig)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stops := make([]func() error, 0, len(opts.servers))
	for _, s := range opts.servers {
		s := s
		stops = append(stops, func() error {
			logger.Infof("Run: stop server name = %s", s.Name())
			return s.Stop(ctx)
		})
	}
	if err := flowmatic.Do(stops...); err != nil {
		logger.Errorf("Run: stop servers err = %s", err)
	}

	if opts.shutdownHook != nil {
		opts.shutdownHook(ctx)
	}

	zap.L().Sync()
	log.Print("Run: shutdown complete")
}

type RegistrationFunc func(configs *configs.Configs, logger *zap.Logger) []Optioner
type FactoryHook func() error
type ShutdownHook func(ctx context.Context)

type Options struct {
	servers []Server

	factoryHook  FactoryHook
	shutdownHook ShutdownHook
}

type Optioner func(opts *Options)

func WithServer(server Server) Optioner {
	return func(opts *Options) {
		if server != nil {
			opts.servers = append(opts.servers, server)
		}
	}
}

func WithFactoryHook(cb FactoryHook) Optioner {
	return func(opts *Options) {
		opts.factoryHook = cb
	}
}

func WithShutdownHook(cb ShutdownHook) Optioner {
	return func(opts *Options) {
		opts.shutdownHook = cb
	}
}
