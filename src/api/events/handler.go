package eventsapi

import (
	"context"
	"strings"
	"sync"
	"time"

	custerror "github.com/CE-Thesis-2023/camctl/src/internal/error"
	"github.com/CE-Thesis-2023/camctl/src/internal/logger"

	"github.com/bytedance/sonic"
	"github.com/eclipse/paho.golang/paho"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

const commandTimeout = 30 * time.Second

type Responder interface {
	Respond(ctx context.Context, line string) interface{}
}

type Publisher interface {
	Publish(ctx context.Context, p *paho.Publish) (*paho.PublishResponse, error)
}

// CommandBridge runs command lines received over MQTT and publishes the
// envelope. The pool must have a single worker so commands keep their order.
type CommandBridge struct {
	responder   Responder
	pool        *ants.Pool
	resultTopic string

	mu        sync.RWMutex
	publisher Publisher
}

func NewCommandBridge(responder Responder, pool *ants.Pool, resultTopic string) *CommandBridge {
	return &CommandBridge{
		responder:   responder,
		pool:        pool,
		resultTopic: resultTopic,
	}
}

func (h *CommandBridge) SetPublisher(p Publisher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publisher = p
}

func (h *CommandBridge) getPublisher() Publisher {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.publisher
}

func (h *CommandBridge) ReceiveCommand(p *paho.Publish) error {
	logger.SDebug("ReceiveCommand", zap.String("message", string(p.Payload)))

	line := string(p.Payload)
	if len(strings.TrimSpace(line)) == 0 {
		logger.SDebug("ReceiveCommand: blank payload, skipping")
		return nil
	}

	topic := h.resultTopic
	var correlation []byte
	if p.Properties != nil {
		if len(p.Properties.ResponseTopic) > 0 {
			topic = p.Properties.ResponseTopic
		}
		correlation = p.Properties.CorrelationData
	}

	if err := h.pool.Submit(func() {
		h.execute(line, topic, correlation)
	}); err != nil {
		logger.SError("ReceiveCommand: submit failed", zap.Error(err))
		return custerror.FormatUnavailable("command queue: %s", err)
	}
	return nil
}

func (h *CommandBridge) execute(line, topic string, correlation []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer func() {
		if ctx.Err() != nil {
			logger.SDebug("execute: context exceeded")
		}
		cancel()
	}()

	response := h.responder.Respond(ctx, line)
	payload, err := sonic.Marshal(response)
	if err != nil {
		logger.SError("execute: encode response failed", zap.Error(err))
		return
	}

	publisher := h.getPublisher()
	if publisher == nil {
		logger.SWarn("execute: no MQTT connection, dropping result",
			zap.String("command", line))
		return
	}

	msg := &paho.Publish{
		Topic:   topic,
		QoS:     1,
		Payload: payload,
	}
	if len(correlation) > 0 {
		msg.Properties = &paho.PublishProperties{
			CorrelationData: correlation,
		}
	}
	if _, err := publisher.Publish(ctx, msg); err != nil {
		logger.SError("execute: publish result failed",
			zap.String("topic", topic),
			zap.Error(err))
		return
	}
	logger.SDebug("execute: result published", zap.String("topic", topic))
}
