package obs

import (
	"context"
	"sync"
	"time"

	"github.com/CE-Thesis-2023/camctl/src/internal/configs"
	custerror "github.com/CE-Thesis-2023/camctl/src/internal/error"
	"github.com/CE-Thesis-2023/camctl/src/internal/logger"
	"github.com/avast/retry-go"
	"github.com/bytedance/sonic"
	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Client struct {
	options *ClientOptions

	connectMu sync.Mutex
	writeMu   sync.Mutex

	mu         sync.Mutex
	conn       *websocket.Conn
	identified bool
	pending    map[string]chan pendingResult
}

type pendingResult struct {
	d   map[string]interface{}
	err error
}

type ClientOptions struct {
	configs *configs.ObsConfigs
	cache   *ristretto.Cache
}

type ClientOptioner func(o *ClientOptions)

func WithGlobalConfigs(c *configs.ObsConfigs) ClientOptioner {
	return func(o *ClientOptions) {
		o.configs = c
	}
}

// WithCache enables caching of scene item ids and video settings.
func WithCache(c *ristretto.Cache) ClientOptioner {
	return func(o *ClientOptions) {
		o.cache = c
	}
}

func NewClient(options ...ClientOptioner) *Client {
	opts := &ClientOptions{
		configs: &configs.ObsConfigs{},
	}
	for _, o := range options {
		o(opts)
	}
	return &Client{
		options: opts,
		pending: make(map[string]chan pendingResult),
	}
}

func (c *Client) requestTimeout() time.Duration {
	if c.options.configs.RequestTimeout > 0 {
		return c.options.configs.RequestTimeout
	}
	return configs.DefaultRequestTimeout
}

func (c *Client) connectTimeout() time.Duration {
	if c.options.configs.ConnectTimeout > 0 {
		return c.options.configs.ConnectTimeout
	}
	return configs.DefaultConnectTimeout
}

func (c *Client) Identified() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identified
}

// Connect dials OBS and completes the Hello/Identify handshake unless the
// client is already identified. Failures are logged and returned; the client
// then stays disconnected until the next call.
func (c *Client) Connect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if c.Identified() {
		return nil
	}
	return c.connectWithRetry(ctx)
}

func (c *Client) connectWithRetry(ctx context.Context) error {
	attempts := c.options.configs.ConnectAttempts
	if attempts == 0 {
		attempts = 1
	}

	err := retry.Do(func() error {
		return c.connect(ctx)
	},
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && custerror.CodeOf(err) != custerror.CodePermissionDenied
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.SDebug("obs.Connect: retrying",
				zap.Uint("attempt", n+1),
				zap.Error(err))
		}))
	if err != nil {
		logger.SError("obs.Connect: connection error",
			zap.String("url", c.options.configs.Url),
			zap.Error(err))
		return err
	}

	logger.SInfo("obs.Connect: connected", zap.String("url", c.options.configs.Url))
	return nil
}

func (c *Client) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.connectTimeout(),
		Subprotocols:     []string{subprotocolJson},
	}

	conn, _, err := dialer.DialContext(ctx, c.options.configs.Url, nil)
	if err != nil {
		return custerror.FormatUnavailable("obs: dial %s: %s", c.options.configs.Url, err)
	}

	if err := c.handshake(conn); err != nil {
		conn.Close()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.identified = true
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

func (c *Client) handshake(conn *websocket.Conn) error {
	conn.SetReadDeadline(time.Now().Add(c.connectTimeout()))
	defer conn.SetReadDeadline(time.Time{})

	msg, err := readMessage(conn)
	if err != nil {
		return custerror.FormatUnavailable("obs: read Hello: %s", err)
	}
	if msg.Op != opHello {
		return custerror.FormatInternalError("obs: expected Hello, got op %d", msg.Op)
	}
	var h hello
	if err := decode(msg.D, &h); err != nil {
		return custerror.FormatInternalError("obs: decode Hello: %s", err)
	}

	ident := identify{
		RpcVersion: rpcVersion,
	}
	if h.Authentication != nil {
		if !c.options.configs.HasAuth() {
			return custerror.FormatPermissionDenied("obs: server requires a password")
		}
		ident.Authentication = authString(c.options.configs.Password, h.Authentication)
	}
	if err := writeMessage(conn, opIdentify, ident); err != nil {
		return custerror.FormatUnavailable("obs: send Identify: %s", err)
	}

	msg, err = readMessage(conn)
	if err != nil {
		if websocket.IsCloseError(err, closeAuthenticationFailed) {
			return custerror.FormatPermissionDenied("obs: authentication failed")
		}
		return custerror.FormatUnavailable("obs: read Identified: %s", err)
	}
	if msg.Op != opIdentified {
		return custerror.FormatInternalError("obs: expected Identified, got op %d", msg.Op)
	}
	var ided identified
	if err := decode(msg.D, &ided); err != nil {
		return custerror.FormatInternalError("obs: decode Identified: %s", err)
	}
	logger.SDebug("obs.handshake: identified",
		zap.String("obsWebSocketVersion", h.ObsWebSocketVersion),
		zap.Int("rpcVersion", ided.NegotiatedRpcVersion))
	return nil
}

const closeAuthenticationFailed = 4009

func (c *Client) ensureConnected(ctx context.Context) error {
	return c.Connect(ctx)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				logger.SDebug("obs.readLoop: connection closed")
			} else {
				logger.SError("obs.readLoop: ReadMessage error", zap.Error(err))
			}
			c.dropConnection(conn, custerror.FormatUnavailable("obs: connection lost: %s", err))
			return
		}

		var msg incoming
		if err := sonic.Unmarshal(raw, &msg); err != nil {
			logger.SError("obs.readLoop: unmarshal error", zap.Error(err))
			continue
		}

		switch msg.Op {
		case opRequestResponse, opRequestBatchResponse:
			requestId, _ := msg.D["requestId"].(string)
			c.resolve(requestId, pendingResult{d: msg.D})
		case opEvent:
			logger.SDebug("obs.readLoop: event ignored", zap.Any("eventType", msg.D["eventType"]))
		default:
			logger.SDebug("obs.readLoop: unexpected op", zap.Int("op", msg.Op))
		}
	}
}

func (c *Client) resolve(requestId string, result pendingResult) {
	c.mu.Lock()
	ch, found := c.pending[requestId]
	delete(c.pending, requestId)
	c.mu.Unlock()

	if !found {
		logger.SDebug("obs.resolve: no pending request", zap.String("requestId", requestId))
		return
	}
	ch <- result
}

func (c *Client) dropConnection(conn *websocket.Conn, reason error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.identified = false
	pending := c.pending
	c.pending = make(map[string]chan pendingResult)
	c.mu.Unlock()

	conn.Close()
	for _, ch := range pending {
		ch <- pendingResult{err: reason}
	}
	if c.options.cache != nil {
		c.options.cache.Clear()
	}
}

func (c *Client) send(ctx context.Context, op int, requestId string, payload interface{}) (map[string]interface{}, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	ch := make(chan pendingResult, 1)
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil, custerror.FormatUnavailable("obs: not connected")
	}
	c.pending[requestId] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := writeMessage(conn, op, payload)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(requestId)
		c.dropConnection(conn, custerror.FormatUnavailable("obs: write failed: %s", err))
		return nil, custerror.FormatUnavailable("obs: write failed: %s", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout())
	defer cancel()

	select {
	case result := <-ch:
		return result.d, result.err
	case <-ctx.Done():
		c.forget(requestId)
		return nil, custerror.FormatUnavailable("obs: request %s timed out", requestId)
	}
}

func (c *Client) forget(requestId string) {
	c.mu.Lock()
	delete(c.pending, requestId)
	c.mu.Unlock()
}

func (c *Client) call(ctx context.Context, requestType string, requestData interface{}) (map[string]interface{}, error) {
	req := request{
		RequestType: requestType,
		RequestId:   uuid.NewString(),
		RequestData: requestData,
	}
	d, err := c.send(ctx, opRequest, req.RequestId, req)
	if err != nil {
		return nil, err
	}

	var resp requestResponse
	if err := decode(d, &resp); err != nil {
		return nil, custerror.FormatInternalError("%s: decode response: %s", requestType, err)
	}
	if err := resp.err(); err != nil {
		logger.SDebug("obs.call: request failed",
			zap.String("requestType", requestType),
			zap.Error(err))
		return nil, err
	}
	return resp.ResponseData, nil
}

// callBatch runs requests serially on the OBS side in a single round trip.
// Every failed item is reported; the first failure is returned.
func (c *Client) callBatch(ctx context.Context, requests []request, haltOnFailure bool) error {
	batch := requestBatch{
		RequestId:     uuid.NewString(),
		HaltOnFailure: haltOnFailure,
		ExecutionType: executionSerialRealtime,
		Requests:      requests,
	}
	d, err := c.send(ctx, opRequestBatch, batch.RequestId, batch)
	if err != nil {
		return err
	}

	var resp requestBatchResponse
	if err := decode(d, &resp); err != nil {
		return custerror.FormatInternalError("RequestBatch: decode response: %s", err)
	}

	var firstErr error
	for _, result := range resp.Results {
		if err := result.err(); err != nil {
			logger.SWarn("obs.callBatch: request failed",
				zap.String("requestType", result.RequestType),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	err := conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	if err != nil {
		logger.SDebug("obs.Close: close frame not sent", zap.Error(err))
	}

	c.dropConnection(conn, custerror.FormatUnavailable("obs: client closed"))
	logger.SDebug("obs.Close: shutdown completed")
	return nil
}

func readMessage(conn *websocket.Conn) (*incoming, error) {
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var msg incoming
	if err := sonic.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func writeMessage(conn *websocket.Conn, op int, d interface{}) error {
	payload, err := sonic.Marshal(&outgoing{Op: op, D: d})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}
