package obs

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/CE-Thesis-2023/camctl/src/internal/configs"
	"github.com/gorilla/websocket"
)

type fakeResponse struct {
	ok      bool
	code    int
	comment string
	data    map[string]interface{}
}

type fakeHandler func(requestType string, data map[string]interface{}) fakeResponse

type recordedRequest struct {
	RequestType string
	Data        map[string]interface{}
	Batch       bool
}

// fakeObs speaks enough of the obs-websocket v5 protocol for client tests.
type fakeObs struct {
	t        *testing.T
	server   *httptest.Server
	password string
	handler  fakeHandler

	mu          sync.Mutex
	requests    []recordedRequest
	connections int
	identifies  []map[string]interface{}
	dropAfter   int
}

func newFakeObs(t *testing.T, password string, handler fakeHandler) *fakeObs {
	f := &fakeObs{
		t:        t,
		password: password,
		handler:  handler,
	}
	upgrader := websocket.Upgrader{
		Subprotocols: []string{subprotocolJson},
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %s", err)
			return
		}
		defer conn.Close()
		f.serve(conn)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeObs) url() string {
	return "ws://" + strings.TrimPrefix(f.server.URL, "http://")
}

func (f *fakeObs) configs() *configs.ObsConfigs {
	return &configs.ObsConfigs{
		Url:      f.url(),
		Password: f.password,
	}
}

func (f *fakeObs) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeObs) serve(conn *websocket.Conn) {
	f.mu.Lock()
	f.connections++
	f.mu.Unlock()

	helloData := map[string]interface{}{
		"obsWebSocketVersion": "5.4.2",
		"rpcVersion":          1,
	}
	auth := &authentication{Challenge: "challenge-value", Salt: "salt-value"}
	if f.password != "" {
		helloData["authentication"] = map[string]interface{}{
			"challenge": auth.Challenge,
			"salt":      auth.Salt,
		}
	}
	if err := conn.WriteJSON(map[string]interface{}{"op": opHello, "d": helloData}); err != nil {
		return
	}

	var ident struct {
		Op int                    `json:"op"`
		D  map[string]interface{} `json:"d"`
	}
	if err := conn.ReadJSON(&ident); err != nil {
		return
	}
	f.mu.Lock()
	f.identifies = append(f.identifies, ident.D)
	f.mu.Unlock()

	if f.password != "" {
		if got, _ := ident.D["authentication"].(string); got != authString(f.password, auth) {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(closeAuthenticationFailed, "Authentication failed."))
			return
		}
	}
	if err := conn.WriteJSON(map[string]interface{}{
		"op": opIdentified,
		"d":  map[string]interface{}{"negotiatedRpcVersion": 1},
	}); err != nil {
		return
	}

	served := 0
	for {
		var msg struct {
			Op int                    `json:"op"`
			D  map[string]interface{} `json:"d"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Op {
		case opRequest:
			requestType, _ := msg.D["requestType"].(string)
			data, _ := msg.D["requestData"].(map[string]interface{})
			f.record(recordedRequest{RequestType: requestType, Data: data})
			conn.WriteJSON(map[string]interface{}{
				"op": opRequestResponse,
				"d":  f.respond(requestType, msg.D["requestId"], data),
			})
		case opRequestBatch:
			items, _ := msg.D["requests"].([]interface{})
			results := make([]interface{}, 0, len(items))
			for _, item := range items {
				m, _ := item.(map[string]interface{})
				requestType, _ := m["requestType"].(string)
				data, _ := m["requestData"].(map[string]interface{})
				f.record(recordedRequest{RequestType: requestType, Data: data, Batch: true})
				results = append(results, f.respond(requestType, m["requestId"], data))
			}
			conn.WriteJSON(map[string]interface{}{
				"op": opRequestBatchResponse,
				"d": map[string]interface{}{
					"requestId": msg.D["requestId"],
					"results":   results,
				},
			})
		}

		served++
		f.mu.Lock()
		dropAfter := f.dropAfter
		f.mu.Unlock()
		if dropAfter > 0 && served >= dropAfter {
			return
		}
	}
}

func (f *fakeObs) record(r recordedRequest) {
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.mu.Unlock()
}

func (f *fakeObs) respond(requestType string, requestId interface{}, data map[string]interface{}) map[string]interface{} {
	resp := fakeResponse{ok: true, code: statusSuccess}
	if f.handler != nil {
		resp = f.handler(requestType, data)
	}
	d := map[string]interface{}{
		"requestType": requestType,
		"requestStatus": map[string]interface{}{
			"result":  resp.ok,
			"code":    resp.code,
			"comment": resp.comment,
		},
	}
	if requestId != nil {
		d["requestId"] = requestId
	}
	if resp.data != nil {
		d["responseData"] = resp.data
	}
	return d
}
