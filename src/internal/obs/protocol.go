package obs

import (
	custerror "github.com/CE-Thesis-2023/camctl/src/internal/error"
	"github.com/mitchellh/mapstructure"
)

const subprotocolJson = "obswebsocket.json"

const rpcVersion = 1

const (
	opHello                = 0
	opIdentify             = 1
	opIdentified           = 2
	opEvent                = 5
	opRequest              = 6
	opRequestResponse      = 7
	opRequestBatch         = 8
	opRequestBatchResponse = 9
)

// Request batch execution types.
const (
	executionSerialRealtime = 0
)

// Request status codes worth telling apart.
const (
	statusSuccess          = 100
	statusMissingField     = 300
	statusInvalidField     = 400
	statusResourceNotFound = 600
)

type incoming struct {
	Op int                    `json:"op"`
	D  map[string]interface{} `json:"d"`
}

type outgoing struct {
	Op int         `json:"op"`
	D  interface{} `json:"d"`
}

type hello struct {
	ObsWebSocketVersion string          `json:"obsWebSocketVersion"`
	RpcVersion          int             `json:"rpcVersion"`
	Authentication      *authentication `json:"authentication,omitempty"`
}

type authentication struct {
	Challenge string `json:"challenge"`
	Salt      string `json:"salt"`
}

type identify struct {
	RpcVersion         int    `json:"rpcVersion"`
	Authentication     string `json:"authentication,omitempty"`
	EventSubscriptions int    `json:"eventSubscriptions"`
}

type identified struct {
	NegotiatedRpcVersion int `json:"negotiatedRpcVersion"`
}

type request struct {
	RequestType string      `json:"requestType"`
	RequestId   string      `json:"requestId,omitempty"`
	RequestData interface{} `json:"requestData,omitempty"`
}

type requestBatch struct {
	RequestId     string    `json:"requestId"`
	HaltOnFailure bool      `json:"haltOnFailure"`
	ExecutionType int       `json:"executionType"`
	Requests      []request `json:"requests"`
}

type requestStatus struct {
	Result  bool   `json:"result"`
	Code    int    `json:"code"`
	Comment string `json:"comment"`
}

type requestResponse struct {
	RequestType   string                 `json:"requestType"`
	RequestId     string                 `json:"requestId"`
	RequestStatus requestStatus          `json:"requestStatus"`
	ResponseData  map[string]interface{} `json:"responseData"`
}

func (r *requestResponse) err() error {
	if r.RequestStatus.Result {
		return nil
	}
	status := r.RequestStatus
	switch {
	case status.Code == statusResourceNotFound:
		return custerror.FormatNotFound("%s: %s (code %d)", r.RequestType, status.Comment, status.Code)
	case status.Code >= statusMissingField && status.Code < statusResourceNotFound:
		return custerror.FormatInvalidArgument("%s: %s (code %d)", r.RequestType, status.Comment, status.Code)
	default:
		return custerror.FormatInternalError("%s: %s (code %d)", r.RequestType, status.Comment, status.Code)
	}
}

type requestBatchResponse struct {
	RequestId string            `json:"requestId"`
	Results   []requestResponse `json:"results"`
}

func decode(input interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
