package sidecar

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	publicapi "github.com/CE-Thesis-2023/camctl/src/api/public"
	"github.com/CE-Thesis-2023/camctl/src/internal/configs"
	custerror "github.com/CE-Thesis-2023/camctl/src/internal/error"
	"github.com/CE-Thesis-2023/camctl/src/models/events"
)

type fakeLayout struct {
	layout    string
	direction string
	spacing   *events.Spacing
	crop      *events.Crop
	err       error
}

func (f *fakeLayout) SetLayout(ctx context.Context, name string) error {
	if name == "middle" {
		return custerror.FormatInvalidArgument("unknown layout: %s", name)
	}
	f.layout = name
	return f.err
}

func (f *fakeLayout) MoveRelative(ctx context.Context, direction string) error {
	f.direction = direction
	return f.err
}

func (f *fakeLayout) CurrentLayout(ctx context.Context) (*events.LayoutStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &events.LayoutStatus{Layout: "bottom-left", Fingerprint: "0|0|0|0|20|790|0.3|0.3|0", LastNonFullscreen: "bottom-left"}, nil
}

func (f *fakeLayout) CameraSpacing(ctx context.Context) (*events.Spacing, error) {
	return &events.Spacing{Top: 10, Bottom: 10, Left: 5, Right: 5}, f.err
}

func (f *fakeLayout) SetCameraSpacing(ctx context.Context, spacing *events.Spacing) error {
	f.spacing = spacing
	return f.err
}

func (f *fakeLayout) CameraCrop(ctx context.Context) (*events.CameraCrop, error) {
	return &events.CameraCrop{SourceWidth: 1920, SourceHeight: 1080}, f.err
}

func (f *fakeLayout) SetCameraCrop(ctx context.Context, crop *events.Crop) error {
	f.crop = crop
	return f.err
}

func newTestSidecar(layout *fakeLayout) *HttpSidecar {
	return NewHttpSidecar(
		&configs.HttpConfigs{Name: "layout-sidecar", Port: 5600},
		publicapi.ServiceRegistration(layout))
}

func do(t *testing.T, s *HttpSidecar, method, path, body string) (int, string) {
	t.Helper()
	var reader io.Reader
	if len(body) > 0 {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(out)
}

func TestSidecar_Routes(t *testing.T) {
	layout := &fakeLayout{}
	s := newTestSidecar(layout)

	tests := []struct {
		method string
		path   string
		body   string
		status int
		want   string
	}{
		{http.MethodGet, "/layout", "", 200,
			`{"ok":true,"result":{"layout":"bottom-left","fingerprint":"0|0|0|0|20|790|0.3|0.3|0","transitioning":false,"lastNonFullscreen":"bottom-left"}}`},
		{http.MethodPost, "/layout/filter/top-right", "", 200, `{"ok":true,"result":null}`},
		{http.MethodPost, "/layout/filter/middle", "", 400, `{"ok":false,"error":"unknown layout: middle"}`},
		{http.MethodPost, "/layout/move/down", "", 200, `{"ok":true,"result":null}`},
		{http.MethodGet, "/layout/spacing", "", 200, `{"ok":true,"result":{"top":10,"bottom":10,"left":5,"right":5}}`},
		{http.MethodPut, "/layout/spacing", `{"top":1,"bottom":2,"left":3,"right":4}`, 200, `{"ok":true,"result":null}`},
		{http.MethodGet, "/layout/crop", "", 200,
			`{"ok":true,"result":{"top":0,"bottom":0,"left":0,"right":0,"sourceWidth":1920,"sourceHeight":1080}}`},
		{http.MethodPut, "/layout/crop", `{"left":16}`, 200, `{"ok":true,"result":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			status, body := do(t, s, tt.method, tt.path, tt.body)
			if status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
			if body != tt.want {
				t.Errorf("body = %s, want %s", body, tt.want)
			}
		})
	}

	if layout.layout != "top-right" || layout.direction != "down" {
		t.Errorf("controller saw layout %q direction %q", layout.layout, layout.direction)
	}
	if layout.spacing == nil || *layout.spacing != (events.Spacing{Top: 1, Bottom: 2, Left: 3, Right: 4}) {
		t.Errorf("spacing = %+v", layout.spacing)
	}
	if layout.crop == nil || *layout.crop != (events.Crop{Left: 16}) {
		t.Errorf("crop = %+v", layout.crop)
	}
}

func TestSidecar_Errors(t *testing.T) {
	layout := &fakeLayout{err: custerror.FormatUnavailable("obs: not connected")}
	s := newTestSidecar(layout)

	status, body := do(t, s, http.MethodPost, "/layout/move/left", "")
	if status != 500 || body != `{"ok":false,"error":"obs: not connected"}` {
		t.Errorf("got %d %s", status, body)
	}

	status, _ = do(t, s, http.MethodPut, "/layout/spacing", `{"top":`)
	if status != 400 {
		t.Errorf("malformed body status = %d, want 400", status)
	}

	status, _ = do(t, s, http.MethodGet, "/nowhere", "")
	if status != 404 {
		t.Errorf("unknown route status = %d, want 404", status)
	}
}

func TestSidecar_Healthcheck(t *testing.T) {
	s := newTestSidecar(&fakeLayout{})
	if status, _ := do(t, s, http.MethodGet, "/healthcheck", ""); status != 200 {
		t.Errorf("status = %d", status)
	}
}
