package sidecar

import (
	"context"
	"net/http"
	"strings"
	"testing"

	publicapi "github.com/CE-Thesis-2023/camctl/src/api/public"
	"github.com/CE-Thesis-2023/camctl/src/biz/service"
	"github.com/CE-Thesis-2023/camctl/src/internal/configs"
	"github.com/CE-Thesis-2023/camctl/src/internal/obs"
)

// settlingRemote puts the camera item at a filter's position once that
// filter is enabled.
type settlingRemote struct {
	filters   []obs.Filter
	transform obs.SceneItemTransform
}

func newSettlingRemote() *settlingRemote {
	corner := func(name string, x, y, scale float64) obs.Filter {
		return obs.Filter{
			Name: name,
			Settings: map[string]interface{}{
				"pos":   map[string]interface{}{"x": x, "y": y},
				"scale": map[string]interface{}{"x": scale, "y": scale},
			},
		}
	}
	r := &settlingRemote{
		filters: []obs.Filter{
			corner("top-left", 20, 20, 0.25),
			corner("top-right", 1420, 20, 0.25),
			corner("bottom-left", 20, 790, 0.25),
			corner("bottom-right", 1420, 790, 0.25),
			corner("fullscreen", 0, 0, 1),
		},
		transform: obs.SceneItemTransform{SourceWidth: 1920, SourceHeight: 1080},
	}
	r.settle("top-left")
	return r
}

func (r *settlingRemote) settle(name string) {
	for i := range r.filters {
		if r.filters[i].Name != name {
			continue
		}
		s, _ := r.filters[i].MoveSettings()
		r.transform.PositionX, r.transform.PositionY = s.Pos.X, s.Pos.Y
		r.transform.ScaleX, r.transform.ScaleY = s.Scale.X, s.Scale.Y
	}
}

func (r *settlingRemote) SourceFilterList(ctx context.Context, sourceName string) ([]obs.Filter, error) {
	return append([]obs.Filter(nil), r.filters...), nil
}

func (r *settlingRemote) SceneItemTransform(ctx context.Context, sceneName, sourceName string) (*obs.SceneItemTransform, error) {
	t := r.transform
	return &t, nil
}

func (r *settlingRemote) VideoSettings(ctx context.Context) (*obs.VideoSettings, error) {
	return &obs.VideoSettings{BaseWidth: 1920, BaseHeight: 1080}, nil
}

func (r *settlingRemote) SetSourceFilterSettings(ctx context.Context, sourceName, filterName string, settings map[string]interface{}) error {
	return nil
}

func (r *settlingRemote) SetSourceFilterExclusive(ctx context.Context, sourceName, filterName string, siblings []string) error {
	r.settle(filterName)
	return nil
}

func TestSidecar_LastCornerSurvivesLaterRequests(t *testing.T) {
	layout := service.NewLayoutService(newSettlingRemote(), &configs.LayoutConfigs{
		FilterSource: "Camera",
		SceneName:    "Camera",
		CameraSource: "Camera Source",
	})
	s := NewHttpSidecar(
		&configs.HttpConfigs{Name: "layout-sidecar", Port: 5600},
		publicapi.ServiceRegistration(layout))

	if status, body := do(t, s, http.MethodPost, "/layout/filter/bottom-right", ""); status != 200 {
		t.Fatalf("status = %d body = %s", status, body)
	}
	if got := layout.LastNonFullscreen(); got != service.BottomRight {
		t.Fatalf("lastNonFullscreen = %q", got)
	}

	if status, _ := do(t, s, http.MethodPost, "/layout/filter/"+strings.Repeat("q", 16), ""); status != 400 {
		t.Errorf("unknown layout status = %d, want 400", status)
	}
	do(t, s, http.MethodGet, "/layout/spacing", "")
	do(t, s, http.MethodPost, "/layout/move/sideways", "")
	do(t, s, http.MethodGet, "/layout", "")

	if got := layout.LastNonFullscreen(); got != service.BottomRight {
		t.Errorf("lastNonFullscreen = %q after later requests, want bottom-right", got)
	}

	// fullscreen and back must land on the remembered corner
	do(t, s, http.MethodPost, "/layout/filter/fullscreen", "")
	do(t, s, http.MethodPost, "/layout/filter/fullscreen", "")
	status, body := do(t, s, http.MethodGet, "/layout", "")
	if status != 200 || !strings.Contains(body, `"layout":"bottom-right"`) {
		t.Errorf("got %d %s, want bottom-right", status, body)
	}
}
