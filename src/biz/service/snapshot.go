package service

import (
	"context"
	"math"

	"github.com/CE-Thesis-2023/camctl/src/internal/logger"
	"github.com/CE-Thesis-2023/camctl/src/internal/obs"
	"go.uber.org/zap"
)

type layoutFilter struct {
	name     Corner
	enabled  bool
	settings *obs.MoveSettings
}

// layoutSnapshot is what the remote side reported at the start of an
// operation.
type layoutSnapshot struct {
	filters   []layoutFilter
	transform *obs.SceneItemTransform
	live      *obs.MoveSettings
	current   *layoutFilter
}

func (s *LayoutService) snapshot(ctx context.Context) (*layoutSnapshot, error) {
	filters, err := s.remote.SourceFilterList(ctx, s.configs.FilterSource)
	if err != nil {
		return nil, err
	}
	transform, err := s.remote.SceneItemTransform(ctx, s.configs.SceneName, s.configs.CameraSource)
	if err != nil {
		return nil, err
	}

	snap := &layoutSnapshot{
		transform: transform,
		live:      transform.MoveSettings(),
	}
	for _, f := range filters {
		if !isLayout(f.Name) {
			continue
		}
		settings, err := f.MoveSettings()
		if err != nil {
			logger.SWarn("snapshot: filter settings unreadable, skipping",
				zap.String("filter", f.Name),
				zap.Error(err))
			continue
		}
		snap.filters = append(snap.filters, layoutFilter{
			name:     Corner(f.Name),
			enabled:  f.Enabled,
			settings: settings,
		})
	}
	snap.current = inferCurrent(snap.filters, snap.live)

	if snap.current != nil {
		logger.SDebug("snapshot: current layout inferred",
			zap.String("layout", string(snap.current.name)),
			zap.String("fingerprint", snap.live.Fingerprint()))
	}
	return snap, nil
}

// inferCurrent picks the filter whose position is closest to the live
// position of the camera item. Ties keep the earlier filter.
func inferCurrent(filters []layoutFilter, live *obs.MoveSettings) *layoutFilter {
	if live == nil {
		return nil
	}
	livePos := live.RoundedPos()

	var best *layoutFilter
	bestDistance := math.Inf(1)
	for i := range filters {
		pos := filters[i].settings.RoundedPos()
		distance := math.Hypot(pos.X-livePos.X, pos.Y-livePos.Y)
		if distance < bestDistance {
			best = &filters[i]
			bestDistance = distance
		}
	}
	return best
}

func (snap *layoutSnapshot) transitioning() bool {
	for _, f := range snap.filters {
		if f.enabled {
			return true
		}
	}
	return false
}

func (snap *layoutSnapshot) find(name Corner) *layoutFilter {
	for i := range snap.filters {
		if snap.filters[i].name == name {
			return &snap.filters[i]
		}
	}
	return nil
}

func (snap *layoutSnapshot) nativeSize() (float64, float64) {
	if snap.transform == nil {
		return 0, 0
	}
	return snap.transform.SourceWidth, snap.transform.SourceHeight
}

func defaultMoveSettings() *obs.MoveSettings {
	return &obs.MoveSettings{
		Scale: obs.Vec2{X: 1, Y: 1},
	}
}
