package service

import (
	"context"
	"math"
	"sync"

	"github.com/CE-Thesis-2023/camctl/src/internal/configs"
	custerror "github.com/CE-Thesis-2023/camctl/src/internal/error"
	"github.com/CE-Thesis-2023/camctl/src/internal/logger"
	"github.com/CE-Thesis-2023/camctl/src/internal/obs"
	"github.com/CE-Thesis-2023/camctl/src/models/events"
	"go.uber.org/zap"
)

// RemoteApi is the part of the OBS websocket API the layout logic needs.
type RemoteApi interface {
	SourceFilterList(ctx context.Context, sourceName string) ([]obs.Filter, error)
	SceneItemTransform(ctx context.Context, sceneName, sourceName string) (*obs.SceneItemTransform, error)
	VideoSettings(ctx context.Context) (*obs.VideoSettings, error)
	SetSourceFilterSettings(ctx context.Context, sourceName, filterName string, settings map[string]interface{}) error
	SetSourceFilterExclusive(ctx context.Context, sourceName, filterName string, siblings []string) error
}

type LayoutService struct {
	remote  RemoteApi
	configs *configs.LayoutConfigs

	mu                sync.Mutex
	lastNonFullscreen Corner
}

func NewLayoutService(remote RemoteApi, c *configs.LayoutConfigs) *LayoutService {
	return &LayoutService{
		remote:            remote,
		configs:           c,
		lastNonFullscreen: TopLeft,
	}
}

func (s *LayoutService) LastNonFullscreen() Corner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastNonFullscreen
}

func (s *LayoutService) setLastNonFullscreen(c Corner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastNonFullscreen = c
}

// SetLayout switches to the named layout. Asking for fullscreen while already
// fullscreen goes back to the last corner that was used.
func (s *LayoutService) SetLayout(ctx context.Context, name string) error {
	if !isLayout(name) {
		return custerror.FormatInvalidArgument("unknown layout: %s", name)
	}
	target := Corner(name)

	snap, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	if snap.transitioning() {
		logger.SDebug("SetLayout: transition in progress, skipping",
			zap.String("target", name))
		return nil
	}

	current := snap.current
	if current == nil {
		logger.SDebug("SetLayout: no current layout, skipping",
			zap.String("target", name))
		return nil
	}
	if target == Fullscreen {
		if current.name == Fullscreen {
			target = s.LastNonFullscreen()
		}
	} else {
		if current.name == target {
			logger.SDebug("SetLayout: already at target", zap.String("target", name))
			return nil
		}
		s.setLastNonFullscreen(target)
	}

	return s.activate(ctx, snap, target)
}

// MoveRelative moves the camera one cell on the corner grid, stopping at the
// edges.
func (s *LayoutService) MoveRelative(ctx context.Context, direction string) error {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	if snap.current == nil || snap.current.name == Fullscreen {
		logger.SDebug("MoveRelative: no corner layout active, skipping",
			zap.String("direction", direction))
		return nil
	}
	if snap.transitioning() {
		logger.SDebug("MoveRelative: transition in progress, skipping",
			zap.String("direction", direction))
		return nil
	}

	placement, found := cornerTable[snap.current.name]
	if !found {
		return nil
	}
	columnOffset, rowOffset := directionOffset(direction)
	target := cornerAt(
		clampGrid(placement.column+columnOffset),
		clampGrid(placement.row+rowOffset))

	s.setLastNonFullscreen(target)
	return s.activate(ctx, snap, target)
}

func (s *LayoutService) CurrentLayout(ctx context.Context) (*events.LayoutStatus, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	status := &events.LayoutStatus{
		Transitioning:     snap.transitioning(),
		LastNonFullscreen: string(s.LastNonFullscreen()),
	}
	if snap.live != nil {
		status.Fingerprint = snap.live.Fingerprint()
	}
	if snap.current != nil {
		status.Layout = string(snap.current.name)
	}
	return status, nil
}

func (s *LayoutService) CameraSpacing(ctx context.Context) (*events.Spacing, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	canvas, err := s.remote.VideoSettings(ctx)
	if err != nil {
		return nil, err
	}
	nativeWidth, nativeHeight := snap.nativeSize()

	spacing := &events.Spacing{}
	if topLeft := snap.find(TopLeft); topLeft != nil {
		spacing.Left = roundInt(topLeft.settings.Pos.X)
		spacing.Top = roundInt(topLeft.settings.Pos.Y)
	}

	bottomRight := defaultMoveSettings()
	if f := snap.find(BottomRight); f != nil {
		bottomRight = f.settings
	}
	width, height := bottomRight.DisplayedSize(nativeWidth, nativeHeight)
	spacing.Right = roundInt(canvas.BaseWidth - bottomRight.Pos.X - width)
	spacing.Bottom = roundInt(canvas.BaseHeight - bottomRight.Pos.Y - height)
	return spacing, nil
}

// SetCameraSpacing repositions all four corner layouts so that each keeps the
// requested margins to the canvas edges it is anchored to.
func (s *LayoutService) SetCameraSpacing(ctx context.Context, spacing *events.Spacing) error {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	canvas, err := s.remote.VideoSettings(ctx)
	if err != nil {
		return err
	}
	nativeWidth, nativeHeight := snap.nativeSize()

	for _, corner := range corners {
		f := snap.find(corner)
		if f == nil {
			logger.SWarn("SetCameraSpacing: filter missing, skipping",
				zap.String("filter", string(corner)))
			continue
		}
		placement := cornerTable[corner]
		width, height := f.settings.DisplayedSize(nativeWidth, nativeHeight)
		x := place(placement.column, canvas.BaseWidth, width, float64(spacing.Left), float64(spacing.Right))
		y := place(placement.row, canvas.BaseHeight, height, float64(spacing.Top), float64(spacing.Bottom))

		if err := s.remote.SetSourceFilterSettings(ctx, s.configs.FilterSource, string(corner), map[string]interface{}{
			"pos": map[string]interface{}{"x": x, "y": y},
		}); err != nil {
			return err
		}
		logger.SDebug("SetCameraSpacing: filter updated",
			zap.String("filter", string(corner)),
			zap.Float64("x", x),
			zap.Float64("y", y))
	}

	return s.reactivate(ctx, snap)
}

func (s *LayoutService) CameraCrop(ctx context.Context) (*events.CameraCrop, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	nativeWidth, nativeHeight := snap.nativeSize()

	crop := &events.CameraCrop{
		SourceWidth:  roundInt(nativeWidth),
		SourceHeight: roundInt(nativeHeight),
	}
	if topLeft := snap.find(TopLeft); topLeft != nil {
		crop.Top = roundInt(topLeft.settings.Crop.Top)
		crop.Bottom = roundInt(topLeft.settings.Crop.Bottom)
		crop.Left = roundInt(topLeft.settings.Crop.Left)
		crop.Right = roundInt(topLeft.settings.Crop.Right)
	}
	return crop, nil
}

// SetCameraCrop applies the same crop to all four corner layouts and shifts
// each so the corner it is anchored to stays where it was.
func (s *LayoutService) SetCameraCrop(ctx context.Context, crop *events.Crop) error {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return err
	}

	for _, corner := range corners {
		f := snap.find(corner)
		if f == nil {
			logger.SWarn("SetCameraCrop: filter missing, skipping",
				zap.String("filter", string(corner)))
			continue
		}
		placement := cornerTable[corner]
		existing := f.settings
		deltaX := (float64(crop.Left) - existing.Crop.Left) + (float64(crop.Right) - existing.Crop.Right)
		deltaY := (float64(crop.Top) - existing.Crop.Top) + (float64(crop.Bottom) - existing.Crop.Bottom)
		x := existing.Pos.X + compensate(placement.column, deltaX*existing.Scale.X)
		y := existing.Pos.Y + compensate(placement.row, deltaY*existing.Scale.Y)

		if err := s.remote.SetSourceFilterSettings(ctx, s.configs.FilterSource, string(corner), map[string]interface{}{
			"crop": map[string]interface{}{
				"top":    crop.Top,
				"bottom": crop.Bottom,
				"left":   crop.Left,
				"right":  crop.Right,
			},
			"pos": map[string]interface{}{"x": x, "y": y},
		}); err != nil {
			return err
		}
		logger.SDebug("SetCameraCrop: filter updated",
			zap.String("filter", string(corner)),
			zap.Float64("x", x),
			zap.Float64("y", y))
	}

	return s.reactivate(ctx, snap)
}

// reactivate re-enables the layout that was current before a settings update
// so the camera picks up the new geometry.
func (s *LayoutService) reactivate(ctx context.Context, snap *layoutSnapshot) error {
	if snap.transitioning() {
		logger.SInfo("reactivate: transition in progress, leaving it alone")
		return nil
	}
	if snap.current == nil {
		logger.SDebug("reactivate: no current layout")
		return nil
	}
	return s.activate(ctx, snap, snap.current.name)
}

func (s *LayoutService) activate(ctx context.Context, snap *layoutSnapshot, target Corner) error {
	siblings := make([]string, 0, len(snap.filters))
	for _, f := range snap.filters {
		if f.name != target {
			siblings = append(siblings, string(f.name))
		}
	}
	if err := s.remote.SetSourceFilterExclusive(ctx, s.configs.FilterSource, string(target), siblings); err != nil {
		logger.SError("activate: enabling layout failed",
			zap.String("target", string(target)),
			zap.Error(err))
		return err
	}
	logger.SInfo("activate: layout enabled", zap.String("target", string(target)))
	return nil
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
