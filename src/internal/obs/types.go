package obs

import (
	"math"
	"strconv"
	"strings"
)

type Filter struct {
	Name     string                 `json:"filterName"`
	Kind     string                 `json:"filterKind"`
	Index    int                    `json:"filterIndex"`
	Enabled  bool                   `json:"filterEnabled"`
	Settings map[string]interface{} `json:"filterSettings"`
}

// MoveSettings decodes the geometry part of a move filter's settings.
// Missing crop, position and rotation read as zero; missing scale reads as 1.
func (f *Filter) MoveSettings() (*MoveSettings, error) {
	s := &MoveSettings{
		Scale: Vec2{X: 1, Y: 1},
	}
	if f.Settings == nil {
		return s, nil
	}
	if err := decode(f.Settings, s); err != nil {
		return nil, err
	}
	return s, nil
}

type Crop struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type MoveSettings struct {
	Crop  Crop    `json:"crop"`
	Pos   Vec2    `json:"pos"`
	Scale Vec2    `json:"scale"`
	Rot   float64 `json:"rot"`
}

// Fingerprint encodes the nine geometry fields rounded to one decimal.
func (s *MoveSettings) Fingerprint() string {
	values := []float64{
		s.Crop.Top,
		s.Crop.Bottom,
		s.Crop.Left,
		s.Crop.Right,
		s.Pos.X,
		s.Pos.Y,
		s.Scale.X,
		s.Scale.Y,
		s.Rot,
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, formatDecimal(v))
	}
	return strings.Join(parts, "|")
}

// RoundedPos is the position as it appears in the fingerprint.
func (s *MoveSettings) RoundedPos() Vec2 {
	return Vec2{
		X: Round1(s.Pos.X),
		Y: Round1(s.Pos.Y),
	}
}

// DisplayedSize is the on-canvas size of a source of the given native size
// once this crop and scale are applied.
func (s *MoveSettings) DisplayedSize(nativeWidth, nativeHeight float64) (float64, float64) {
	width := (nativeWidth - s.Crop.Left - s.Crop.Right) * s.Scale.X
	height := (nativeHeight - s.Crop.Top - s.Crop.Bottom) * s.Scale.Y
	return width, height
}

func Round1(v float64) float64 {
	r := math.Round(v*10) / 10
	if r == 0 {
		return 0
	}
	return r
}

func formatDecimal(v float64) string {
	return strings.TrimSuffix(strconv.FormatFloat(Round1(v), 'f', 1, 64), ".0")
}

type SceneItemTransform struct {
	CropTop      float64 `json:"cropTop"`
	CropBottom   float64 `json:"cropBottom"`
	CropLeft     float64 `json:"cropLeft"`
	CropRight    float64 `json:"cropRight"`
	PositionX    float64 `json:"positionX"`
	PositionY    float64 `json:"positionY"`
	ScaleX       float64 `json:"scaleX"`
	ScaleY       float64 `json:"scaleY"`
	Rotation     float64 `json:"rotation"`
	SourceWidth  float64 `json:"sourceWidth"`
	SourceHeight float64 `json:"sourceHeight"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
}

// MoveSettings converts the live transform into move filter geometry so the
// two can be compared.
func (t *SceneItemTransform) MoveSettings() *MoveSettings {
	return &MoveSettings{
		Crop: Crop{
			Top:    t.CropTop,
			Bottom: t.CropBottom,
			Left:   t.CropLeft,
			Right:  t.CropRight,
		},
		Pos:   Vec2{X: t.PositionX, Y: t.PositionY},
		Scale: Vec2{X: t.ScaleX, Y: t.ScaleY},
		Rot:   Round1(t.Rotation),
	}
}

type VideoSettings struct {
	BaseWidth    float64 `json:"baseWidth"`
	BaseHeight   float64 `json:"baseHeight"`
	OutputWidth  float64 `json:"outputWidth"`
	OutputHeight float64 `json:"outputHeight"`
	FpsNumerator float64 `json:"fpsNumerator"`
	FpsDenom     float64 `json:"fpsDenominator"`
}
