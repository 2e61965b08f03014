package gamesense

import "time"

// Handler defaults for a text screen on the first OLED zone.
const (
	DeviceTypeScreened = "screened"
	ModeScreen         = "screen"
	ZoneOne            = "one"

	defaultMinValue = 0
	defaultMaxValue = 110
	defaultIconID   = 42
)

// Placeholder keys used by the three-line layout.
const (
	KeyLabels = "Labels"
	KeyRow1   = "Row1"
	KeyRow2   = "Row2"
)

// Line is a single text line of a screen, filled from the frame entry named by
// ContextFrameKey.
type Line struct {
	HasText         bool   `json:"has_text"`
	ContextFrameKey string `json:"context_frame_key"`
	Bold            bool   `json:"bold,omitempty"`
	Wrap            int    `json:"wrap"`
}

// ScreenData is one "datas" entry of a handler.
type ScreenData struct {
	LengthMillis int64  `json:"length_millis,omitempty"`
	Lines        []Line `json:"lines"`
}

// Handler is a rendering target within a bound screen.
type Handler struct {
	DeviceType string       `json:"device_type"`
	Mode       string       `json:"mode"`
	Zone       string       `json:"zone"`
	Datas      []ScreenData `json:"datas"`
}

// Binding is the bind_game_event document.
type Binding struct {
	Game          string    `json:"game"`
	Event         EventID   `json:"event"`
	MinValue      int       `json:"min_value"`
	MaxValue      int       `json:"max_value"`
	IconID        int       `json:"icon_id"`
	ValueOptional bool      `json:"value_optional"`
	Handlers      []Handler `json:"handlers"`
}

// ThreeLines is the standard layout: a bold header and two data rows.
func ThreeLines() []Line {
	return []Line{
		{HasText: true, ContextFrameKey: KeyLabels, Bold: true},
		{HasText: true, ContextFrameKey: KeyRow1},
		{HasText: true, ContextFrameKey: KeyRow2},
	}
}

// BuildBinding returns a binding with exactly one screened handler.
// frameDuration <= 0 leaves length-millis unset.
func BuildBinding(game string, id EventID, lines []Line, frameDuration time.Duration) Binding {
	b := newBinding(game, id)
	b.Handlers = []Handler{newHandler(lines, frameDuration)}

	return b
}

// BuildSensorBinding emits one handler per sensor group, in the given order.
func BuildSensorBinding(game string, id EventID, groups []string, lines []Line, frameDuration time.Duration) Binding {
	b := newBinding(game, id)
	b.Handlers = make([]Handler, 0, len(groups))
	for range groups {
		b.Handlers = append(b.Handlers, newHandler(lines, frameDuration))
	}

	return b
}

func newBinding(game string, id EventID) Binding {
	return Binding{
		Game:          game,
		Event:         id,
		MinValue:      defaultMinValue,
		MaxValue:      defaultMaxValue,
		IconID:        defaultIconID,
		ValueOptional: true,
	}
}

func newHandler(lines []Line, frameDuration time.Duration) Handler {
	data := ScreenData{
		Lines: append([]Line(nil), lines...),
	}
	if frameDuration > 0 {
		data.LengthMillis = frameDuration.Milliseconds()
	}

	return Handler{
		DeviceType: DeviceTypeScreened,
		Mode:       ModeScreen,
		Zone:       ZoneOne,
		Datas:      []ScreenData{data},
	}
}

// FrameKeys lists the placeholder keys a frame must carry, first occurrence
// order.
func (b Binding) FrameKeys() []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, h := range b.Handlers {
		for _, d := range h.Datas {
			for _, l := range d.Lines {
				if l.ContextFrameKey == "" {
					continue
				}
				if _, ok := seen[l.ContextFrameKey]; ok {
					continue
				}
				seen[l.ContextFrameKey] = struct{}{}
				keys = append(keys, l.ContextFrameKey)
			}
		}
	}

	return keys
}

// Frame maps placeholder keys to the literal text for one tick.
type Frame map[string]string

// Missing returns the keys of b that f does not carry.
func (f Frame) Missing(b Binding) []string {
	var missing []string
	for _, k := range b.FrameKeys() {
		if _, ok := f[k]; !ok {
			missing = append(missing, k)
		}
	}

	return missing
}
