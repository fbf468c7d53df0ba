package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PatchError reports a patch that cannot be applied. The document it was
// meant for is left untouched.
type PatchError struct {
	Message string
}

func (e *PatchError) Error() string { return "invalid patch: " + e.Message }

func patchErrorf(format string, args ...any) *PatchError {
	return &PatchError{Message: fmt.Sprintf(format, args...)}
}

// legacyObject is the flat item format used before uidata was introduced.
type legacyObject struct {
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	X               float64   `json:"x"`
	Y               float64   `json:"y"`
	Width           float64   `json:"width"`
	Height          float64   `json:"height"`
	Content         string    `json:"content"`
	Text            string    `json:"text"`
	Color           string    `json:"color"`
	BackgroundColor string    `json:"backgroundColor"`
	BorderColor     string    `json:"borderColor"`
	BorderWidth     float64   `json:"borderWidth"`
	FontSize        float64   `json:"fontSize"`
	FontStyle       string    `json:"fontStyle"`
	ZIndex          int       `json:"zIndex"`
	Points          []float64 `json:"points"`
}

type legacyConnection struct {
	Name            string            `json:"name"`
	From            WireRef           `json:"from"`
	To              WireRef           `json:"to"`
	FromPoint       Side              `json:"fromPoint"`
	ToPoint         Side              `json:"toPoint"`
	Type            ConnectionType    `json:"type"`
	BorderColor     string            `json:"borderColor"`
	BorderThickness float64           `json:"borderThickness"`
	BorderStyle     DashStyle         `json:"borderStyle"`
	UIData          *ConnectionUIData `json:"uidata"`
}

// ParsePatch decodes a full-document patch. Both the current schema
// (items + connections) and the legacy flat schema (objects + connections)
// are accepted. Any failure returns a *PatchError and no document.
func ParsePatch(data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, patchErrorf("empty input")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, patchErrorf("invalid JSON: %v", err)
	}

	if _, ok := top["items"]; ok {
		return parseCurrent(data, top)
	}
	if _, ok := top["objects"]; ok {
		return parseLegacy(top)
	}
	return nil, patchErrorf(`expected an "items" or "objects" array`)
}

func parseCurrent(data []byte, top map[string]json.RawMessage) (*Document, error) {
	if err := requireArray(top, "items"); err != nil {
		return nil, err
	}
	if err := requireArray(top, "connections"); err != nil {
		return nil, err
	}
	var w WireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, patchErrorf("invalid document: %v", err)
	}
	names := make([]string, 0, len(w.Items))
	for _, it := range w.Items {
		names = append(names, it.Name)
	}
	if err := checkNames(names); err != nil {
		return nil, err
	}
	return FromWire(w), nil
}

func parseLegacy(top map[string]json.RawMessage) (*Document, error) {
	if err := requireArray(top, "objects"); err != nil {
		return nil, err
	}
	if err := requireArray(top, "connections"); err != nil {
		return nil, err
	}

	var objects []legacyObject
	if err := json.Unmarshal(top["objects"], &objects); err != nil {
		return nil, patchErrorf("invalid objects: %v", err)
	}
	var conns []legacyConnection
	if err := json.Unmarshal(top["connections"], &conns); err != nil {
		return nil, patchErrorf("invalid connections: %v", err)
	}

	w := WireDocument{
		Items:       make([]WireItem, 0, len(objects)),
		Connections: make([]WireConnection, 0, len(conns)),
	}
	names := make([]string, 0, len(objects))
	for _, o := range objects {
		content := o.Content
		if content == "" {
			content = o.Text
		}
		names = append(names, o.Name)
		w.Items = append(w.Items, WireItem{
			Name: o.Name,
			UIData: ItemUIData{
				Type:            o.Type,
				X:               o.X,
				Y:               o.Y,
				Width:           o.Width,
				Height:          o.Height,
				Content:         content,
				Color:           o.Color,
				BackgroundColor: o.BackgroundColor,
				BorderColor:     o.BorderColor,
				BorderWidth:     o.BorderWidth,
				FontSize:        o.FontSize,
				FontStyle:       o.FontStyle,
				ZIndex:          o.ZIndex,
				Points:          o.Points,
			},
		})
	}
	if err := checkNames(names); err != nil {
		return nil, err
	}

	for _, c := range conns {
		ui := ConnectionUIData{
			BorderColor:     c.BorderColor,
			BorderThickness: c.BorderThickness,
			BorderStyle:     c.BorderStyle,
			ConnectionType:  c.Type,
		}
		if c.UIData != nil {
			ui = *c.UIData
			if ui.ConnectionType == "" {
				ui.ConnectionType = c.Type
			}
		}
		w.Connections = append(w.Connections, WireConnection{
			Name:      c.Name,
			From:      c.From,
			To:        c.To,
			FromPoint: c.FromPoint,
			ToPoint:   c.ToPoint,
			UIData:    ui,
		})
	}

	if raw, ok := top["designGroups"]; ok {
		if err := json.Unmarshal(raw, &w.DesignGroups); err != nil {
			return nil, patchErrorf("invalid designGroups: %v", err)
		}
	}
	return FromWire(w), nil
}

func requireArray(top map[string]json.RawMessage, key string) error {
	raw, ok := top[key]
	if !ok {
		return patchErrorf("missing %q array", key)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return patchErrorf("%q must be an array", key)
	}
	return nil
}

func checkNames(names []string) error {
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		if n == "" {
			return patchErrorf("item %d has no name", i)
		}
		if seen[n] {
			return patchErrorf("duplicate shape name %q", n)
		}
		seen[n] = true
	}
	return nil
}
