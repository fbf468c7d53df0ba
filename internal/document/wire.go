package document

import (
	"encoding/json"
	"maps"

	"github.com/sysdraw/sysdraw/backend-go/internal/typeid"
)

// WireDocument is the design-service representation of a scene.
type WireDocument struct {
	ID           string           `json:"id,omitempty"`
	Name         string           `json:"name,omitempty"`
	Description  string           `json:"description,omitempty"`
	Thumbnail    string           `json:"thumbnail,omitempty"`
	Items        []WireItem       `json:"items"`
	Connections  []WireConnection `json:"connections"`
	DesignGroups []WireGroup      `json:"designGroups"`
	Camera       *Camera          `json:"camera,omitempty"`
}

type WireItem struct {
	Name   string     `json:"name"`
	UIData ItemUIData `json:"uidata"`
}

type ItemUIData struct {
	Type            string    `json:"type"`
	X               float64   `json:"x"`
	Y               float64   `json:"y"`
	Width           float64   `json:"width"`
	Height          float64   `json:"height"`
	Content         string    `json:"content,omitempty"`
	Color           string    `json:"color,omitempty"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
	BorderWidth     float64   `json:"borderWidth,omitempty"`
	FontSize        float64   `json:"fontSize,omitempty"`
	FontStyle       string    `json:"fontStyle,omitempty"`
	ZIndex          int       `json:"zIndex"`
	Points          []float64 `json:"points,omitempty"`
}

// WireRef names a shape. It decodes from either {"name": "..."} or a bare string.
type WireRef struct {
	Name string `json:"name"`
}

func (r *WireRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.Name = s
		return nil
	}
	type plain WireRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = WireRef(p)
	return nil
}

type WireConnection struct {
	Name      string           `json:"name"`
	From      WireRef          `json:"from"`
	To        WireRef          `json:"to"`
	FromPoint Side             `json:"fromPoint"`
	ToPoint   Side             `json:"toPoint"`
	UIData    ConnectionUIData `json:"uidata"`
}

type ConnectionUIData struct {
	BorderColor     string         `json:"borderColor,omitempty"`
	BorderThickness float64        `json:"borderThickness,omitempty"`
	BorderStyle     DashStyle      `json:"borderStyle,omitempty"`
	ConnectionType  ConnectionType `json:"connectionType,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

type WireGroup struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	UIData      GroupUIData `json:"uidata"`
}

type GroupUIData struct {
	X               float64   `json:"x"`
	Y               float64   `json:"y"`
	Width           float64   `json:"width"`
	Height          float64   `json:"height"`
	BorderColor     string    `json:"borderColor,omitempty"`
	BorderThickness float64   `json:"borderThickness,omitempty"`
	BorderStyle     DashStyle `json:"borderStyle,omitempty"`
	DisplayName     string    `json:"displayName,omitempty"`
}

// ToWire is the save transform.
func ToWire(d *Document) WireDocument {
	cam := d.Camera
	w := WireDocument{
		ID:           d.ID,
		Name:         d.Meta.Name,
		Description:  d.Meta.Description,
		Thumbnail:    d.Meta.Thumbnail,
		Items:        make([]WireItem, 0, len(d.Shapes)),
		Connections:  make([]WireConnection, 0, len(d.Connections)),
		DesignGroups: make([]WireGroup, 0, len(d.Groups)),
		Camera:       &cam,
	}
	for _, s := range d.Shapes {
		w.Items = append(w.Items, shapeToWire(s))
	}
	for _, c := range d.Connections {
		w.Connections = append(w.Connections, WireConnection{
			Name:      c.ID,
			From:      WireRef{Name: c.From},
			To:        WireRef{Name: c.To},
			FromPoint: c.FromSide,
			ToPoint:   c.ToSide,
			UIData: ConnectionUIData{
				BorderColor:     c.Override.BorderColor,
				BorderThickness: c.Override.BorderThickness,
				BorderStyle:     c.Override.BorderStyle,
				ConnectionType:  c.Type,
				Metadata:        cloneMeta(c.Metadata),
			},
		})
	}
	for _, g := range d.Groups {
		w.DesignGroups = append(w.DesignGroups, WireGroup{
			ID:          g.ID,
			Name:        g.Name,
			Description: g.Description,
			UIData: GroupUIData{
				X:               g.X,
				Y:               g.Y,
				Width:           g.Width,
				Height:          g.Height,
				BorderColor:     g.BorderColor,
				BorderThickness: g.BorderThickness,
				BorderStyle:     g.BorderStyle,
				DisplayName:     g.DisplayName,
			},
		})
	}
	return w
}

// FromWire is the load transform: one shape per item, one connection per
// wire connection, groups verbatim. Connections whose endpoints are missing
// are dropped, and connections without a name get a fresh id.
func FromWire(w WireDocument) *Document {
	d := NewDocument(w.ID, w.Name)
	d.Meta.Description = w.Description
	d.Meta.Thumbnail = w.Thumbnail
	if w.Camera != nil {
		d.Camera = *w.Camera
		if d.Camera.Scale <= 0 {
			d.Camera.Scale = 1
		}
	}

	d.Shapes = make([]Shape, 0, len(w.Items))
	for _, it := range w.Items {
		d.Shapes = append(d.Shapes, shapeFromWire(it))
	}
	d.Reindex()

	d.Connections = make([]Connection, 0, len(w.Connections))
	for _, wc := range w.Connections {
		from, okFrom := d.Shape(wc.From.Name)
		to, okTo := d.Shape(wc.To.Name)
		if !okFrom || !okTo {
			continue
		}
		id := wc.Name
		if id == "" {
			id = typeid.NewConnectionID()
		}
		fs, ts := wc.FromPoint, wc.ToPoint
		if !from.HasSide(fs) || !to.HasSide(ts) {
			ofs, ots := OptimalAnchors(from, to)
			if !from.HasSide(fs) {
				fs = ofs
			}
			if !to.HasSide(ts) {
				ts = ots
			}
		}
		t := wc.UIData.ConnectionType
		if t == "" {
			t = DefaultConnectionType
		}
		d.Connections = append(d.Connections, Connection{
			ID:       id,
			From:     from.Name,
			FromSide: fs,
			To:       to.Name,
			ToSide:   ts,
			Type:     t,
			Override: StyleOverride{
				BorderColor:     wc.UIData.BorderColor,
				BorderThickness: wc.UIData.BorderThickness,
				BorderStyle:     wc.UIData.BorderStyle,
			},
			Metadata: cloneMeta(wc.UIData.Metadata),
		})
	}

	d.Groups = make([]Group, 0, len(w.DesignGroups))
	for _, wg := range w.DesignGroups {
		id := wg.ID
		if id == "" {
			id = typeid.NewGroupID()
		}
		g := Group{
			ID:              id,
			Name:            wg.Name,
			DisplayName:     wg.UIData.DisplayName,
			Description:     wg.Description,
			X:               wg.UIData.X,
			Y:               wg.UIData.Y,
			Width:           wg.UIData.Width,
			Height:          wg.UIData.Height,
			BorderColor:     wg.UIData.BorderColor,
			BorderThickness: wg.UIData.BorderThickness,
			BorderStyle:     wg.UIData.BorderStyle,
		}
		g.Width, g.Height = ClampGroupSize(g.Width, g.Height)
		d.Groups = append(d.Groups, g)
	}
	return d
}

func shapeToWire(s Shape) WireItem {
	ui := ItemUIData{
		Type:            string(s.Kind),
		X:               s.X,
		Y:               s.Y,
		Width:           s.Width,
		Height:          s.Height,
		Content:         s.Content(),
		Color:           s.Style.Color,
		BackgroundColor: s.Style.BackgroundColor,
		BorderColor:     s.Style.BorderColor,
		BorderWidth:     s.Style.BorderWidth,
		FontSize:        s.Style.FontSize,
		FontStyle:       s.Style.FontStyle,
		ZIndex:          s.ZIndex,
	}
	if lb, ok := s.Body.(LineBody); ok {
		ui.Points = lb.Points[:]
	}
	return WireItem{Name: s.Name, UIData: ui}
}

func shapeFromWire(it WireItem) Shape {
	ui := it.UIData
	kind := Kind(ui.Type)
	if kind == "" {
		kind = KindRectangle
	}
	s := Shape{
		Name:   it.Name,
		Kind:   kind,
		X:      ui.X,
		Y:      ui.Y,
		Width:  ui.Width,
		Height: ui.Height,
		ZIndex: ui.ZIndex,
		Style: Style{
			Color:           ui.Color,
			BackgroundColor: ui.BackgroundColor,
			BorderColor:     ui.BorderColor,
			BorderWidth:     ui.BorderWidth,
			FontSize:        ui.FontSize,
			FontStyle:       ui.FontStyle,
		},
		Body: NewBody(kind, ui.Content, ui.Points),
	}
	return s.Normalize()
}

// MarshalJSON encodes a shape as a wire item so scene actions carry the same
// representation the design service stores.
func (s Shape) MarshalJSON() ([]byte, error) {
	return json.Marshal(shapeToWire(s))
}

func (s *Shape) UnmarshalJSON(data []byte) error {
	var it WireItem
	if err := json.Unmarshal(data, &it); err != nil {
		return err
	}
	*s = shapeFromWire(it)
	return nil
}

// MarshalJSON encodes the document in the wire schema.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToWire(d))
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var w WireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*d = *FromWire(w)
	return nil
}

func cloneMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}
