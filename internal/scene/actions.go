package scene

import (
	"github.com/sysdraw/sysdraw/backend-go/internal/document"
)

// Action is a scene mutation. Actions are plain data; Reduce interprets them.
type Action interface {
	Type() string
}

const (
	TypeSetState           = "scene.set"
	TypeReset              = "scene.reset"
	TypeAddShape           = "shape.add"
	TypeUpdateShape        = "shape.update"
	TypeRemoveShape        = "shape.remove"
	TypeReroute            = "shape.reroute"
	TypeAddConnection      = "connection.add"
	TypeUpdateConnection   = "connection.update"
	TypeRemoveConnection   = "connection.remove"
	TypeRemoveConnectionAt = "connection.removeAt"
	TypeAddGroup           = "group.add"
	TypeUpdateGroup        = "group.update"
	TypeRemoveGroup        = "group.remove"
	TypeMoveGroup          = "group.move"
	TypeSetCamera          = "camera.set"
	TypeSetZoom            = "camera.zoom"
)

// Partial is a shallow document patch. Nil fields are left unchanged.
type Partial struct {
	ID          *string               `json:"id,omitempty"`
	Meta        *document.Meta        `json:"meta,omitempty"`
	Shapes      []document.Shape      `json:"shapes,omitempty"`
	Connections []document.Connection `json:"connections,omitempty"`
	Groups      []document.Group      `json:"groups,omitempty"`
	Camera      *document.Camera      `json:"camera,omitempty"`
}

// Replace returns a Partial that overwrites every field with d's content.
func Replace(d *document.Document) Partial {
	id := d.ID
	meta := d.Meta
	cam := d.Camera
	p := Partial{
		ID:          &id,
		Meta:        &meta,
		Shapes:      d.Shapes,
		Connections: d.Connections,
		Groups:      d.Groups,
		Camera:      &cam,
	}
	if p.Shapes == nil {
		p.Shapes = []document.Shape{}
	}
	if p.Connections == nil {
		p.Connections = []document.Connection{}
	}
	if p.Groups == nil {
		p.Groups = []document.Group{}
	}
	return p
}

type SetState struct {
	Partial Partial `json:"partial"`
}

type Reset struct{}

type AddShape struct {
	Shape document.Shape `json:"shape"`
}

// ShapePatch lists the shape fields to overwrite. Name and kind are immutable.
type ShapePatch struct {
	X               *float64    `json:"x,omitempty"`
	Y               *float64    `json:"y,omitempty"`
	Width           *float64    `json:"width,omitempty"`
	Height          *float64    `json:"height,omitempty"`
	ZIndex          *int        `json:"zIndex,omitempty"`
	Color           *string     `json:"color,omitempty"`
	BackgroundColor *string     `json:"backgroundColor,omitempty"`
	BorderColor     *string     `json:"borderColor,omitempty"`
	BorderWidth     *float64    `json:"borderWidth,omitempty"`
	FontSize        *float64    `json:"fontSize,omitempty"`
	FontStyle       *string     `json:"fontStyle,omitempty"`
	Content         *string     `json:"content,omitempty"`
	Points          *[4]float64 `json:"points,omitempty"`
}

type UpdateShape struct {
	Name  string     `json:"name"`
	Patch ShapePatch `json:"patch"`
}

type RemoveShape struct {
	Name string `json:"name"`
}

// Reroute recomputes the anchor sides of every connection touching Shape.
type Reroute struct {
	Shape string `json:"shape"`
}

type AddConnection struct {
	Connection document.Connection `json:"connection"`
}

type ConnectionPatch struct {
	Type     *document.ConnectionType `json:"type,omitempty"`
	FromSide *document.Side           `json:"fromPoint,omitempty"`
	ToSide   *document.Side           `json:"toPoint,omitempty"`
	Override *document.StyleOverride  `json:"override,omitempty"`
	Metadata map[string]any           `json:"metadata,omitempty"`
}

type UpdateConnection struct {
	ID    string          `json:"id"`
	Patch ConnectionPatch `json:"patch"`
}

type RemoveConnection struct {
	ID string `json:"id"`
}

// RemoveConnectionAt removes by position. Prefer RemoveConnection.
type RemoveConnectionAt struct {
	Index int `json:"index"`
}

type AddGroup struct {
	Group document.Group `json:"group"`
}

type GroupPatch struct {
	Name            *string             `json:"name,omitempty"`
	DisplayName     *string             `json:"displayName,omitempty"`
	Description     *string             `json:"description,omitempty"`
	X               *float64            `json:"x,omitempty"`
	Y               *float64            `json:"y,omitempty"`
	Width           *float64            `json:"width,omitempty"`
	Height          *float64            `json:"height,omitempty"`
	BorderColor     *string             `json:"borderColor,omitempty"`
	BorderThickness *float64            `json:"borderThickness,omitempty"`
	BorderStyle     *document.DashStyle `json:"borderStyle,omitempty"`
}

type UpdateGroup struct {
	ID    string     `json:"id"`
	Patch GroupPatch `json:"patch"`
}

type RemoveGroup struct {
	ID string `json:"id"`
}

// MoveGroup moves a group and the shapes in Members by (DX, DY) in one step.
// A nil Members uses the group's current geometric membership.
type MoveGroup struct {
	ID      string   `json:"id"`
	DX      float64  `json:"dx"`
	DY      float64  `json:"dy"`
	Members []string `json:"members,omitempty"`
}

type SetCamera struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SetZoom replaces the whole camera. Scale is clamped to [MinZoom, MaxZoom].
type SetZoom struct {
	Scale float64 `json:"scale"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

func (SetState) Type() string           { return TypeSetState }
func (Reset) Type() string              { return TypeReset }
func (AddShape) Type() string           { return TypeAddShape }
func (UpdateShape) Type() string        { return TypeUpdateShape }
func (RemoveShape) Type() string        { return TypeRemoveShape }
func (Reroute) Type() string            { return TypeReroute }
func (AddConnection) Type() string      { return TypeAddConnection }
func (UpdateConnection) Type() string   { return TypeUpdateConnection }
func (RemoveConnection) Type() string   { return TypeRemoveConnection }
func (RemoveConnectionAt) Type() string { return TypeRemoveConnectionAt }
func (AddGroup) Type() string           { return TypeAddGroup }
func (UpdateGroup) Type() string        { return TypeUpdateGroup }
func (RemoveGroup) Type() string        { return TypeRemoveGroup }
func (MoveGroup) Type() string          { return TypeMoveGroup }
func (SetCamera) Type() string          { return TypeSetCamera }
func (SetZoom) Type() string            { return TypeSetZoom }

// Undoable reports whether an action is recorded in the undo history.
// Camera movement is view state and is not.
func Undoable(a Action) bool {
	switch a.(type) {
	case SetCamera, SetZoom:
		return false
	}
	return true
}

// Pointer helpers for building patches.
func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }
func String(v string) *string  { return &v }
