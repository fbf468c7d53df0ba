package document

import (
	"maps"
	"reflect"
)

// ConnectionType is the semantic category of an edge.
type ConnectionType string

const (
	ConnAssociation      ConnectionType = "association"
	ConnAggregation      ConnectionType = "aggregation"
	ConnComposition      ConnectionType = "composition"
	ConnDependency       ConnectionType = "dependency"
	ConnInheritance      ConnectionType = "inheritance"
	ConnRealization      ConnectionType = "realization"
	ConnControlFlow      ConnectionType = "control-flow"
	ConnMessageFlow      ConnectionType = "message-flow"
	ConnEventFlow        ConnectionType = "event-flow"
	ConnSynchronousCall  ConnectionType = "synchronous-call"
	ConnAsynchronousCall ConnectionType = "asynchronous-call"
	ConnRequestResponse  ConnectionType = "request-response"
	ConnPublishSubscribe ConnectionType = "publish-subscribe"
	ConnLooseCoupling    ConnectionType = "loose-coupling"
	ConnTightCoupling    ConnectionType = "tight-coupling"
	ConnUnidirectional   ConnectionType = "unidirectional"
	ConnBidirectional    ConnectionType = "bidirectional"
	ConnCustom           ConnectionType = "custom"
	ConnDefault          ConnectionType = "default"
)

// DefaultConnectionType is the type selected when the editor starts.
const DefaultConnectionType = ConnAssociation

// ArrowType selects the endpoint decoration of an edge.
type ArrowType string

const (
	ArrowNone           ArrowType = "none"
	ArrowFilled         ArrowType = "filled"
	ArrowOpen           ArrowType = "open"
	ArrowFilledDiamond  ArrowType = "filled-diamond"
	ArrowHollowDiamond  ArrowType = "hollow-diamond"
	ArrowHollowTriangle ArrowType = "hollow-triangle"
	ArrowDouble         ArrowType = "double"
)

// DashStyle is a stroke dash pattern.
type DashStyle string

const (
	DashSolid  DashStyle = "solid"
	DashDashed DashStyle = "dashed"
	DashDotted DashStyle = "dotted"
)

// Pattern returns the canvas dash array for a stroke of the given thickness.
func (d DashStyle) Pattern(thickness float64) []float64 {
	t := max(thickness, 1)
	switch d {
	case DashDashed:
		return []float64{6 * t, 4 * t}
	case DashDotted:
		return []float64{t, 3 * t}
	default:
		return nil
	}
}

// RoutingPattern is the path-shape algorithm used for an edge.
type RoutingPattern string

const (
	RouteOrthogonal RoutingPattern = "orthogonal"
	RouteCurved     RoutingPattern = "curved"
	RouteStepped    RoutingPattern = "stepped"
)

// ConnectionStyle is the resolved visual style of an edge.
type ConnectionStyle struct {
	Color     string         `json:"color"`
	Thickness float64        `json:"thickness"`
	Dash      DashStyle      `json:"dash"`
	Arrow     ArrowType      `json:"arrow"`
	Routing   RoutingPattern `json:"routing"`
}

// ConnectionSpec is the catalog entry for a connection type.
type ConnectionSpec struct {
	Type     ConnectionType
	Label    string
	Style    ConnectionStyle
	Metadata map[string]any
}

var connectionSpecs = map[ConnectionType]ConnectionSpec{
	ConnAssociation: {Label: "Association", Style: ConnectionStyle{"#64748b", 2, DashSolid, ArrowFilled, RouteOrthogonal}},
	ConnAggregation: {Label: "Aggregation", Style: ConnectionStyle{"#64748b", 2, DashSolid, ArrowHollowDiamond, RouteOrthogonal},
		Metadata: map[string]any{"cardinality": "0..*"}},
	ConnComposition: {Label: "Composition", Style: ConnectionStyle{"#334155", 2, DashSolid, ArrowFilledDiamond, RouteOrthogonal},
		Metadata: map[string]any{"cardinality": "1..*"}},
	ConnDependency:  {Label: "Dependency", Style: ConnectionStyle{"#64748b", 1.5, DashDashed, ArrowOpen, RouteOrthogonal}},
	ConnInheritance: {Label: "Inheritance", Style: ConnectionStyle{"#1e293b", 2, DashSolid, ArrowHollowTriangle, RouteOrthogonal}},
	ConnRealization: {Label: "Realization", Style: ConnectionStyle{"#1e293b", 2, DashDashed, ArrowHollowTriangle, RouteOrthogonal}},
	ConnControlFlow: {Label: "Control Flow", Style: ConnectionStyle{"#2563eb", 2, DashSolid, ArrowFilled, RouteOrthogonal}},
	ConnMessageFlow: {Label: "Message Flow", Style: ConnectionStyle{"#7c3aed", 2, DashDashed, ArrowOpen, RouteCurved}},
	ConnEventFlow: {Label: "Event Flow", Style: ConnectionStyle{"#db2777", 2, DashDotted, ArrowFilled, RouteCurved},
		Metadata: map[string]any{"async": true}},
	ConnSynchronousCall: {Label: "Synchronous Call", Style: ConnectionStyle{"#0f172a", 2, DashSolid, ArrowFilled, RouteOrthogonal},
		Metadata: map[string]any{"synchronous": true, "timeoutMs": 30000.0}},
	ConnAsynchronousCall: {Label: "Asynchronous Call", Style: ConnectionStyle{"#0f172a", 2, DashDashed, ArrowOpen, RouteOrthogonal},
		Metadata: map[string]any{"synchronous": false}},
	ConnRequestResponse: {Label: "Request / Response", Style: ConnectionStyle{"#0369a1", 2, DashSolid, ArrowDouble, RouteOrthogonal},
		Metadata: map[string]any{"synchronous": true}},
	ConnPublishSubscribe: {Label: "Publish / Subscribe", Style: ConnectionStyle{"#c026d3", 2, DashDashed, ArrowFilled, RouteCurved},
		Metadata: map[string]any{"async": true, "delivery": "at-least-once"}},
	ConnLooseCoupling: {Label: "Loose Coupling", Style: ConnectionStyle{"#94a3b8", 1, DashDotted, ArrowNone, RouteCurved},
		Metadata: map[string]any{"coupling": "loose"}},
	ConnTightCoupling: {Label: "Tight Coupling", Style: ConnectionStyle{"#0f172a", 4, DashSolid, ArrowNone, RouteOrthogonal},
		Metadata: map[string]any{"coupling": "tight"}},
	ConnUnidirectional: {Label: "Unidirectional", Style: ConnectionStyle{"#475569", 2, DashSolid, ArrowFilled, RouteOrthogonal}},
	ConnBidirectional:  {Label: "Bidirectional", Style: ConnectionStyle{"#475569", 2, DashSolid, ArrowDouble, RouteOrthogonal}},
	ConnCustom:         {Label: "Custom", Style: ConnectionStyle{"#f59e0b", 2, DashSolid, ArrowFilled, RouteStepped}},
	ConnDefault:        {Label: "Default", Style: ConnectionStyle{"#6b7280", 2, DashSolid, ArrowFilled, RouteOrthogonal}},
}

func init() {
	for t, spec := range connectionSpecs {
		spec.Type = t
		connectionSpecs[t] = spec
	}
}

// Spec returns the catalog entry for t, falling back to ConnDefault.
func Spec(t ConnectionType) ConnectionSpec {
	if spec, ok := connectionSpecs[t]; ok {
		spec.Metadata = maps.Clone(spec.Metadata)
		return spec
	}
	return Spec(ConnDefault)
}

// Known reports whether t is in the catalog.
func (t ConnectionType) Known() bool {
	_, ok := connectionSpecs[t]
	return ok
}

// ConnectionTypes lists the catalog in palette order.
func ConnectionTypes() []ConnectionType {
	return []ConnectionType{
		ConnAssociation, ConnAggregation, ConnComposition, ConnDependency,
		ConnInheritance, ConnRealization, ConnControlFlow, ConnMessageFlow,
		ConnEventFlow, ConnSynchronousCall, ConnAsynchronousCall, ConnRequestResponse,
		ConnPublishSubscribe, ConnLooseCoupling, ConnTightCoupling, ConnUnidirectional,
		ConnBidirectional, ConnCustom, ConnDefault,
	}
}

// StyleOverride holds optional per-edge visual overrides. Zero values mean
// "use the type default".
type StyleOverride struct {
	BorderColor     string    `json:"borderColor,omitempty"`
	BorderThickness float64   `json:"borderThickness,omitempty"`
	BorderStyle     DashStyle `json:"borderStyle,omitempty"`
}

// Connection is a typed link between two shape anchors. ID is assigned at
// creation and never changes.
type Connection struct {
	ID       string         `json:"id"`
	From     string         `json:"from"`
	FromSide Side           `json:"fromPoint"`
	To       string         `json:"to"`
	ToSide   Side           `json:"toPoint"`
	Type     ConnectionType `json:"type"`
	Override StyleOverride  `json:"override"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewConnection builds a connection carrying the catalog metadata of t.
func NewConnection(id, from string, fromSide Side, to string, toSide Side, t ConnectionType) Connection {
	return Connection{
		ID:       id,
		From:     from,
		FromSide: fromSide,
		To:       to,
		ToSide:   toSide,
		Type:     t,
		Metadata: Spec(t).Metadata,
	}
}

// ResolvedStyle applies the per-edge overrides on top of the type default.
func (c Connection) ResolvedStyle() ConnectionStyle {
	st := Spec(c.Type).Style
	if c.Override.BorderColor != "" {
		st.Color = c.Override.BorderColor
	}
	if c.Override.BorderThickness > 0 {
		st.Thickness = c.Override.BorderThickness
	}
	if c.Override.BorderStyle != "" {
		st.Dash = c.Override.BorderStyle
	}
	return st
}

// Touches reports whether the connection references the named shape.
func (c Connection) Touches(name string) bool {
	return c.From == name || c.To == name
}

// Equal compares two connections including metadata.
func (c Connection) Equal(o Connection) bool {
	return c.ID == o.ID && c.From == o.From && c.FromSide == o.FromSide &&
		c.To == o.To && c.ToSide == o.ToSide && c.Type == o.Type &&
		c.Override == o.Override && metadataEqual(c.Metadata, o.Metadata)
}

func metadataEqual(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
