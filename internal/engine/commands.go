package engine

import (
	"encoding/json"
)

// Draw operations.
const (
	OpPath  = "path"
	OpText  = "text"
	OpImage = "image"
)

// DrawCommand represents a single drawing operation for the host to execute
// on a Canvas2D-like context.
type DrawCommand struct {
	Op          string        `json:"op"`
	NodeID      string        `json:"nodeId,omitempty"`    // For hit correlation
	Transform   []float64     `json:"transform,omitempty"` // [a, b, c, d, e, f] affine matrix
	Path        []PathCommand `json:"path,omitempty"`      // Path data for "path" ops
	Fill        string        `json:"fill,omitempty"`      // Fill color
	Stroke      string        `json:"stroke,omitempty"`    // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"`
	Dash        []float64     `json:"dash,omitempty"`
	Opacity     float64       `json:"opacity,omitempty"` // Global alpha
	Lines       []string      `json:"lines,omitempty"`   // Wrapped text for "text" ops
	FontSize    float64       `json:"fontSize,omitempty"`
	FontStyle   string        `json:"fontStyle,omitempty"`
	TextAlign   string        `json:"textAlign,omitempty"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	Width       float64       `json:"width,omitempty"` // Text box or image size
	Height      float64       `json:"height,omitempty"`
}

// CompileDrawCommands generates a draw command buffer from a scene graph.
// Commands are in painter's order (back to front).
func CompileDrawCommands(sg *SceneGraph) []DrawCommand {
	if sg == nil || sg.Root == nil {
		return nil
	}

	var commands []DrawCommand
	compileNode(sg.Root, &commands)
	return commands
}

func compileNode(node *SceneNode, commands *[]DrawCommand) {
	if node == nil || !node.Visible {
		return
	}

	switch {
	case node.ImageURL != "":
		*commands = append(*commands, DrawCommand{
			Op:        OpImage,
			NodeID:    node.ID,
			Transform: node.WorldTransform.ToSlice(),
			Opacity:   node.Opacity,
			ImageURL:  node.ImageURL,
			Width:     node.BoxWidth,
			Height:    node.BoxHeight,
		})
	case len(node.Text) > 0:
		*commands = append(*commands, DrawCommand{
			Op:          OpText,
			NodeID:      node.ID,
			Transform:   node.WorldTransform.ToSlice(),
			Opacity:     node.Opacity,
			Fill:        node.Fill,
			Lines:       node.Text,
			FontSize:    node.FontSize,
			FontStyle:   node.FontStyle,
			TextAlign:   node.TextAlign,
			Width:       node.BoxWidth,
			Height:      node.BoxHeight,
		})
	case len(node.Path) > 0:
		*commands = append(*commands, DrawCommand{
			Op:          OpPath,
			NodeID:      node.ID,
			Transform:   node.WorldTransform.ToSlice(),
			Path:        node.Path,
			Opacity:     node.Opacity,
			Fill:        node.Fill,
			Stroke:      node.Stroke,
			StrokeWidth: node.StrokeWidth,
			Dash:        node.Dash,
		})
	}

	for _, child := range node.Children {
		compileNode(child, commands)
	}
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if len(commands) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
