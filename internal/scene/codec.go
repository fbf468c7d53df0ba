package scene

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownAction = errors.New("unknown action type")

var decoders = map[string]func(json.RawMessage) (Action, error){
	TypeSetState:           decodeAs[SetState],
	TypeReset:              decodeAs[Reset],
	TypeAddShape:           decodeAs[AddShape],
	TypeUpdateShape:        decodeAs[UpdateShape],
	TypeRemoveShape:        decodeAs[RemoveShape],
	TypeReroute:            decodeAs[Reroute],
	TypeAddConnection:      decodeAs[AddConnection],
	TypeUpdateConnection:   decodeAs[UpdateConnection],
	TypeRemoveConnection:   decodeAs[RemoveConnection],
	TypeRemoveConnectionAt: decodeAs[RemoveConnectionAt],
	TypeAddGroup:           decodeAs[AddGroup],
	TypeUpdateGroup:        decodeAs[UpdateGroup],
	TypeRemoveGroup:        decodeAs[RemoveGroup],
	TypeMoveGroup:          decodeAs[MoveGroup],
	TypeSetCamera:          decodeAs[SetCamera],
	TypeSetZoom:            decodeAs[SetZoom],
}

func decodeAs[T Action](payload json.RawMessage) (Action, error) {
	var a T
	if len(payload) > 0 && string(payload) != "null" {
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("decode %s: %w", a.Type(), err)
		}
	}
	return a, nil
}

// Decode builds an action from its type tag and JSON payload.
func Decode(typ string, payload json.RawMessage) (Action, error) {
	dec, ok := decoders[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, typ)
	}
	return dec(payload)
}

// Encode returns the type tag and JSON payload for an action.
func Encode(a Action) (string, json.RawMessage, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", a.Type(), err)
	}
	return a.Type(), payload, nil
}
