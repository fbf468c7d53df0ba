package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixDesign     = "dsgn"
	PrefixConnection = "conn"
	PrefixGroup      = "grp"
	PrefixOp         = "op"
	PrefixThumbnail  = "thumb"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewDesignID() string     { return New(PrefixDesign) }
func NewConnectionID() string { return New(PrefixConnection) }
func NewGroupID() string      { return New(PrefixGroup) }
func NewOpID() string         { return New(PrefixOp) }
func NewThumbnailID() string  { return New(PrefixThumbnail) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
