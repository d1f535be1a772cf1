package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser     = "user"
	PrefixDrawing  = "dwg"
	PrefixSnapshot = "snap"
	PrefixOp       = "op"
	PrefixPage     = "page"
	PrefixAsset    = "asset"

	// Element prefixes, one per document collection.
	PrefixLine      = "line"
	PrefixArrow     = "arrow"
	PrefixArc       = "arc"
	PrefixCurve     = "curve"
	PrefixSymbol    = "sym"
	PrefixText      = "text"
	PrefixMark      = "mark"
	PrefixDimension = "dim"
	PrefixLegend    = "legend"
	PrefixNote      = "note"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string     { return New(PrefixUser) }
func NewDrawingID() string  { return New(PrefixDrawing) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewOpID() string       { return New(PrefixOp) }
func NewPageID() string     { return New(PrefixPage) }
func NewAssetID() string    { return New(PrefixAsset) }

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

// Prefix returns the prefix of a typeid, or an error if id does not parse.
func Prefix(id string) (string, error) {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	return parsed.Prefix(), nil
}
