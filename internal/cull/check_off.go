//go:build !cullcheck

package cull

import "seehuhn.de/go/geom/rect"

// Precondition checks compile to nothing unless the cullcheck build tag is
// set. Malformed input is a caller bug; results are then unspecified.

func checkRect(rect.Rect) {}

func checkScale(float64) {}
