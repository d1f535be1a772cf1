//go:build cullcheck

package cull

import (
	"fmt"

	"seehuhn.de/go/geom/rect"
)

func checkRect(r rect.Rect) {
	if r.LLx > r.URx || r.LLy > r.URy {
		panic(fmt.Sprintf("cull: malformed rect %v", r))
	}
}

func checkScale(s float64) {
	if !(s > 0) {
		panic(fmt.Sprintf("cull: annotation scale must be positive, got %v", s))
	}
}
