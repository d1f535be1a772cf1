//go:build cullcheck

package viewport

import "fmt"

func checkView(v ViewState) {
	if !(v.Zoom > 0) {
		panic(fmt.Sprintf("viewport: zoom must be positive, got %v", v.Zoom))
	}
}
