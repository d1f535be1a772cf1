//go:build !cullcheck

package viewport

// checkView is a no-op unless built with the cullcheck tag; a non-positive
// zoom is a caller bug.
func checkView(ViewState) {}
