package cull

// Base padding in document units at annotation scale 1. Symbols, texts and
// marks are drawn at a size that follows the annotation scale, not the zoom,
// so their anchor alone underestimates the footprint.
const (
	BaseSymbolPadding = 50
	BaseTextPadding   = 40
	BaseMarkPadding   = 20
)

// Padding holds the per-category tolerance for point-like elements.
type Padding struct {
	Symbol float64 `json:"symbol"`
	Text   float64 `json:"text"`
	Mark   float64 `json:"mark"`
}

// PaddingFor scales the base paddings linearly by annotationScale.
func PaddingFor(annotationScale float64) Padding {
	return Padding{
		Symbol: BaseSymbolPadding * annotationScale,
		Text:   BaseTextPadding * annotationScale,
		Mark:   BaseMarkPadding * annotationScale,
	}
}

// Max returns the largest of the three paddings.
func (p Padding) Max() float64 {
	return max(p.Symbol, p.Text, p.Mark)
}
