package render

// RunStyle is the formatting snapshot of a run. Two styles are the same style exactly when
// they compare equal with ==.
//
// The named attributes are what the compiler understands of a run's properties. Props keeps
// the verbatim serialized properties of the run the style was read from, so attributes with
// no named field (highlight, spacing, language and so on) survive a rewrite. A RunStyle built
// by hand usually leaves Props empty.
type RunStyle struct {
	FontFamily string
	FontSize   string // half-points, as written in the document
	Bold       bool
	Italic     bool
	Color      string // hex RGB without '#', or "auto"
	Underline  string // underline kind, empty when not underlined
	Props      string
}

// IsZero reports whether s carries no formatting at all.
func (s RunStyle) IsZero() bool {
	return s == RunStyle{}
}

// Segment is a piece of paragraph text with one style.
type Segment struct {
	Text  string
	Style RunStyle
}

// Text concatenates the text of segs.
func Text(segs []Segment) string {
	n := 0
	for _, s := range segs {
		n += len(s.Text)
	}
	buf := make([]byte, 0, n)
	for _, s := range segs {
		buf = append(buf, s.Text...)
	}
	return string(buf)
}
