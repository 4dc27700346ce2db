package xml

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/render"
)

// writeRun serializes seg as a single w:r element using the given namespace prefix.
func writeRun(buf *bytes.Buffer, prefix string, seg render.Segment) {
	tag := func(local string) string {
		if prefix == "" {
			return local
		}
		return prefix + ":" + local
	}

	buf.WriteString("<" + tag("r") + ">")
	if seg.Style.Props != "" {
		buf.WriteString(seg.Style.Props)
	} else if !seg.Style.IsZero() {
		writeProps(buf, tag, seg.Style)
	}

	lines := strings.Split(seg.Text, "\n")
	for i, line := range lines {
		if i > 0 {
			buf.WriteString("<" + tag("br") + "/>")
		}
		cells := strings.Split(line, "\t")
		for j, text := range cells {
			if j > 0 {
				buf.WriteString("<" + tag("tab") + "/>")
			}
			if text == "" {
				continue
			}
			buf.WriteString("<" + tag("t") + ` xml:space="preserve">`)
			_ = xml.EscapeText(buf, []byte(text))
			buf.WriteString("</" + tag("t") + ">")
		}
	}
	buf.WriteString("</" + tag("r") + ">")
}

// writeProps builds a w:rPr element for a style that was not read from a document.
func writeProps(buf *bytes.Buffer, tag func(string) string, s render.RunStyle) {
	attr := func(name, val string) {
		buf.WriteString("<" + tag(name) + " " + tag("val") + `="`)
		_ = xml.EscapeText(buf, []byte(val))
		buf.WriteString(`"/>`)
	}

	buf.WriteString("<" + tag("rPr") + ">")
	if s.FontFamily != "" {
		buf.WriteString("<" + tag("rFonts") + " " + tag("ascii") + `="`)
		_ = xml.EscapeText(buf, []byte(s.FontFamily))
		buf.WriteString(`" ` + tag("hAnsi") + `="`)
		_ = xml.EscapeText(buf, []byte(s.FontFamily))
		buf.WriteString(`"/>`)
	}
	if s.Bold {
		buf.WriteString("<" + tag("b") + "/>")
	}
	if s.Italic {
		buf.WriteString("<" + tag("i") + "/>")
	}
	if s.Color != "" {
		attr("color", s.Color)
	}
	if s.FontSize != "" {
		attr("sz", s.FontSize)
	}
	if s.Underline != "" {
		attr("u", s.Underline)
	}
	buf.WriteString("</" + tag("rPr") + ">")
}
