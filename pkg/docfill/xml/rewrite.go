package xml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/render"
)

// WordNamespace is the WordprocessingML main namespace.
const WordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// StretchFunc receives the plain text runs of one stretch and returns the segments to write
// in their place. Returning segments equal to the input leaves the original bytes in place.
type StretchFunc func(runs []render.Segment) []render.Segment

type frameKind int

const (
	paragraphFrame frameKind = iota
	// containerFrame is an inline wrapper of runs (hyperlink, smart tag, content control,
	// insertion). Its runs are substituted as a scope of their own.
	containerFrame
	runFrame
	rawFrame
)

// containers are the inline elements whose runs belong to the enclosing paragraph.
var containers = map[string]bool{
	"hyperlink":  true,
	"smartTag":   true,
	"customXml":  true,
	"sdt":        true,
	"sdtContent": true,
	"ins":        true,
	"moveTo":     true,
	"dir":        true,
	"bdo":        true,
}

// markers are zero-content range elements. They do not end a stretch and are kept, after
// the new runs, when the stretch is rewritten.
var markers = map[string]bool{
	"bookmarkStart":     true,
	"bookmarkEnd":       true,
	"commentRangeStart": true,
	"commentRangeEnd":   true,
	"permStart":         true,
	"permEnd":           true,
}

// item is one direct child of a paragraph or container.
type item struct {
	raw []byte
	// run is set for plain text runs
	run *render.Segment
	// ignorable items carry no content and may be dropped from a rewritten stretch
	ignorable bool
	// marker items are ignorable but survive a rewrite
	marker bool
}

// frame is an open element whose bytes are being collected.
type frame struct {
	kind  frameKind
	depth int
	buf   bytes.Buffer

	// paragraph
	prefix string
	items  []item

	// run
	plain      bool
	inText     bool
	propsStart int
	props      []byte
	text       strings.Builder

	// raw child of a paragraph
	ignorable bool
	marker    bool
}

// collects reports whether the children of f are gathered as items.
func (f *frame) collects() bool {
	return f.kind == paragraphFrame || f.kind == containerFrame
}

// Stats reports what a rewrite did.
type Stats struct {
	Paragraphs int // w:p elements seen
	Rewritten  int // stretches replaced
}

// RewriteParagraphs streams a WordprocessingML part and passes every stretch of plain text
// runs through fn. It returns the rewritten part; when nothing changed the result equals data.
func RewriteParagraphs(data []byte, fn StretchFunc) ([]byte, Stats, error) {
	var (
		stats Stats
		out   bytes.Buffer
		stack []*frame
	)
	out.Grow(len(data))

	top := func() *frame {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}
	// sink is where bytes of the innermost open frame go.
	sink := func() *bytes.Buffer {
		if f := top(); f != nil {
			return &f.buf
		}
		return &out
	}
	pop := func() *frame {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return f
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	prev := dec.InputOffset()
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("xml: offset %d: %w", prev, err)
		}
		next := dec.InputOffset()
		raw := data[prev:next]
		prev = next

		f := top()
		switch t := tok.(type) {
		case xml.StartElement:
			if isWord(t.Name, "p") {
				stats.Paragraphs++
				p := &frame{kind: paragraphFrame, depth: 1, prefix: prefixOf(raw)}
				p.buf.Write(raw)
				stack = append(stack, p)
				continue
			}
			if f == nil {
				out.Write(raw)
				continue
			}
			switch f.kind {
			case paragraphFrame, containerFrame:
				child := &frame{kind: rawFrame, depth: 1}
				switch {
				case isWord(t.Name, "r"):
					child.kind = runFrame
					child.plain = true
				case isWord(t.Name, "proofErr"):
					child.ignorable = true
				case isWordIn(t.Name, markers):
					child.ignorable = true
					child.marker = true
				case isWordIn(t.Name, containers):
					child.kind = containerFrame
					child.prefix = prefixOf(raw)
				}
				child.buf.Write(raw)
				stack = append(stack, child)
			case runFrame:
				f.depth++
				start := f.buf.Len()
				f.buf.Write(raw)
				if f.depth != 2 {
					continue
				}
				switch {
				case isWord(t.Name, "rPr"):
					f.propsStart = start
				case isWord(t.Name, "t"):
					f.inText = true
				case isWord(t.Name, "tab"):
					f.text.WriteByte('\t')
				case isWord(t.Name, "br"), isWord(t.Name, "cr"):
					if breakType(t) != "" && breakType(t) != "textWrapping" {
						f.plain = false
					} else {
						f.text.WriteByte('\n')
					}
				case isWord(t.Name, "lastRenderedPageBreak"):
				default:
					f.plain = false
				}
			case rawFrame:
				f.depth++
				f.buf.Write(raw)
			}

		case xml.EndElement:
			if f == nil {
				out.Write(raw)
				continue
			}
			f.buf.Write(raw)
			f.depth--
			if f.depth > 0 {
				if f.kind == runFrame && f.depth == 1 {
					switch {
					case isWord(t.Name, "rPr"):
						f.props = bytes.Clone(f.buf.Bytes()[f.propsStart:])
					case isWord(t.Name, "t"):
						f.inText = false
					}
				}
				continue
			}
			pop()
			parent := top()
			switch f.kind {
			case paragraphFrame, containerFrame:
				rewritten := finishScope(f, fn, &stats)
				switch {
				case parent == nil:
					out.Write(rewritten)
				case parent.collects():
					parent.items = append(parent.items, item{raw: rewritten})
				default:
					parent.buf.Write(rewritten)
				}
			case runFrame:
				it := item{raw: bytes.Clone(f.buf.Bytes())}
				if f.plain {
					it.run = &render.Segment{Text: f.text.String(), Style: StyleFromProps(f.props)}
				}
				parent.items = append(parent.items, it)
			case rawFrame:
				parent.items = append(parent.items, item{raw: bytes.Clone(f.buf.Bytes()), ignorable: f.ignorable, marker: f.marker})
			}

		case xml.CharData:
			if f == nil {
				out.Write(raw)
				continue
			}
			switch f.kind {
			case paragraphFrame, containerFrame:
				f.items = append(f.items, item{raw: bytes.Clone(raw), ignorable: len(bytes.TrimSpace(t)) == 0})
			case runFrame:
				f.buf.Write(raw)
				if f.inText {
					f.text.Write(t)
				} else if f.depth == 1 && len(bytes.TrimSpace(t)) > 0 {
					f.plain = false
				}
			default:
				f.buf.Write(raw)
			}

		default:
			if f != nil && f.collects() {
				f.items = append(f.items, item{raw: bytes.Clone(raw)})
				continue
			}
			sink().Write(raw)
		}
	}

	if len(stack) > 0 {
		return nil, stats, fmt.Errorf("xml: unexpected end of part inside %d open elements", len(stack))
	}
	if stats.Rewritten == 0 {
		return data, stats, nil
	}
	return out.Bytes(), stats, nil
}

// finishScope assembles the bytes of a closed paragraph or container frame. f.buf holds the
// start tag followed by the end tag; the children live in f.items.
func finishScope(f *frame, fn StretchFunc, stats *Stats) []byte {
	all := f.buf.Bytes()
	var startTag, endTag []byte
	if len(f.items) == 0 {
		return bytes.Clone(all)
	}
	// the start tag was the first write, the end tag the last
	startLen := len(all)
	for i := len(all) - 1; i >= 0; i-- {
		if all[i] == '<' {
			startLen = i
			break
		}
	}
	startTag, endTag = all[:startLen], all[startLen:]

	var buf bytes.Buffer
	buf.Write(startTag)

	for i := 0; i < len(f.items); {
		if f.items[i].run == nil {
			buf.Write(f.items[i].raw)
			i++
			continue
		}

		// a stretch runs from this plain run to the last plain run reachable across
		// ignorable items
		j, last := i, i
		var runs []render.Segment
		for ; j < len(f.items); j++ {
			it := f.items[j]
			if it.run != nil {
				runs = append(runs, *it.run)
				last = j
				continue
			}
			if !it.ignorable {
				break
			}
		}

		segs := fn(runs)
		if !render.Changed(runs, segs) {
			for k := i; k <= last; k++ {
				buf.Write(f.items[k].raw)
			}
		} else {
			stats.Rewritten++
			for _, seg := range segs {
				if seg.Text != "" {
					writeRun(&buf, f.prefix, seg)
				}
			}
			for k := i; k <= last; k++ {
				if f.items[k].marker {
					buf.Write(f.items[k].raw)
				}
			}
		}
		i = last + 1
	}

	buf.Write(endTag)
	return buf.Bytes()
}

func isWord(name xml.Name, local string) bool {
	return name.Local == local && (name.Space == WordNamespace || name.Space == "w")
}

func isWordIn(name xml.Name, locals map[string]bool) bool {
	return locals[name.Local] && (name.Space == WordNamespace || name.Space == "w")
}

func breakType(t xml.StartElement) string {
	for _, a := range t.Attr {
		if a.Name.Local == "type" {
			return a.Value
		}
	}
	return ""
}

// prefixOf returns the namespace prefix of a raw start tag such as "<w:p w:rsidR=...>".
func prefixOf(tag []byte) string {
	name := bytes.TrimPrefix(tag, []byte("<"))
	if i := bytes.IndexAny(name, " \t\r\n/>"); i >= 0 {
		name = name[:i]
	}
	if i := bytes.IndexByte(name, ':'); i >= 0 {
		return string(name[:i])
	}
	return ""
}
