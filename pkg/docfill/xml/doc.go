// Package xml rewrites the text runs of WordprocessingML parts in place.
//
// The body of a DOCX file (word/document.xml) and its headers and footers are streamed with
// encoding/xml. Every w:p element, at any depth (table cells, text boxes, content controls),
// is split into its direct children. Consecutive plain text runs form a stretch; each stretch
// is handed to a callback as render segments and, if the callback changes it, replaced by
// freshly serialized runs. Every other byte of the part is copied through untouched, so
// namespaces, drawings, fields, bookmarks and unknown extensions survive as they were.
//
// # Structure Organization
//
//   - rewrite.go: the streaming rewriter and its frame stack
//   - props.go: reading run properties into a render.RunStyle
//   - write.go: serializing segments back into runs
//
// # Plain Text Runs
//
// A run takes part in substitution when its children are limited to run properties, text,
// tabs, line breaks and rendered page break hints. Tabs read as '\t' and line breaks as
// '\n', and are written back the same way, so a value containing a newline renders as a
// line break. Any other run (drawings, field characters, symbols) ends the stretch and is
// kept verbatim. Spell-check markers between runs are dropped when a stretch is rewritten.
//
// # Containers and Markers
//
// Hyperlinks, smart tags, custom XML, content controls, tracked insertions and bidi
// wrappers hold runs of the paragraph. Each container is split into children the same way
// and its runs form stretches of their own; the container tags are kept. Bookmarks, comment
// ranges and permission ranges carry no text. They do not end a stretch and are written
// after the new runs when a stretch is rewritten. Tracked deletions and simple fields stay
// verbatim.
package xml
