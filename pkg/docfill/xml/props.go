package xml

import (
	"encoding/xml"
	"strings"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/render"
)

// runProperties mirrors the parts of w:rPr the style model understands.
type runProperties struct {
	Bold      *onOff `xml:"b"`
	Italic    *onOff `xml:"i"`
	Underline *onOff `xml:"u"`
	Color     *onOff `xml:"color"`
	Size      *onOff `xml:"sz"`
	Font      *font  `xml:"rFonts"`
}

// onOff is any element whose meaning lives in a single val attribute.
type onOff struct {
	Val *string `xml:"val,attr"`
}

func (o *onOff) enabled() bool {
	if o == nil {
		return false
	}
	if o.Val == nil {
		return true
	}
	switch strings.ToLower(*o.Val) {
	case "0", "false", "off", "none":
		return false
	}
	return true
}

func (o *onOff) value() string {
	if o == nil || o.Val == nil {
		return ""
	}
	return *o.Val
}

type font struct {
	ASCII    string `xml:"ascii,attr"`
	HAnsi    string `xml:"hAnsi,attr"`
	EastAsia string `xml:"eastAsia,attr"`
	CS       string `xml:"cs,attr"`
}

func (f *font) family() string {
	if f == nil {
		return ""
	}
	for _, name := range []string{f.ASCII, f.HAnsi, f.EastAsia, f.CS} {
		if name != "" {
			return name
		}
	}
	return ""
}

// StyleFromProps reads a serialized w:rPr element. The returned style keeps raw as its Props.
// An empty raw yields the zero style; properties that fail to parse are ignored.
func StyleFromProps(raw []byte) render.RunStyle {
	if len(raw) == 0 {
		return render.RunStyle{}
	}
	style := render.RunStyle{Props: string(raw)}

	var props runProperties
	if err := xml.Unmarshal(raw, &props); err != nil {
		return style
	}
	style.FontFamily = props.Font.family()
	style.FontSize = props.Size.value()
	style.Bold = props.Bold.enabled()
	style.Italic = props.Italic.enabled()
	style.Color = props.Color.value()
	if props.Underline.enabled() {
		style.Underline = props.Underline.value()
		if style.Underline == "" {
			style.Underline = "single"
		}
	}
	return style
}
