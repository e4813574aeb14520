package winmsg

import (
	"strconv"
	"strings"
)

// Attr is a bitmask of text attributes.
type Attr uint8

const (
	AttrDim Attr = 1 << iota
	AttrUnderline
	AttrBold
	AttrReverse
	AttrStandout
	AttrBlink
)

const attrAll = AttrDim | AttrUnderline | AttrBold | AttrReverse | AttrStandout | AttrBlink

var attrLetters = map[byte]Attr{
	'd': AttrDim,
	'u': AttrUnderline,
	'b': AttrBold,
	'r': AttrReverse,
	's': AttrStandout,
	'B': AttrBlink,
}

// Color is a palette index (0-255) or ColorDefault.
type Color int16

const ColorDefault Color = -1

var colorLetters = map[byte]Color{
	'k': 0, 'r': 1, 'g': 2, 'y': 3, 'b': 4, 'm': 5, 'c': 6, 'w': 7,
	'K': 8, 'R': 9, 'G': 10, 'Y': 11, 'B': 12, 'M': 13, 'C': 14, 'W': 15,
	'd': ColorDefault,
}

// Rendition describes a change to the current text style: attributes are
// updated as ((attrs & And) | Or) ^ Xor and colors replaced when set.
type Rendition struct {
	And, Or, Xor Attr
	Fg, Bg       Color
	FgSet, BgSet bool
}

// Code is the packed form of a Rendition as stored in the rendition list.
// The zero Code marks a pop of the most recent rendition.
type Code uint64

const (
	codeValid  Code = 1 << 63
	codeFgShift     = 24
	codeBgShift     = 34
	codeColorMask   = 0x3ff
)

// Encode packs r into a Code. Colors are stored offset by two so that zero
// means "unchanged".
func (r Rendition) Encode() Code {
	c := codeValid | Code(r.And) | Code(r.Or)<<8 | Code(r.Xor)<<16
	if r.FgSet {
		c |= Code(int(r.Fg)+2) << codeFgShift
	}
	if r.BgSet {
		c |= Code(int(r.Bg)+2) << codeBgShift
	}
	return c
}

// Decode unpacks a Code. The pop code decodes to the zero Rendition.
func (c Code) Decode() Rendition {
	if c&codeValid == 0 {
		return Rendition{}
	}
	r := Rendition{
		And: Attr(c),
		Or:  Attr(c >> 8),
		Xor: Attr(c >> 16),
	}
	if fg := int((c >> codeFgShift) & codeColorMask); fg != 0 {
		r.Fg, r.FgSet = Color(fg-2), true
	}
	if bg := int((c >> codeBgShift) & codeColorMask); bg != 0 {
		r.Bg, r.BgSet = Color(bg-2), true
	}
	return r
}

// IsPop reports whether c is the pop marker.
func (c Code) IsPop() bool {
	return c == 0
}

// Style is a fully resolved text style.
type Style struct {
	Attrs Attr
	Fg    Color
	Bg    Color
}

// DefaultStyle is the style in effect before any rendition.
var DefaultStyle = Style{Fg: ColorDefault, Bg: ColorDefault}

// Apply returns s changed by r.
func (s Style) Apply(r Rendition) Style {
	s.Attrs = ((s.Attrs & r.And) | r.Or) ^ r.Xor
	if r.FgSet {
		s.Fg = r.Fg
	}
	if r.BgSet {
		s.Bg = r.Bg
	}
	return s
}

// ParseAttrColor parses a rendition specification of the form
//
//	[modifier][attributes] [colors]
//
// where modifier is one of + - ! = (default =), attributes are letters from
// "dusrbB" or a hex value, and colors are one letter (foreground) or two
// letters (background then foreground) from "krgybmcwd", capitals for bright,
// '.' for unchanged, or numeric palette indexes separated by ';'. A single
// token without modifier is read as colors. It returns 0 for an empty or
// invalid string.
func ParseAttrColor(spec string) Code {
	fields := strings.Fields(spec)
	if len(fields) == 0 || len(fields) > 2 {
		return 0
	}
	r := Rendition{And: attrAll}
	attrTok, colorTok := "", ""
	switch {
	case len(fields) == 2:
		attrTok, colorTok = fields[0], fields[1]
	case strings.IndexByte("+-!=", fields[0][0]) >= 0:
		attrTok = fields[0]
	default:
		colorTok = fields[0]
	}
	if attrTok != "" && !parseAttrs(attrTok, &r) {
		return 0
	}
	if colorTok != "" && !parseColors(colorTok, &r) {
		return 0
	}
	return r.Encode()
}

func parseAttrs(tok string, r *Rendition) bool {
	op := byte('=')
	if strings.IndexByte("+-!=", tok[0]) >= 0 {
		op = tok[0]
		tok = tok[1:]
	}
	var set Attr
	if v, err := strconv.ParseUint(tok, 16, 8); err == nil && tok != "" && !isAttrWord(tok) {
		set = Attr(v) & attrAll
	} else {
		for i := 0; i < len(tok); i++ {
			a, ok := attrLetters[tok[i]]
			if !ok {
				return false
			}
			set |= a
		}
	}
	switch op {
	case '+':
		r.Or = set
	case '-':
		r.And = attrAll &^ set
	case '!':
		r.Xor = set
	case '=':
		r.And = 0
		r.Or = set
	}
	return true
}

// isAttrWord reports whether tok consists only of attribute letters; "b" and
// "d" are both hex digits and attribute letters, letters win.
func isAttrWord(tok string) bool {
	for i := 0; i < len(tok); i++ {
		if _, ok := attrLetters[tok[i]]; !ok {
			return false
		}
	}
	return true
}

func parseColors(tok string, r *Rendition) bool {
	var parts []string
	if strings.IndexByte(tok, ';') >= 0 || isNumber(tok) {
		parts = strings.Split(tok, ";")
	} else {
		for i := 0; i < len(tok); i++ {
			parts = append(parts, tok[i:i+1])
		}
	}
	if len(parts) == 0 || len(parts) > 2 {
		return false
	}
	colors := make([]Color, len(parts))
	set := make([]bool, len(parts))
	for i, p := range parts {
		c, ok, valid := parseColor(p)
		if !valid {
			return false
		}
		colors[i], set[i] = c, ok
	}
	if len(parts) == 1 {
		r.Fg, r.FgSet = colors[0], set[0]
		return true
	}
	r.Bg, r.BgSet = colors[0], set[0]
	r.Fg, r.FgSet = colors[1], set[1]
	return true
}

// parseColor returns the color, whether it changes anything, and validity.
func parseColor(p string) (Color, bool, bool) {
	if p == "." || p == "" {
		return 0, false, p == "."
	}
	if isNumber(p) {
		n, err := strconv.Atoi(p)
		if err != nil || n > 255 {
			return 0, false, false
		}
		return Color(n), true, true
	}
	if len(p) != 1 {
		return 0, false, false
	}
	c, ok := colorLetters[p[0]]
	return c, ok, ok
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
