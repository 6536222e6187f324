package xterm

import (
	"fmt"
	"os"
	"strings"
)

type ColorSet []Color

func (cs ColorSet) Choose(i int) Color {
	if i < 0 {
		i = -i
	}
	return cs[i%len(cs)]
}

var (
	BasicColors = ColorSet{
		Green,
		Blue,
		Yellow,
		LightBlue,
	}

	Warn Color = Red
)

type Color interface {
	B(text string) []byte
	S(text string) string
}

type color struct {
	f uint8
	b uint8
}

// Standard XTerm Colors
var (
	Green     Color = color{f: 32, b: 1}
	Yellow    Color = color{f: 33, b: 1}
	Blue      Color = color{f: 34, b: 1}
	Red       Color = color{f: 35, b: 1}
	LightBlue Color = color{f: 36, b: 1}
	Grey      Color = color{f: 37, b: 1}
)

func (c color) S(text string) string {
	if !enabled {
		return text
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "\x1b[%d;%dm", c.b, c.f)
	sb.WriteString(text)
	sb.WriteString("\x1b[m")
	return sb.String()
}

func (c color) B(text string) []byte {
	return []byte(c.S(text))
}

var NoColor Color = noColor{}

type noColor struct{}

func (c noColor) B(text string) []byte {
	return []byte(text)
}

func (c noColor) S(text string) string {
	return text
}

// https://no-color.org
var enabled = len(os.Getenv(`NO_COLOR`)) == 0

// Disable turns every color into a no-op, for writing into plain log files.
func Disable() { enabled = false }
