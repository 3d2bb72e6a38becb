package splash

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	bodyStyle  = lipgloss.NewStyle()
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
)

// renderScript interprets the splash Script's background and progress
// sections against the Model's current state, producing the terminal frame.
// Background commands establish the static chrome (title, image caption),
// progress commands the lines that reference ${status}/${progress}; both
// sections are re-evaluated on every frame.
func renderScript(m *Model) string {
	vars := Vars{
		DPI:      m.dpi,
		Version:  m.version,
		Status:   m.status.String(),
		Progress: m.counter.Fraction(),
	}

	var b strings.Builder
	for _, cmd := range m.script.Background {
		if line, ok := renderCommand(cmd, vars, titleStyle); ok {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	for _, cmd := range m.script.Progress {
		if line, ok := renderCommand(cmd, vars, bodyStyle); ok {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(vars.Progress))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("q to quit"))
	return b.String()
}

// renderCommand resolves one splash script command into a line of output,
// styled with textStyle (the caller picks titleStyle for the background
// section and bodyStyle for the progress section).
// The second return value is false for commands that carry no visible
// representation in a terminal (splash, image sizing, font selection).
func renderCommand(cmd Command, vars Vars, textStyle lipgloss.Style) (string, bool) {
	switch cmd.Name {
	case CmdFillText:
		if len(cmd.Args) < 3 {
			return "", false
		}
		text := EvalString(cmd.Args[2], vars)
		return textStyle.Render(text), true

	case CmdImage:
		if len(cmd.Args) < 1 {
			return "", false
		}
		return dimStyle.Render("[image: " + cmd.Args[0] + "]"), true

	case CmdFill:
		if len(cmd.Args) < 3 {
			return "", false
		}
		return renderFillSwatch(cmd.Args), true

	case CmdSplash, CmdTextFont, CmdTextSize, CmdTextAlign:
		// Layout-only directives with no terminal rendering; they are
		// ignored and do not change how a later filltext is styled.
		return "", false

	default:
		return "", false
	}
}

// renderFillSwatch renders a fill command's RGB triplet as a colored block,
// clamping each channel to [0, 255].
func renderFillSwatch(args []string) string {
	r := clampChannel(args[0])
	g := clampChannel(args[1])
	b := clampChannel(args[2])
	hex := "#" + byteHex(r) + byteHex(g) + byteHex(b)
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("   ")
}

func clampChannel(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}

func byteHex(n int) string {
	const hexDigits = "0123456789abcdef"
	return string([]byte{hexDigits[(n>>4)&0xF], hexDigits[n&0xF]})
}
