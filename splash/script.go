// Package splash implements the splash renderer: a parser for the
// text-based splash script grammar and a bubbletea Model that interprets
// it each frame against live progress, reinterpreting the scripted 2D
// drawing loop as a terminal render loop.
package splash

import (
	"bufio"
	"strings"

	"github.com/nativestart-go/launcher/launcherrors"
)

// CommandName identifies a splash script instruction.
type CommandName string

const (
	CmdSplash    CommandName = "splash"
	CmdImage     CommandName = "image"
	CmdTextFont  CommandName = "textfont"
	CmdTextSize  CommandName = "textsize"
	CmdTextAlign CommandName = "textalign"
	CmdFill      CommandName = "fill"
	CmdFillText  CommandName = "filltext"
)

// Command is one parsed splash script instruction; Args retains the raw,
// un-evaluated argument tokens (placeholders/arithmetic are resolved per
// frame by expr.go, since ${progress} and ${status} change every render).
type Command struct {
	Name CommandName
	Args []string
}

// Script is the two-section splash script: [background] holds the static
// chrome, [progress] the commands that track live progress. The terminal
// renderer (renderScript) evaluates both sections on every frame.
type Script struct {
	Background []Command
	Progress   []Command
}

// Parse reads a splash script from raw text per the grammar in spec §6:
//
//	[background]
//	splash  <W> <H>
//	image   <path> <x> <y> [<w> <h>]
//	textfont  <path>
//	textsize  <pt>
//	textalign start|left|center|end|right
//	fill    <r> <g> <b>
//	filltext <x> <y> <text...>
//	[progress]
//	<same commands, redrawn each frame>
func Parse(raw string) (*Script, error) {
	s := &Script{}
	section := &s.Background

	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch line {
		case "[background]":
			section = &s.Background
			continue
		case "[progress]":
			section = &s.Progress
			continue
		}

		cmd, err := parseLine(line)
		if err != nil {
			return nil, err
		}
		*section = append(*section, cmd)
	}
	if err := scanner.Err(); err != nil {
		return nil, launcherrors.Wrap(launcherrors.Splash, err, "reading splash script")
	}

	return s, nil
}

func parseLine(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, launcherrors.New(launcherrors.Splash, "empty splash command")
	}

	name := CommandName(strings.ToLower(fields[0]))
	switch name {
	case CmdSplash, CmdImage, CmdTextFont, CmdTextSize, CmdTextAlign, CmdFill, CmdFillText:
		args := fields[1:]
		if name == CmdFillText {
			// filltext's trailing argument is free text that may itself
			// contain spaces; re-join everything after x, y verbatim.
			if len(fields) < 4 {
				return Command{}, launcherrors.New(launcherrors.Splash, "filltext requires x, y, and text: %q", line)
			}
			args = []string{fields[1], fields[2], strings.Join(fields[3:], " ")}
		}
		return Command{Name: name, Args: args}, nil
	default:
		return Command{}, launcherrors.New(launcherrors.Splash, "unknown splash command %q", fields[0])
	}
}

// TextAlign mirrors the textalign command's accepted values, normalizing
// the "left"/"start" and "right"/"end" synonyms spec §6 allows.
type TextAlign int

const (
	AlignStart TextAlign = iota
	AlignCenter
	AlignEnd
)

func ParseTextAlign(s string) (TextAlign, error) {
	switch s {
	case "start", "left":
		return AlignStart, nil
	case "center":
		return AlignCenter, nil
	case "end", "right":
		return AlignEnd, nil
	default:
		return 0, launcherrors.New(launcherrors.Splash, "unknown textalign value %q", s)
	}
}

func (a TextAlign) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignEnd:
		return "end"
	default:
		return "start"
	}
}
