package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

// renderRunningLine prints the one daemon state line the status command
// shows. Only the state token is colored so the line stays greppable.
func renderRunningLine(running bool, detail string, colorize bool) string {
	state := "not running"
	color := ansiYellow
	if running {
		state = "running"
		color = ansiGreen
	}
	if colorize {
		state = color + state + ansiReset
	}
	if detail != "" {
		return fmt.Sprintf("  dirserved: %s (%s)", state, detail)
	}
	return fmt.Sprintf("  dirserved: %s", state)
}

func renderSectionHeader(title string, colorize bool) string {
	line := fmt.Sprintf("== %s ==", title)
	if colorize {
		return ansiBlue + line + ansiReset
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
