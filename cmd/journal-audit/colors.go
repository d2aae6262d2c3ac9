package main

import (
	"os"
	"strings"
)

// ANSI color codes for terminal output.
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorGray  = "\033[90m"

	ColorBrightRed    = "\033[91m"
	ColorBrightGreen  = "\033[92m"
	ColorBrightYellow = "\033[93m"
	ColorBrightCyan   = "\033[96m"
)

// ColorSupported checks TERM and COLORTERM. NO_COLOR always wins.
func ColorSupported() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	term := strings.ToLower(os.Getenv("TERM"))
	for _, colorTerm := range []string{"xterm", "screen", "tmux", "color", "ansi"} {
		if strings.Contains(term, colorTerm) {
			return true
		}
	}

	return os.Getenv("COLORTERM") != ""
}

func Colorize(text, color string) string {
	if !ColorSupported() {
		return text
	}

	return color + text + ColorReset
}

func Gray(text string) string { return Colorize(text, ColorGray) }
func Bold(text string) string { return Colorize(text, ColorBold) }

func Success(text string) string { return Colorize(text, ColorBrightGreen) }
func Error(text string) string   { return Colorize(text, ColorBrightRed) }
func Warning(text string) string { return Colorize(text, ColorBrightYellow) }

func Header(text string) string {
	return Bold(Colorize(text, ColorBrightCyan))
}

func Separator(char string, length int) string {
	return Gray(strings.Repeat(char, length))
}
