package util

import (
	"github.com/fatih/color"
)

//	paint forces color on even when stdout is not a terminal, so that
//	piped CLI output keeps its highlighting.
func paint(attr color.Attribute) func(a ...interface{}) string {
	c := color.New(attr)
	c.EnableColor()
	return c.SprintFunc()
}

var (
	cyan   = paint(color.FgHiCyan)
	green  = paint(color.FgHiGreen)
	yellow = paint(color.FgHiYellow)
	red    = paint(color.FgHiRed)
)

func Cyan(s string) string   { return cyan(s) }
func Green(s string) string  { return green(s) }
func Yellow(s string) string { return yellow(s) }
func Red(s string) string    { return red(s) }
