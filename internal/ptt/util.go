package ptt

import (
	"fmt"
	"os"
)

// color-compatible printer interface (works with *color.Theme and *color.Style)
type colorPrinter interface {
	Printf(format string, a ...any)
	Println(a ...any)
}

// cPrintf prints with a colored style or falls back to fmt.Printf when nil
func cPrintf(p colorPrinter, format string, a ...any) {
	if p == nil {
		fmt.Printf(format, a...)
		return
	}
	p.Printf(format, a...)
}

// cPrintln prints a line with the given style or falls back to fmt.Println when nil
func cPrintln(p colorPrinter, a ...any) {
	if p == nil {
		fmt.Println(a...)
		return
	}
	p.Println(a...)
}

// debugf prints debug messages when Debug is true
func debugf(format string, args ...any) {
	if Debug {
		fmt.Printf(format, args...)
	}
}

// einfo prints an informational message with the tool's standard prefix.
func einfo(format string, args ...any) {
	colArrow.Print("[INFO] >>> ")
	cPrintf(colInfo, format+"\n", args...)
}

// eerror prints an error message with the tool's standard prefix.
func eerror(format string, args ...any) {
	colArrow.Print("[ERROR] >>> ")
	cPrintf(colError, format+"\n", args...)
}

// edie prints an error and terminates the process. Only safe at the top
// level of Main, after all deferred cleanup has already run.
func edie(format string, args ...any) {
	eerror(format, args...)
	os.Exit(1)
}
