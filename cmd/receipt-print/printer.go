package main

import (
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	warnColor  = color.New(color.FgYellow, color.Bold)
	errorColor = color.New(color.FgRed, color.Bold)
	okColor    = color.New(color.FgGreen, color.Bold)
)

// printWarn prints a warning to the screen.
func printWarn(message string) {
	warnColor.Fprintln(os.Stderr, "[-] "+message)
}

// printError prints an error to the screen.
func printError(err error) {
	errorColor.Fprintln(os.Stderr, "[!] "+err.Error())
}

// terminalNotifier shows session messages on the terminal
type terminalNotifier struct {
	w io.Writer
}

func (n terminalNotifier) Notify(message string) {
	c := warnColor
	if message == "print sent" {
		c = okColor
	}
	c.Fprintln(n.w, "[*] "+message)
}
