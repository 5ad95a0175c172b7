package logger

import (
	"github.com/fatih/color"
)

// Colored printing functions for the different console levels.
// These behave like fmt.Printf but write with the level's color.

// Step announces a phase of the provisioning flow in bold.
var Step = color.New(color.Bold).PrintfFunc()

// Info logs informational messages in green.
var Info = color.New(color.FgGreen).PrintfFunc()

// Warn logs warning messages in yellow.
var Warn = color.New(color.FgYellow).PrintfFunc()

// Error logs error messages in red.
var Error = color.New(color.FgRed).PrintfFunc()

// Dim echoes subprocess command lines and secondary detail.
var Dim = color.New(color.Faint).PrintfFunc()

// Debug logs debug messages in cyan when enabled, otherwise is a no-op.
// Assigned during Init based on the --debug flag.
var Debug func(format string, a ...any)

func init() {
	Init(false)
}

// Init enables or disables debug logging.
func Init(enableDebug bool) {
	if enableDebug {
		Debug = color.New(color.FgCyan).PrintfFunc()
	} else {
		Debug = func(format string, a ...any) {}
	}
}
