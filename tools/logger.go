package tools

import (
	"fmt"
	"log"
	"os"
	"time"
)

var isEnabled = true
var printTimestamp = true

var console = log.New(os.Stderr, "", 0)

func EnableLogger() {
	isEnabled = true
}

func DisableLogger() {
	isEnabled = false
}

func EnableLoggerTimestamp() {
	printTimestamp = true
}

func DisableLoggerTimestamp() {
	printTimestamp = false
}

// LogOutput prints user facing progress messages on stderr, stdout being
// reserved for exported data
func LogOutput(val ...interface{}) {
	if !isEnabled {
		return
	}
	msg := fmt.Sprintln(val...)
	if printTimestamp {
		msg = "[" + time.Now().Format("2006-01-02 15:04:05.000") + "] " + msg
	}
	console.Print(msg)
}
