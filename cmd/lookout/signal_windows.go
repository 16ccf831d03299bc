// Windows signal handling for graceful bot shutdown.
//
// Windows has no SIGTERM; console applications receive Ctrl+C and
// Ctrl+Break events, which the Go runtime surfaces as os.Interrupt.
// Service-style termination would require a service control handler,
// which is out of scope for a console-run bot.

//go:build windows

package main

import (
	"os"
	"os/signal"
)

// ///////////////////////////////////////////////
// Signal Handling
// ///////////////////////////////////////////////

// signalChannel returns a buffered channel that receives os.Interrupt
// (Ctrl+C / Ctrl+Break on Windows).
func signalChannel() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return ch
}
