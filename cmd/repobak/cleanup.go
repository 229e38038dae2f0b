package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/repobak/repobak/internal/debug"
)

var cleanupHandlers struct {
	sync.Mutex
	list []func() error
	done bool
}

// AddCleanupHandler adds the function f to the list of cleanup handlers so
// that it is executed when Exit is called.
func AddCleanupHandler(f func() error) {
	cleanupHandlers.Lock()
	defer cleanupHandlers.Unlock()

	cleanupHandlers.list = append(cleanupHandlers.list, f)
}

// runCleanupHandlers runs all registered cleanup handlers once, in reverse
// order of registration.
func runCleanupHandlers() {
	cleanupHandlers.Lock()
	defer cleanupHandlers.Unlock()

	if cleanupHandlers.done {
		return
	}
	cleanupHandlers.done = true

	for i := len(cleanupHandlers.list) - 1; i >= 0; i-- {
		if err := cleanupHandlers.list[i](); err != nil {
			Warnf("error in cleanup handler: %v\n", err)
		}
	}
	cleanupHandlers.list = nil
}

func createGlobalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	ch := make(chan os.Signal, 1)
	go cleanupHandler(ch, cancel)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	return ctx
}

// cleanupHandler handles the SIGINT and SIGTERM signals. Running mirrors
// notice the cancelled context and stop after the current file.
func cleanupHandler(c <-chan os.Signal, cancel context.CancelFunc) {
	s := <-c
	debug.Log("signal %v received, cleaning up", s)
	Warnf("signal %v received, cleaning up\n", s)

	if val, _ := os.LookupEnv("REPOBAK_DEBUG_STACKTRACE_SIGINT"); val != "" {
		_, _ = os.Stderr.WriteString("\n--- STACKTRACE START ---\n\n")
		_, _ = os.Stderr.WriteString(debug.DumpStacktrace())
		_, _ = os.Stderr.WriteString("\n--- STACKTRACE END ---\n")
	}

	cancel()
}

// Exit runs the cleanup handlers and terminates the process with the given
// exit code.
func Exit(code int) {
	runCleanupHandlers()
	debug.Log("exiting with status code %d", code)
	os.Exit(code)
}
