//go:build !windows

// Package stderr provides the Linux/Unix implementation: file descriptor
// 2 is redirected to a pipe so that C libraries (ALSA, in particular)
// writing directly to the fd don't corrupt the TUI's terminal output.
// Captured lines are republished on Messages; WriteOriginal still reaches
// the real terminal.
package stderr

import (
	"bufio"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	mu       sync.Mutex
	started  bool
	realFd   int
	pipeR    *os.File
	pipeW    *os.File
	origFile *os.File
)

// Start redirects fd 2 to an internal pipe and begins forwarding
// captured lines to Messages. Safe to call more than once; subsequent
// calls are no-ops until Stop.
func Start() error {
	mu.Lock()
	defer mu.Unlock()
	if started {
		return nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	dup, err := unix.Dup(2)
	if err != nil {
		r.Close()
		w.Close()
		return err
	}
	origFile = os.NewFile(uintptr(dup), "stderr-orig")

	if err := unix.Dup2(int(w.Fd()), 2); err != nil {
		r.Close()
		w.Close()
		origFile.Close()
		return err
	}

	pipeR, pipeW = r, w
	realFd = 2
	started = true

	go forward(r)
	return nil
}

func forward(r *os.File) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case Messages <- scanner.Text():
		default:
		}
	}
}

// WriteOriginal writes msg to the terminal's real stderr, bypassing the
// redirect, so presenter code can still surface errors normally.
func WriteOriginal(msg string) {
	mu.Lock()
	f := origFile
	mu.Unlock()
	if f != nil {
		_, _ = f.WriteString(msg)
		return
	}
	_, _ = os.Stderr.WriteString(msg)
}

// Stop restores fd 2 to its original destination and closes the pipe.
func Stop() {
	mu.Lock()
	defer mu.Unlock()
	if !started {
		return
	}
	if origFile != nil {
		unix.Dup2(int(origFile.Fd()), realFd)
		origFile.Close()
		origFile = nil
	}
	if pipeW != nil {
		pipeW.Close()
		pipeW = nil
	}
	if pipeR != nil {
		pipeR.Close()
		pipeR = nil
	}
	started = false
}
