package ui

import (
	"fmt"
	"time"
)

const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a one-line progress indicator while a slow operation
// (endpoint benchmarks, multi-token scans) runs. It is not a bubbletea model;
// full-screen views build their own from charmbracelet/bubbles.
type Spinner struct {
	msg  string
	stop chan struct{}
	done chan struct{}
}

// NewSpinner creates a new spinner with the given message.
func NewSpinner(msg string) *Spinner {
	return &Spinner{
		msg:  msg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start begins the spinner animation in a goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.done)
		tick := time.NewTicker(spinnerInterval)
		defer tick.Stop()
		frame := 0
		s.draw(frame)
		for {
			select {
			case <-s.stop:
				// Clear the whole line: frame rune, two spaces, message.
				fmt.Printf("\r%*s\r", len(s.msg)+3, "")
				return
			case <-tick.C:
				frame++
				s.draw(frame)
			}
		}
	}()
}

func (s *Spinner) draw(frame int) {
	glyph := StyleAccent.Render(spinnerFrames[frame%len(spinnerFrames)])
	fmt.Printf("\r%s  %s", glyph, s.msg)
}

// Stop halts the spinner and waits for the line to be cleared.
func (s *Spinner) Stop() {
	close(s.stop)
	<-s.done
}

// StopWithMsg halts the spinner and prints a final message in its place.
func (s *Spinner) StopWithMsg(msg string) {
	s.Stop()
	fmt.Println(msg)
}
