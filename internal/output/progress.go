package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// writerIsTTY returns true if the given writer exposes an Fd() method
// (e.g. *os.File) and that fd is a terminal. Falls back to false for
// plain io.Writer values such as *bytes.Buffer.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// ProgressBar displays a progress bar with percentage and description.
// Example: [=========>          ] 45% Removing packages
type ProgressBar struct {
	mu          sync.Mutex
	total       int
	current     int
	description string
	width       int
	writer      io.Writer
}

// NewProgress creates a new progress bar writing to stderr.
func NewProgress(total int, description string) *ProgressBar {
	return &ProgressBar{
		total:       total,
		description: description,
		width:       40,
		writer:      os.Stderr,
	}
}

// SetWriter sets the output writer (useful for testing).
func (p *ProgressBar) SetWriter(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer = w
}

// Increment advances the bar by one step.
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set(p.current + 1)
}

// SetCurrent sets the current progress value and redraws the bar.
func (p *ProgressBar) SetCurrent(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set(current)
}

func (p *ProgressBar) set(current int) {
	if current > p.total {
		current = p.total
	}
	if current < 0 {
		current = 0
	}
	p.current = current
	p.render()
}

// Finish completes the bar. On a terminal it ends the line; elsewhere the
// single completion line is written if it was not already.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	wasDone := p.current == p.total
	p.current = p.total

	if writerIsTTY(p.writer) {
		p.render()
		fmt.Fprintln(p.writer)
		return
	}
	if !wasDone {
		p.render()
	}
}

// render draws the bar. Must be called with the lock held. Non-terminal
// writers only get a line on completion.
func (p *ProgressBar) render() {
	if writerIsTTY(p.writer) {
		fmt.Fprintf(p.writer, "\r%s %s", p.bar(), p.description)
		return
	}
	if p.current == p.total {
		fmt.Fprintf(p.writer, "%s %s\n", p.bar(), p.description)
	}
}

// bar formats the bar and percentage, e.g. "[====>     ]  50%".
func (p *ProgressBar) bar() string {
	percentage, filled := 0, 0
	if p.total > 0 {
		percentage = p.current * 100 / p.total
		filled = p.current * p.width / p.total
	}

	bar := strings.Repeat("=", max(filled-1, 0))
	if filled > 0 {
		bar += ">"
	}
	return fmt.Sprintf("[%s%s] %3d%%", bar, strings.Repeat(" ", p.width-len(bar)), percentage)
}

// Spinner displays an animated spinner with a message and elapsed time.
// Example: |  Scanning installed software (3s)
type Spinner struct {
	mu      sync.Mutex
	message string
	frames  []string
	writer  io.Writer
	running bool
	started time.Time
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewSpinner creates a new spinner writing to stderr.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		frames:  []string{"|", "/", "-", "\\"},
		writer:  os.Stderr,
	}
}

// SetWriter sets the output writer (useful for testing).
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
}

// Start begins the spinner animation.
// On a non-TTY writer the animation goroutine is not started; the message
// is printed once instead so that non-interactive output stays clean.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.started = time.Now()

	if !writerIsTTY(s.writer) {
		fmt.Fprintf(s.writer, "%s...\n", s.message)
		return
	}

	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.animate(s.done)
}

func (s *Spinner) animate(done <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ticker.C:
			s.mu.Lock()
			fmt.Fprintf(s.writer, "\r%s  %s", s.frames[i%len(s.frames)], s.line())
			s.mu.Unlock()
		case <-done:
			return
		}
	}
}

// line returns the message with elapsed seconds. Must be called with the
// lock held.
func (s *Spinner) line() string {
	return fmt.Sprintf("%s (%ds)", s.message, int(time.Since(s.started).Seconds()))
}

// Stop stops the spinner animation and clears the line. It is safe to call
// more than once.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	done := s.done
	s.done = nil
	s.mu.Unlock()

	if done == nil {
		return
	}
	close(done)
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.writer, "\r%s\r", strings.Repeat(" ", len(s.line())+4))
}

// UpdateMessage updates the spinner message while it's running.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// StopWithMessage stops the spinner and displays a final message.
func (s *Spinner) StopWithMessage(message string) {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.writer, message)
}
