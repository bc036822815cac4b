package types

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// ParallelOutput holds the latest status line of a running experiment
type ParallelOutput struct {
	mu        sync.Mutex
	printable string
	running   bool
}

func NewParallelOutput() *ParallelOutput {
	return &ParallelOutput{}
}

// Set the output string and mark the output as running
func (p *ParallelOutput) Set(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printable = s
	p.running = true
}

func (p *ParallelOutput) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printable
}

func (p *ParallelOutput) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// TerminalPrinter periodically redraws the status lines of the outputs in place
type TerminalPrinter struct {
	outputs   []*ParallelOutput
	frequency time.Duration

	writer  *uilive.Writer
	writers []io.Writer
	done    chan struct{}
	stopped sync.WaitGroup
}

func NewTerminalPrinter(out io.Writer, outputs []*ParallelOutput, frequency time.Duration) *TerminalPrinter {
	writer := uilive.New()
	writer.Out = out
	writers := make([]io.Writer, len(outputs))
	for i := range outputs {
		if i == 0 {
			writers[i] = writer
			continue
		}
		writers[i] = writer.Newline()
	}
	return &TerminalPrinter{
		outputs:   outputs,
		frequency: frequency,
		writer:    writer,
		writers:   writers,
		done:      make(chan struct{}),
	}
}

// Start redraws until ctx is done or Stop is called
func (p *TerminalPrinter) Start(ctx context.Context) {
	p.stopped.Add(1)
	go func() {
		defer p.stopped.Done()
		ticker := time.NewTicker(p.frequency)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				p.print()
				return
			case <-p.done:
				p.print()
				return
			case <-ticker.C:
				p.print()
			}
		}
	}()
}

// Stop prints a last time and waits for the printer to exit
func (p *TerminalPrinter) Stop() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	p.stopped.Wait()
}

func (p *TerminalPrinter) print() {
	for i, output := range p.outputs {
		if !output.Running() {
			continue
		}
		fmt.Fprintln(p.writers[i], output.Get())
	}
	p.writer.Flush()
}
