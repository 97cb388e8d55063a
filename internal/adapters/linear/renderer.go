// Package linear provides a line-per-file progress renderer for compile batches.
package linear

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"github.com/travetto/travetto-sub016/internal/ui/style"
)

// Renderer implements ports.Renderer.
// It prints one line per planned batch and one line per finished file.
type Renderer struct {
	mu     sync.Mutex
	output *termenv.Output
	units  map[string]unitState
	tally  Tally
}

type unitState struct {
	name      string
	startTime time.Time
}

// Tally counts the files finished since the last plan.
type Tally struct {
	Compiled int
	Cached   int
	Failed   int
}

// NewRenderer creates a Renderer writing to w. A nil w writes to stderr.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{
		output: style.NewOutput(w),
		units:  make(map[string]unitState),
	}
}

// SetOutput redirects progress to w. io.Discard silences the renderer.
func (r *Renderer) SetOutput(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.output = style.NewOutput(w)
}

// Tally returns the counts of the current batch.
func (r *Renderer) Tally() Tally {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tally
}

// OnPlanEmit prints the number of planned files.
func (r *Renderer) OnPlanEmit(files []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tally = Tally{}
	if len(files) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.output, "%s compiling %d file(s)\n",
		style.Paint(r.output, style.Iris, style.Dot), len(files))
}

// OnUnitStart records the start of a file.
func (r *Renderer) OnUnitStart(spanID, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.units[spanID] = unitState{name: name, startTime: startTime}
}

// OnUnitComplete prints the outcome of a file.
func (r *Renderer) OnUnitComplete(spanID string, endTime time.Time, cached bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	unit, ok := r.units[spanID]
	if !ok {
		return
	}
	delete(r.units, spanID)
	duration := endTime.Sub(unit.startTime).Round(time.Millisecond)

	switch {
	case err != nil:
		r.tally.Failed++
		_, _ = fmt.Fprintf(r.output, "%s %s failed after %v: %v\n",
			style.Paint(r.output, style.Red, style.Cross), unit.name, duration, err)
	case cached:
		r.tally.Cached++
		_, _ = fmt.Fprintf(r.output, "%s %s cached\n",
			style.Paint(r.output, style.Slate, style.Tilde), unit.name)
	default:
		r.tally.Compiled++
		_, _ = fmt.Fprintf(r.output, "%s %s compiled in %v\n",
			style.Paint(r.output, style.Green, style.Check), unit.name, duration)
	}
}
