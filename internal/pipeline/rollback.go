package pipeline

import (
	"fmt"
	"sync"
)

// tracker records which side effects of a run are committed, so rollback
// knows what to undo and an interrupt knows what to report. It is read
// from the signal goroutine, hence the lock.
type tracker struct {
	mu sync.Mutex

	definitionPath string
	linkPath       string

	fileWritten bool
	linkEnabled bool
	reloaded    bool

	// previous holds the definition this run replaced, nil for a new site.
	previous       *string
	previousLinked bool
}

func (t *tracker) set(f func(t *tracker)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f(t)
}

// committed lists the paths this run has created or replaced.
func (t *tracker) committed() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var paths []string
	if t.fileWritten {
		paths = append(paths, t.definitionPath)
	}
	if t.linkEnabled {
		paths = append(paths, t.linkPath)
	}
	return paths
}

// rollback undoes the committed side effects in reverse order: the link
// goes first, then the definition. A replaced definition is restored
// instead of removed. Every failure is logged and collected; none stops
// the remaining steps.
func (r *run) rollback() []error {
	drv := r.p.deps.Driver
	id := r.site.Identifier
	t := r.track

	t.mu.Lock()
	previous, previousLinked, reloaded := t.previous, t.previousLinked, t.reloaded
	t.mu.Unlock()

	r.p.out.Warn("Rolling back %s", id)
	r.log.WarnFields("rolling back", map[string]interface{}{
		"site":      id,
		"overwrite": previous != nil,
		"reloaded":  reloaded,
	})

	var errs []error
	note := func(op string, err error) {
		if err == nil {
			return
		}
		r.log.ErrorFields("rollback step failed", map[string]interface{}{"site": id, "op": op, "error": err})
		r.p.out.Warn("Rollback %s failed: %v", op, err)
		errs = append(errs, fmt.Errorf("%s: %w", op, err))
	}

	if previous != nil {
		if !previousLinked {
			note("disable", drv.Disable(id))
		}
		note("restore", drv.Write(id, *previous))
	} else {
		// Delete, not Remove: the file goes even when the link could not.
		note("disable", drv.Disable(id))
		note("delete", drv.Delete(id))
	}
	if reloaded {
		note("reload", drv.Reload())
	}

	t.set(func(t *tracker) {
		t.fileWritten, t.linkEnabled, t.reloaded = false, false, false
	})
	return errs
}
