// Package scan turns a stream of decoded barcodes into invoice items. It
// suppresses repeated reads of a code that is still in front of the scanner
// and links a second device to a draft invoice.
package scan

import (
	"sync"
	"time"
)

// DefaultCooldown is how long the same code is ignored after it was added.
const DefaultCooldown = 2 * time.Second

// Debouncer suppresses a code that was successfully added less than the
// cooldown ago. Any other code passes.
type Debouncer struct {
	cooldown time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last string
	at   time.Time
}

func NewDebouncer(cooldown time.Duration) *Debouncer {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Debouncer{cooldown: cooldown, now: time.Now}
}

// WithClock replaces time.Now, for tests.
func (d *Debouncer) WithClock(now func() time.Time) *Debouncer {
	d.now = now
	return d
}

// Allow reports whether code should be forwarded.
func (d *Debouncer) Allow(code string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code != d.last {
		return true
	}
	return d.now().Sub(d.at) >= d.cooldown
}

// Record starts the cooldown for code.
func (d *Debouncer) Record(code string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = code
	d.at = d.now()
}
