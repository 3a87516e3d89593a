package lookup

import (
	"strings"

	"github.com/nao1215/vtlookup/internal/ioc"
)

// pendingBatch accumulates validated observables of one type until it is
// flushed.
type pendingBatch struct {
	entry ioc.Entry

	// values are the observables in input order.
	values []string

	// index maps an observable to its source index. If the same value is
	// added twice the later source index wins.
	index map[string]string
}

func newPendingBatch(entry ioc.Entry) *pendingBatch {
	b := &pendingBatch{entry: entry}
	b.reset()
	return b
}

// add appends a value and records where it came from.
func (b *pendingBatch) add(value, sourceIndex string) {
	b.values = append(b.values, value)
	b.index[value] = sourceIndex
}

// shouldFlush reports whether the batch must be submitted now: it is full,
// or the current row is the type's last, and it is not empty.
func (b *pendingBatch) shouldFlush(lastRow bool) bool {
	full := len(b.values) >= b.entry.Descriptor.BatchSize
	return (full || lastRow) && len(b.values) > 0
}

// submission joins the values into one request value.
func (b *pendingBatch) submission() string {
	return strings.Join(b.values, b.entry.Descriptor.Delimiter)
}

// contextIndex returns the source index a response without per-element
// resources is attributed to. A batch with one distinct value always uses
// that value's index; otherwise the flushing row's index is used.
func (b *pendingBatch) contextIndex(current string) string {
	if len(b.index) == 1 {
		for _, idx := range b.index {
			return idx
		}
	}
	return current
}

func (b *pendingBatch) reset() {
	b.values = make([]string, 0, b.entry.Descriptor.BatchSize)
	b.index = make(map[string]string, b.entry.Descriptor.BatchSize)
}
