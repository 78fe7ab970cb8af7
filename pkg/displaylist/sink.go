package displaylist

import "sync"

// PaintSink consumes display lists. Implementations rasterize, build
// native widgets or record.
type PaintSink interface {
	Paint(l *List) error
}

// Recorder is a PaintSink that keeps every list it is given.
type Recorder struct {
	mu    sync.Mutex
	lists []*List
}

func (r *Recorder) Paint(l *List) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists = append(r.lists, l)
	return nil
}

// Lists returns the recorded lists, oldest first.
func (r *Recorder) Lists() []*List {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*List(nil), r.lists...)
}

// Last returns the most recent list, nil before the first paint.
func (r *Recorder) Last() *List {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lists) == 0 {
		return nil
	}
	return r.lists[len(r.lists)-1]
}
