package models

// StoredQueue is the unit of persistence: one document per guild holding
// the whole queue state. Backends read and write it whole unless they
// support targeted per-field operations.
type StoredQueue struct {
	Current  *Track   `json:"current"`
	Previous []*Track `json:"previous"`
	Tracks   []*Track `json:"tracks"`
}

// Normalize replaces nil lists with empty ones so loaders never hand out
// a partially-absent document.
func (q *StoredQueue) Normalize() {
	if q.Previous == nil {
		q.Previous = []*Track{}
	}
	if q.Tracks == nil {
		q.Tracks = []*Track{}
	}
}

// Clone returns a snapshot copy: lists reallocated, current and every
// element shallow-cloned. Watchers receive these so they can never alias
// live queue state.
func (q *StoredQueue) Clone() *StoredQueue {
	if q == nil {
		return nil
	}
	c := &StoredQueue{
		Current:  q.Current.Clone(),
		Previous: make([]*Track, len(q.Previous)),
		Tracks:   make([]*Track, len(q.Tracks)),
	}
	for i, t := range q.Previous {
		c.Previous[i] = t.Clone()
	}
	for i, t := range q.Tracks {
		c.Tracks[i] = t.Clone()
	}
	return c
}
