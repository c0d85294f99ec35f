package credential

import "sync/atomic"

// Holder is the in-process view of the current bearer token. The auth
// manager is its only writer; the API client reads it when attaching
// the Authorization header.
type Holder struct {
	v atomic.Value
}

func NewHolder() *Holder {
	h := &Holder{}
	h.v.Store("")
	return h
}

func (h *Holder) Set(token string) {
	h.v.Store(token)
}

func (h *Holder) Get() string {
	s, _ := h.v.Load().(string)
	return s
}
