package limiter

// Slots caps the number of documents analyzed at the same time. Rendering
// and OCR are CPU-bound, so admitting unbounded requests only makes every
// one of them slower.
type Slots struct {
    sem chan struct{}
}

// New creates a limiter admitting at most max concurrent holders.
func New(max int) *Slots {
    if max <= 0 { max = 2 }
    return &Slots{sem: make(chan struct{}, max)}
}

// Allow tries to reserve a slot without blocking.
// Returns a release function and true if allowed; otherwise nil func, false.
func (s *Slots) Allow() (func(), bool) {
    select {
    case s.sem <- struct{}{}:
        return func() { <-s.sem }, true
    default:
        return func() {}, false
    }
}
