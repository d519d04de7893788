package sim

// IDGenerator hands out monotonically increasing integer ids.
//
// Generators are owned by whoever owns the id space (the simulation kernel for
// agent, resource and request ids; a portfolio for its constraint ids) and
// passed down explicitly. There is no process-wide counter.
//
// Thread-safety: NOT thread-safe. The exchange runs on a single goroutine.
type IDGenerator struct {
	next int
}

// NewIDGenerator creates a generator whose first id is start.
func NewIDGenerator(start int) *IDGenerator {
	return &IDGenerator{next: start}
}

// Next returns the next id.
func (g *IDGenerator) Next() int {
	id := g.next
	g.next++
	return id
}

// Peek returns the id the next call to Next will return.
func (g *IDGenerator) Peek() int {
	return g.next
}
