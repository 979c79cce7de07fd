package events

// EventCollector is embedded in aggregates to buffer the events raised by a
// state transition until the application layer drains them for publishing.
type EventCollector struct {
	pending []DomainEvent
}

// Record buffers one or more events in the order given.
func (c *EventCollector) Record(evts ...DomainEvent) {
	c.pending = append(c.pending, evts...)
}

// Events returns the buffered events without clearing them.
func (c *EventCollector) Events() []DomainEvent {
	return c.pending
}

// Drain returns the buffered events and empties the buffer. It returns nil
// when nothing was recorded.
func (c *EventCollector) Drain() []DomainEvent {
	drained := c.pending
	c.pending = nil
	return drained
}
