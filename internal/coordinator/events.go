package coordinator

import "github.com/pylens/pylens/internal/types"

// Observer receives coordinator events. Observers are called synchronously
// and in registration order; a slow observer delays delivery.
type Observer func(event string, payload types.EventPayload)

// Subscribe registers an observer for all coordinator events.
func (c *Coordinator) Subscribe(observer Observer) {
	c.obsMu.Lock()
	c.observers = append(c.observers, observer)
	c.obsMu.Unlock()
}

// emit delivers an event to every observer. A panicking observer is logged
// and does not prevent delivery to the rest.
func (c *Coordinator) emit(event string, payload types.EventPayload) {
	c.obsMu.RLock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.obsMu.RUnlock()

	for _, observer := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Printf("Observer panic on %s: %v", event, r)
				}
			}()
			observer(event, payload)
		}()
	}
}
