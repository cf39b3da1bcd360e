package controller

// Observer receives controller events. OnEvent runs on the goroutine that
// caused the event, often the capture loop, and must not block or call back
// into the controller.
type Observer interface {
	OnEvent(event Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(event Event)

// OnEvent calls f
func (f ObserverFunc) OnEvent(event Event) {
	f(event)
}

// FilteredObserver forwards only the listed event types
type FilteredObserver struct {
	types    map[string]struct{}
	Observer Observer
}

// NewFilteredObserver wraps observer so it only sees eventTypes
func NewFilteredObserver(observer Observer, eventTypes ...string) *FilteredObserver {
	types := make(map[string]struct{}, len(eventTypes))
	for _, t := range eventTypes {
		types[t] = struct{}{}
	}
	return &FilteredObserver{types: types, Observer: observer}
}

// OnEvent forwards event when its type was listed
func (f *FilteredObserver) OnEvent(event Event) {
	if _, ok := f.types[event.GetType()]; ok {
		f.Observer.OnEvent(event)
	}
}
