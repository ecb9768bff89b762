package dom

// Event is an interaction delivered to listeners.
type Event struct {
	Type          string // Event name, e.g. "click"
	Target        *Node  // Node the interaction happened on
	CurrentTarget *Node  // Node whose listener is running
}

// Listener handles an event.
type Listener func(e *Event)

// AddEventListener registers fn for events of the given name on n.
func (n *Node) AddEventListener(name string, fn Listener) {
	if n.handlers == nil {
		n.handlers = make(map[string][]Listener)
	}
	n.handlers[name] = append(n.handlers[name], fn)
}

// Listens reports whether n has at least one listener for name.
func (n *Node) Listens(name string) bool {
	return len(n.handlers[name]) > 0
}

// EventNames returns the names n has listeners for.
func (n *Node) EventNames() []string {
	if len(n.handlers) == 0 {
		return nil
	}
	names := make([]string, 0, len(n.handlers))
	for name := range n.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatch fires an event of the given name at n. The event bubbles from
// n up through its ancestors; every listener along the way runs once.
// Dispatch returns the number of listeners invoked.
func (n *Node) Dispatch(name string) int {
	e := &Event{Type: name, Target: n}

	// Collect the propagation path up front so listeners that mutate the
	// tree do not change who receives this event.
	var path []*Node
	for p := n; p != nil; p = p.parent {
		path = append(path, p)
	}

	invoked := 0
	for _, cur := range path {
		fns := cur.handlers[name]
		if len(fns) == 0 {
			continue
		}
		e.CurrentTarget = cur
		for _, fn := range append([]Listener(nil), fns...) {
			fn(e)
			invoked++
		}
	}
	return invoked
}
