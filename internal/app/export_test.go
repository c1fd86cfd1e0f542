package app

// TrackedRooms reports how many room control entries the orchestrator holds.
func (o *Orchestrator) TrackedRooms() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.rooms)
}
