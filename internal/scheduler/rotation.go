package scheduler

// RotationState is threaded through every tick. ViewToggle false shows the
// temperature view, true the clock view.
type RotationState struct {
	ViewToggle  bool
	TickCounter int
}

// Advance counts one dispatched frame and flips the view once the counter
// exceeds hold.
func (r RotationState) Advance(hold int) RotationState {
	r.TickCounter++
	if r.TickCounter > hold {
		r.ViewToggle = !r.ViewToggle
		r.TickCounter = 0
	}
	return r
}
