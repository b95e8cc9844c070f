package player

// HandleEvent feeds ev to the binder synchronously.
func (b *Binder) HandleEvent(ev MediaEvent) { b.handleEvent(ev) }
