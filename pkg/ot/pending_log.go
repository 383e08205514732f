package ot

// PendingLog is the client-local FIFO of change sets produced by local
// edits that the server has not yet acknowledged. The front of the queue
// is the change currently being submitted, or the next one to submit.
type PendingLog struct {
	changeSets []*Operation
}

// NewPendingLog creates an empty pending log.
func NewPendingLog() *PendingLog {
	return &PendingLog{}
}

// Front returns the oldest unconfirmed change set, or nil if empty.
func (p *PendingLog) Front() *Operation {
	if len(p.changeSets) == 0 {
		return nil
	}
	return p.changeSets[0]
}

// PushBack enqueues a newly-created local change set.
func (p *PendingLog) PushBack(cs *Operation) {
	p.changeSets = append(p.changeSets, cs)
}

// PopFront removes and returns the oldest change set, or nil if empty.
func (p *PendingLog) PopFront() *Operation {
	if len(p.changeSets) == 0 {
		return nil
	}
	cs := p.changeSets[0]
	p.changeSets = p.changeSets[1:]
	return cs
}

// BackMut returns the most recently queued change set, or nil if empty.
// To replace that entry (e.g. after composing a new local edit into it),
// the caller passes the result to SetBack.
func (p *PendingLog) BackMut() *Operation {
	if len(p.changeSets) == 0 {
		return nil
	}
	return p.changeSets[len(p.changeSets)-1]
}

// SetBack replaces the most recently queued change set.
func (p *PendingLog) SetBack(cs *Operation) {
	if len(p.changeSets) == 0 {
		p.changeSets = append(p.changeSets, cs)
		return
	}
	p.changeSets[len(p.changeSets)-1] = cs
}

// Len returns the number of unconfirmed change sets.
func (p *PendingLog) Len() int {
	return len(p.changeSets)
}

// IsEmpty reports whether the pending log has no unconfirmed change sets.
func (p *PendingLog) IsEmpty() bool {
	return len(p.changeSets) == 0
}

// Compress composes every queued change set into a single entry. Used
// when the queue grows without being drained, to bound memory and the
// cost of future Transform calls.
func (p *PendingLog) Compress() error {
	if len(p.changeSets) == 0 {
		return nil
	}
	composed := p.changeSets[0]
	for _, cs := range p.changeSets[1:] {
		var err error
		composed, err = Compose(composed, cs)
		if err != nil {
			return err
		}
	}
	p.changeSets = []*Operation{composed}
	return nil
}

// ComposeRange returns the composition of the change sets in [start, end),
// or nil if the range is empty or out of bounds.
func (p *PendingLog) ComposeRange(start, end int) (*Operation, error) {
	if start < 0 || start >= len(p.changeSets) || end <= start {
		return nil, nil
	}
	if end > len(p.changeSets) {
		end = len(p.changeSets)
	}
	composed := p.changeSets[start]
	for _, cs := range p.changeSets[start+1 : end] {
		var err error
		composed, err = Compose(composed, cs)
		if err != nil {
			return nil, err
		}
	}
	return composed, nil
}

// Transform rewrites every queued change set in place against a remote
// change, and returns the remote change carried forward past all of
// them: for local changes L1..LN and remote R, this produces L1'..LN'
// and returns R' such that R * L1' * ... * LN' == L1 * ... * LN * R'.
// The caller uses the returned R' to transform anything that logically
// sits after the pending log — the current change, the selection, the
// undo/redo stacks.
func (p *PendingLog) Transform(remote *Operation) (*Operation, error) {
	for i, cs := range p.changeSets {
		remotePrime, csPrime, err := Transform(remote, cs)
		if err != nil {
			return nil, err
		}
		p.changeSets[i] = csPrime
		remote = remotePrime
	}
	return remote, nil
}

// DebugLines renders one diagnostic line per queued change set, for
// debug overlays and log output.
func (p *PendingLog) DebugLines() []string {
	lines := make([]string, len(p.changeSets))
	for i, cs := range p.changeSets {
		lines[i] = cs.String()
	}
	return lines
}
