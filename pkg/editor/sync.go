package editor

import (
	"context"

	"github.com/coreseekdev/texere/pkg/ot"
)

// Sync drives one round of the cooperative-coalescence algorithm:
// submit the oldest pending change set if one exists,
// pull any new remote revisions, and transform everything the engine
// still holds locally (the rest of the pending log, the undo/redo
// stacks, an open current change, and the selection) past what came
// back. If another call is already running, this one is a no-op —
// sync_running is the single flag both guard on, so concurrent callers
// coalesce onto whichever call is in flight rather than racing the
// server twice. A submit that discovers newer remote revisions than the
// client knew about retries exactly once, after loading them, since the
// client's on_revision_number cursor only advances within this loop.
func (e *Editor) Sync(ctx context.Context) error {
	if e.syncRunning {
		return nil
	}
	e.syncRunning = true
	defer func() { e.syncRunning = false }()

	retry := true
	for attempt := 0; attempt < 2 && retry; attempt++ {
		retry = false

		if err := e.flushIfExpired(); err != nil {
			return err
		}

		if front := e.pending.Front(); front != nil {
			outcome, err := e.committed.CommitLocalChangeSet(ctx, front)
			if err != nil {
				return err
			}
			switch outcome {
			case ot.Ack:
				e.pending.PopFront()
			case ot.DiscoveredNewRevisions:
				retry = true
			}
		}

		remote, _, _, err := e.committed.LoadNewRemoteRevisions(ctx)
		if err != nil {
			return err
		}
		if remote == nil {
			continue
		}

		remote, err = e.pending.Transform(remote)
		if err != nil {
			return err
		}
		if err := e.undo.Transform(remote); err != nil {
			return err
		}
		if e.current != nil {
			// PriorSelection sits on the same document state as the
			// current change's base, so it moves with the remote as seen
			// before the current change, not after.
			e.current.PriorSelection = ot.TransformSelection(e.current.PriorSelection, remote)
			remotePrime, currentPrime, err := ot.Transform(remote, e.current.ChangeSet)
			if err != nil {
				return err
			}
			e.current.ChangeSet = currentPrime
			remote = remotePrime
		}
		e.selection = ot.TransformSelection(e.selection, remote)
	}
	return nil
}
