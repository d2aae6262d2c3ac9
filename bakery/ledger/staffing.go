package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/telemetry"
)

// Slots returns the number of worker slots in a discipline. It never changes during a run.
func (l *Ledger) Slots(d core.Discipline) int {
	l.staffingMu.Lock()
	defer l.staffingMu.Unlock()

	return len(l.slots[d])
}

// RoleOf returns the role currently assigned to a worker slot.
func (l *Ledger) RoleOf(d core.Discipline, slot int) (core.Role, bool) {
	l.staffingMu.Lock()
	defer l.staffingMu.Unlock()

	if slot < 0 || slot >= len(l.slots[d]) {
		return 0, false
	}

	return l.slots[d][slot], true
}

// Workers returns the current headcount of a role.
func (l *Ledger) Workers(role core.Role) int {
	l.staffingMu.Lock()
	defer l.staffingMu.Unlock()

	n := 0
	for _, r := range l.slots[role.Discipline()] {
		if r == role {
			n++
		}
	}

	return n
}

// ReassignWorkers moves count workers from one role to another of the same discipline. The moved slots pick
// up their new role on their next loop iteration. A request the donor cannot cover changes nothing and is
// logged as rejected.
func (l *Ledger) ReassignWorkers(ctx context.Context, from, to core.Role, count int, reason string) error {
	if count <= 0 {
		return ErrInvalidCount
	}

	if from.Discipline() != to.Discipline() {
		return fmt.Errorf("%w: %s -> %s", ErrCrossDiscipline, from, to)
	}

	if from == to {
		return nil
	}

	available, moved := l.relabel(from, to, count)

	if !moved {
		l.observer.Warn(ctx, logMsgReassignRejected,
			logAttrFromRole, from.String(),
			logAttrToRole, to.String(),
			logAttrCount, count,
			logAttrAvailable, available,
		)

		return fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientWorkers, from, available, count)
	}

	l.observer.Info(ctx, logMsgReassigned,
		logAttrFromRole, from.String(),
		logAttrToRole, to.String(),
		logAttrCount, count,
		logAttrReason, reason,
	)

	l.observer.Count(ctx, telemetry.MetricReassignments, map[string]string{
		telemetry.LabelFromRole: from.String(),
		telemetry.LabelToRole:   to.String(),
	})

	l.observer.Record(core.BuildWorkersReassigned(from, to, count, reason, time.Now()))

	return nil
}

// relabel moves the last count slots of from over to to, or none.
func (l *Ledger) relabel(from, to core.Role, count int) (int, bool) {
	l.staffingMu.Lock()
	defer l.staffingMu.Unlock()

	slots := l.slots[from.Discipline()]

	available := 0
	for _, r := range slots {
		if r == from {
			available++
		}
	}

	if available < count {
		return available, false
	}

	for i := len(slots) - 1; i >= 0 && count > 0; i-- {
		if slots[i] == from {
			slots[i] = to
			count--
		}
	}

	return available, true
}
