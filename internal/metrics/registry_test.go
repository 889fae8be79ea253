package metrics

import "testing"

func TestRegistrySnapshot(t *testing.T) {
	reg := NewRegistry()

	reg.SetQueueGauges("m1", 100, 50)
	reg.SetQueueGauges("m2", 10, 5)
	reg.SetQueueGauges("m1", 80, 60) // gauges overwrite

	reg.AddAdmitted(3)
	reg.AddAdmitted(2)
	reg.AddTimedOut(4)
	reg.IncSeatConflicts()
	reg.IncBookings()
	reg.IncBookings()

	snap := reg.Snapshot()

	if snap.WaitingByMovie["m1"] != 80 || snap.ActiveByMovie["m1"] != 60 {
		t.Errorf("m1 gauges = %d/%d, want 80/60", snap.WaitingByMovie["m1"], snap.ActiveByMovie["m1"])
	}
	if snap.TotalWaiting != 90 || snap.TotalActive != 65 {
		t.Errorf("totals = %d/%d, want 90/65", snap.TotalWaiting, snap.TotalActive)
	}
	if snap.Admitted != 5 {
		t.Errorf("admitted = %d, want 5", snap.Admitted)
	}
	if snap.TimedOut != 4 {
		t.Errorf("timedOut = %d, want 4", snap.TimedOut)
	}
	if snap.SeatConflicts != 1 || snap.Bookings != 2 {
		t.Errorf("conflicts/bookings = %d/%d, want 1/2", snap.SeatConflicts, snap.Bookings)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	reg := NewRegistry()
	reg.SetQueueGauges("m1", 1, 1)

	snap := reg.Snapshot()
	snap.WaitingByMovie["m1"] = 999

	if reg.Snapshot().WaitingByMovie["m1"] != 1 {
		t.Error("mutating a snapshot leaked into the registry")
	}
}
