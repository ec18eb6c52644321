package entity

import (
	"testing"
	"time"
)

func TestProgressForStatus(t *testing.T) {
	cases := []struct {
		status SignalementStatus
		want   int
	}{
		{StatusNew, 0},
		{StatusInProgress, 50},
		{StatusDone, 100},
		{SignalementStatus("UNKNOWN"), 0},
	}
	for _, c := range cases {
		if got := ProgressForStatus(c.status); got != c.want {
			t.Errorf("ProgressForStatus(%s) = %d, want %d", c.status, got, c.want)
		}
	}
}

func TestClampSeverityLevel(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 1},
		{-3, 1},
		{1, 1},
		{5, 5},
		{10, 10},
		{15, 10},
	}
	for _, c := range cases {
		if got := ClampSeverityLevel(c.in); got != c.want {
			t.Errorf("ClampSeverityLevel(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestUserLockUnlock(t *testing.T) {
	u := &User{LoginAttempts: 3}
	now := time.Now()

	u.Lock(now)
	if !u.IsLocked || u.LockedAt == nil || !u.LockedAt.Equal(now) {
		t.Errorf("Lock devrait poser IsLocked et LockedAt")
	}

	u.Unlock()
	if u.IsLocked || u.LockedAt != nil || u.LoginAttempts != 0 {
		t.Errorf("Unlock devrait tout réinitialiser, got locked=%v attempts=%d", u.IsLocked, u.LoginAttempts)
	}
}
