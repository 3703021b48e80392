package orders

import "testing"

func TestStatusFromProvider(t *testing.T) {
	cases := []struct {
		in   string
		want Status
	}{
		{"approved", StatusApproved},
		{"failure", StatusRejected},
		{"pending", StatusPending},
		{"in_process", StatusPending},
		{"", StatusPending},
		{"nonsense", StatusPending},
	}
	for _, c := range cases {
		if got := StatusFromProvider(c.in); got != c.want {
			t.Errorf("StatusFromProvider(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
