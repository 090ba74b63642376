package trip

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"REQUESTED", StatusRequested, false},
		{"accepted", StatusAccepted, false},
		{" started ", StatusStarted, false},
		{"Completed", StatusCompleted, false},
		{"CANCELLED", StatusCancelled, false},
		{"", "", true},
		{"DONE", "", true},
	}
	for _, tc := range cases {
		got, err := ParseStatus(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidStatus) {
				t.Errorf("ParseStatus(%q) err = %v, want ErrInvalidStatus", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseStatus(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestCanTransitionTo(t *testing.T) {
	allowed := map[Status][]Status{
		StatusRequested: {StatusAccepted, StatusCancelled},
		StatusAccepted:  {StatusStarted, StatusCancelled},
		StatusStarted:   {StatusCompleted, StatusCancelled},
		StatusCompleted: {},
		StatusCancelled: {},
	}
	all := []Status{StatusRequested, StatusAccepted, StatusStarted, StatusCompleted, StatusCancelled}

	for from, tos := range allowed {
		ok := make(map[Status]bool, len(tos))
		for _, to := range tos {
			ok[to] = true
		}
		for _, to := range all {
			if got := from.CanTransitionTo(to); got != ok[to] {
				t.Errorf("%s -> %s = %v, want %v", from, to, got, ok[to])
			}
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []Status{StatusRequested, StatusAccepted, StatusStarted} {
		if s.Terminal() {
			t.Errorf("%s reported terminal", s)
		}
	}
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		if !s.Terminal() {
			t.Errorf("%s not reported terminal", s)
		}
	}
}
