package tiers

import (
	"errors"
	"testing"
)

func ranks(vals ...float64) []point {
	out := make([]point, len(vals))
	for i, v := range vals {
		out[i] = point{value: v}
	}
	return out
}

func TestPartitionGap(t *testing.T) {
	starts, err := partition(ranks(1, 2, 3, 20), 8, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(starts) != 2 || starts[0] != 0 || starts[1] != 3 {
		t.Fatalf("expected runs starting at [0 3], got %v", starts)
	}
}

func TestPartitionTwoClusters(t *testing.T) {
	starts, err := partition(ranks(1, 2, 3, 4, 5, 30, 31, 32, 33, 34), 8, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(starts) != 2 || starts[1] != 5 {
		t.Fatalf("expected two runs split at 5, got %v", starts)
	}
}

func TestPartitionUsesDispersion(t *testing.T) {
	pts := []point{{1, 0}, {2, 0}, {3, 10}, {4, 10}}
	starts, err := partition(pts, 8, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(starts) != 2 || starts[1] != 2 {
		t.Fatalf("expected split at 2, got %v", starts)
	}
}

func TestPartitionRespectsMaxK(t *testing.T) {
	starts, err := partition(ranks(1, 10, 20, 30, 40, 50), 2, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(starts) > 2 {
		t.Fatalf("expected at most 2 runs, got %v", starts)
	}
}

func TestPartitionDegenerate(t *testing.T) {
	for name, pts := range map[string][]point{
		"empty":     nil,
		"single":    ranks(1),
		"identical": ranks(4, 4, 4),
	} {
		starts, err := partition(pts, 8, 1)
		if !errors.Is(err, ErrDegenerateInput) {
			t.Fatalf("%s: expected ErrDegenerateInput, got %v", name, err)
		}
		if len(starts) != 1 || starts[0] != 0 {
			t.Fatalf("%s: expected single run, got %v", name, starts)
		}
	}
}

func TestPrefixSSE(t *testing.T) {
	p := newPrefix(ranks(1, 2, 3))
	if got := p.sse(0, 3); got != 2 {
		t.Fatalf("expected SSE 2, got %v", got)
	}
	if got := p.sse(1, 2); got != 0 {
		t.Fatalf("expected SSE 0 for a single point, got %v", got)
	}
}
