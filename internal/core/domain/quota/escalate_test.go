package quota_test

import (
	"testing"
	"time"

	"github.com/quotagate/quotagate/internal/core/domain/quota"
)

func TestEscalate_Ladder(t *testing.T) {
	cases := []struct {
		violations int
		want       time.Duration
	}{
		{0, 0},
		{1, 0},
		{4, 0},
		{5, 5 * time.Minute},
		{9, 5 * time.Minute},
		{10, 15 * time.Minute},
		{19, 15 * time.Minute},
		{20, time.Hour},
		{49, time.Hour},
		{50, 24 * time.Hour},
		{1000, 24 * time.Hour},
	}
	for _, tc := range cases {
		if got := quota.Escalate(tc.violations); got != tc.want {
			t.Errorf("Escalate(%d) = %v, want %v", tc.violations, got, tc.want)
		}
	}
}

func TestEscalate_Monotonic(t *testing.T) {
	prev := time.Duration(0)
	for v := 0; v <= 100; v++ {
		cur := quota.Escalate(v)
		if cur < prev {
			t.Fatalf("Escalate(%d) = %v decreased below Escalate(%d) = %v", v, cur, v-1, prev)
		}
		prev = cur
	}
}

func TestEscalate_Deterministic(t *testing.T) {
	for v := 0; v <= 60; v++ {
		if quota.Escalate(v) != quota.Escalate(v) {
			t.Fatalf("Escalate(%d) is not deterministic", v)
		}
	}
}
