package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservePoints(t *testing.T) {
	before := testutil.ToFloat64(PointsAwarded.WithLabelValues(KindCompletion))
	ObservePoints(KindCompletion, 15)
	ObservePoints(KindCompletion, 0)
	ObservePoints(KindCompletion, -3)

	if got := testutil.ToFloat64(PointsAwarded.WithLabelValues(KindCompletion)) - before; got != 15 {
		t.Fatalf("points delta = %v, want 15", got)
	}
}

func TestObserveCompletionAndMilestone(t *testing.T) {
	before := testutil.ToFloat64(Completions.WithLabelValues("hero"))
	ObserveCompletion("hero", 7)
	if got := testutil.ToFloat64(Completions.WithLabelValues("hero")) - before; got != 1 {
		t.Fatalf("completions delta = %v, want 1", got)
	}

	before = testutil.ToFloat64(Milestones.WithLabelValues("30"))
	ObserveMilestone(30)
	if got := testutil.ToFloat64(Milestones.WithLabelValues("30")) - before; got != 1 {
		t.Fatalf("milestones delta = %v, want 1", got)
	}
}
