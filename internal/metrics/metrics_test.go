package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveIncrementsOutcomeCounter(t *testing.T) {
	before := testutil.ToFloat64(LogosByOutcome.WithLabelValues("pecho", "FoundPrimary"))
	confidence := 0.92
	inliers := 14
	Observe("pecho", "FoundPrimary", true, 12.5, &confidence, &inliers)
	after := testutil.ToFloat64(LogosByOutcome.WithLabelValues("pecho", "FoundPrimary"))

	if after != before+1 {
		t.Errorf("LogosByOutcome did not increment: before=%v after=%v", before, after)
	}
}

func TestObserveSkipsConfidenceWhenNotFound(t *testing.T) {
	beforeCount := testutil.CollectAndCount(Confidence)
	Observe("manga_izq", "NotFound/RoiOutside", false, 0.1, nil, nil)
	afterCount := testutil.CollectAndCount(Confidence)

	if afterCount != beforeCount {
		t.Errorf("expected Confidence histogram series count unchanged for a not-found result")
	}
}
