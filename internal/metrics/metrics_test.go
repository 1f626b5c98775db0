package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200"))
	RecordHTTPRequest("GET", "/healthz", 200, 5*time.Millisecond)
	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")); got != before+1 {
		t.Fatalf("expected counter to increase by one, got %v -> %v", before, got)
	}
}

func TestRecordOutboundWebhook(t *testing.T) {
	RecordOutboundWebhook("reply", nil)
	RecordOutboundWebhook("reply", errors.New("boom"))
	if testutil.ToFloat64(OutboundWebhooks.WithLabelValues("reply", "success")) < 1 {
		t.Fatalf("success not recorded")
	}
	if testutil.ToFloat64(OutboundWebhooks.WithLabelValues("reply", "failure")) < 1 {
		t.Fatalf("failure not recorded")
	}
}
