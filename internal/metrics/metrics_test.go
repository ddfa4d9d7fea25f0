package metrics

import "testing"

func TestRegistryInc(t *testing.T) {
	r := NewRegistry()
	r.Inc("glance/0", MetricEventProcessed)
	r.Inc("glance/0", MetricEventProcessed)
	r.Inc("glance/0", MetricWorkloadRestart)
	r.Inc("glance/1", MetricEventProcessed)

	snap := r.Snapshot()
	if got := snap["glance/0"]["events_processed"]; got != 2 {
		t.Errorf("events_processed = %d, want 2", got)
	}
	if got := snap["glance/0"]["workload_restarts"]; got != 1 {
		t.Errorf("workload_restarts = %d, want 1", got)
	}
	if got := snap["glance/1"]["events_processed"]; got != 1 {
		t.Errorf("glance/1 events_processed = %d, want 1", got)
	}
}

func TestRegistryConcurrentInc(t *testing.T) {
	r := NewRegistry()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.Inc("glance/0", MetricEventProcessed)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if got := r.Snapshot()["glance/0"]["events_processed"]; got != 800 {
		t.Errorf("events_processed = %d, want 800", got)
	}
}

func TestMetricString(t *testing.T) {
	tests := []struct {
		m    Metric
		want string
	}{
		{MetricEventProcessed, "events_processed"},
		{MetricEventFailed, "events_failed"},
		{MetricFileWritten, "files_written"},
		{Metric(99), "99"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
