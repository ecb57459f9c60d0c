package perf

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	jobmetrics "github.com/betterfly/betterfly/internal/jobs"
	"github.com/betterfly/betterfly/internal/reminders"
	"github.com/betterfly/betterfly/jobs"
)

type slowDeliverer struct {
	delay time.Duration
	err   error
}

func (d slowDeliverer) Deliver(ctx context.Context, _ reminders.Reminder) (reminders.Outcome, error) {
	time.Sleep(d.delay)
	if d.err != nil {
		return reminders.Outcome{Rescheduled: true}, d.err
	}
	return reminders.Outcome{Sent: true, Rescheduled: true}, nil
}

func TestReminderJobThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	ctx := context.Background()

	push, err := jobs.NewReminderTask(reminders.Reminder{ID: "perf-daily", Kind: reminders.KindDaily, Hour: 20})
	if err != nil {
		t.Fatal(err)
	}
	email, err := jobs.NewReminderTask(reminders.Reminder{ID: "perf-email", Kind: reminders.KindEmail, Hour: 8, Email: "perf@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	fast := jobs.NewReminderJob(slowDeliverer{delay: 2 * time.Millisecond}, nil, metrics)
	for i := 0; i < 60; i++ {
		if err := fast.Handle(ctx, push); err != nil {
			t.Fatalf("unexpected push failure: %v", err)
		}
	}

	relay := jobs.NewReminderJob(slowDeliverer{delay: 10 * time.Millisecond}, nil, metrics)
	for i := 0; i < 15; i++ {
		if err := relay.Handle(ctx, email); err != nil {
			t.Fatalf("unexpected email failure: %v", err)
		}
	}

	// A few relay failures keep the failure series populated for alerting.
	broken := jobs.NewReminderJob(slowDeliverer{delay: time.Millisecond, err: errors.New("relay timeout")}, nil, metrics)
	for i := 0; i < 3; i++ {
		if err := broken.Handle(ctx, push); err == nil {
			t.Fatal("expected error to propagate")
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "betterfly_jobs_total", map[string]string{"job": jobs.TaskReminderDaily, "status": "success"})
	failure := metricValue(t, families, "betterfly_jobs_total", map[string]string{"job": jobs.TaskReminderDaily, "status": "failure"})
	if ratio := success / (success + failure); ratio < 0.9 {
		t.Fatalf("push reminder success ratio too low: %f", ratio)
	}

	delivered := metricValue(t, families, "betterfly_reminders_delivered_total", map[string]string{"channel": "email", "next": "rescheduled"})
	if delivered != 15 {
		t.Fatalf("email deliveries = %v, want 15", delivered)
	}

	if mean := histogramMean(t, families, "betterfly_job_duration_seconds", map[string]string{"job": jobs.TaskReminderEmail}); mean > 0.5 {
		t.Fatalf("email reminder duration above budget: %f", mean)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	for _, lp := range metric.GetLabel() {
		if val, ok := labels[lp.GetName()]; ok {
			if lp.GetValue() != val {
				return false
			}
		}
	}
	for key := range labels {
		found := false
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == key {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
