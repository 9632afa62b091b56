package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatusWithoutChecks(t *testing.T) {
	report := NewService().Status(context.Background())
	if !report.OK || report.Checks != nil {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestStatusReportsFailingCheck(t *testing.T) {
	svc := NewService()
	svc.Register("database", func(context.Context) error { return nil })
	svc.Register("redis", func(context.Context) error { return errors.New("connection refused") })

	report := svc.Status(context.Background())
	if report.OK {
		t.Fatalf("expected not ok")
	}
	if report.Checks["database"] != "ok" {
		t.Fatalf("database = %q", report.Checks["database"])
	}
	if report.Checks["redis"] != "connection refused" {
		t.Fatalf("redis = %q", report.Checks["redis"])
	}
}

func TestStatusBoundsSlowChecks(t *testing.T) {
	svc := NewService()
	svc.timeout = 0
	svc.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if svc.Status(context.Background()).OK {
		t.Fatalf("expected timeout to fail the check")
	}
}
