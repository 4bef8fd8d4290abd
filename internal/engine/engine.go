package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"teampulse/internal/domain"
)

// Gateway is the read-only record store the calculators consume. It is
// satisfied by repo.Repo; calculators never write through it.
type Gateway interface {
	CompletedWorkItems(ctx context.Context, tenantID, from, to string) ([]domain.WorkItem, error)
	ActiveWorkItems(ctx context.Context, tenantID string) ([]domain.WorkItem, error)
	Submissions(ctx context.Context, tenantID, from, to string) ([]domain.ReportSubmission, error)
	ApprovedLeave(ctx context.Context, tenantID, from, to string) ([]domain.LeavePlan, error)
	ListMembers(ctx context.Context, tenantID string) ([]domain.Member, error)
}

// ErrTenantRequired is returned before any query when the tenant id is blank.
var ErrTenantRequired = errors.New("tenant id is required")

// Engine computes derived operational metrics from raw activity records.
// Every method is a pure function of the gateway's current contents plus the
// injected clock; nothing is cached or mutated, so concurrent calls for the
// same or different tenants are safe.
type Engine struct {
	Gateway Gateway
	Now     func() time.Time
}

func New(gw Gateway) Engine {
	return Engine{Gateway: gw, Now: time.Now}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func checkTenant(tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return ErrTenantRequired
	}
	return nil
}

const dateLayout = "2006-01-02"

// dayOf truncates a timestamp to its calendar day in the clock's location.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// isWeekend reports whether a day is non-working (Sunday or Saturday).
func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Sunday || wd == time.Saturday
}

// normalizeEffort treats missing or invalid magnitudes as zero; efforts are
// never negative after normalization.
func normalizeEffort(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	return v
}
