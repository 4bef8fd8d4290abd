package engine

import (
	"context"
	"time"

	"teampulse/internal/domain"
)

// Snapshot holds one coherent read of every record the calculators consume,
// fetched at a single moment. The Engine methods fetch independently per
// call (read-committed, no cross-metric isolation); callers that want all
// five results over the same data take a Snapshot instead and compute from
// it. The computations are identical either way.
type Snapshot struct {
	TenantID    string
	Today       time.Time
	Completed   []domain.WorkItem
	Active      []domain.WorkItem
	Submissions []domain.ReportSubmission
	Leave       []domain.LeavePlan
	Members     []domain.Member
}

// Snapshot fetches all records for a tenant in one pass.
func (e Engine) Snapshot(ctx context.Context, tenantID string) (Snapshot, error) {
	if err := checkTenant(tenantID); err != nil {
		return Snapshot{}, err
	}
	today := dayOf(e.now())
	snap := Snapshot{TenantID: tenantID, Today: today}

	from, to := velocityBounds(today)
	var err error
	if snap.Completed, err = e.Gateway.CompletedWorkItems(ctx, tenantID, from, to); err != nil {
		return Snapshot{}, err
	}
	if snap.Active, err = e.Gateway.ActiveWorkItems(ctx, tenantID); err != nil {
		return Snapshot{}, err
	}
	todayStr := today.Format(dateLayout)
	subFrom := today.AddDate(0, 0, -(engagementWindowDays - 1)).Format(dateLayout)
	if snap.Submissions, err = e.Gateway.Submissions(ctx, tenantID, subFrom, todayStr); err != nil {
		return Snapshot{}, err
	}
	leaveTo := today.AddDate(0, 0, capacityHorizonDays-1).Format(dateLayout)
	if snap.Leave, err = e.Gateway.ApprovedLeave(ctx, tenantID, todayStr, leaveTo); err != nil {
		return Snapshot{}, err
	}
	if snap.Members, err = e.Gateway.ListMembers(ctx, tenantID); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s Snapshot) Velocity() domain.VelocityReport {
	return velocityFromItems(s.Completed, s.Today)
}

func (s Snapshot) Engagement() []domain.EngagementDimension {
	return engagementFromRecords(s.Members, s.Submissions)
}

func (s Snapshot) Capacity() domain.CapacityReport {
	return capacityFromRecords(s.Members, s.Leave, s.Active, s.Today)
}

func (s Snapshot) Blockers() []domain.BlockerCluster {
	return blockersFromSubmissions(s.Submissions)
}

// Sentinel synthesizes findings from the snapshot's records; unlike
// Engine.Sentinel, all four inputs come from the same read.
func (s Snapshot) Sentinel() []domain.RiskFinding {
	return synthesize(s.Velocity(), s.Engagement(), s.Capacity(), s.Blockers())
}
