package engine

import (
	"context"
	"fmt"

	"teampulse/internal/domain"
)

const (
	// blockerAlertThreshold is an absolute count, independent of headcount.
	blockerAlertThreshold = 5
	// velocityDropRatio fires RV-01 when the recent 3-day total falls below
	// this fraction of the preceding 3-day total.
	velocityDropRatio = 0.8
)

// Sentinel re-invokes the four calculators against the current gateway state
// and applies a fixed rule table. The four reads are independent, not a
// single snapshot; under concurrent writes the inputs may reflect slightly
// different moments. Any calculator failure aborts the whole synthesis: a
// risk report built from incomplete inputs would be misleading.
func (e Engine) Sentinel(ctx context.Context, tenantID string) ([]domain.RiskFinding, error) {
	if err := checkTenant(tenantID); err != nil {
		return nil, err
	}
	velocity, err := e.Velocity(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	dims, err := e.Engagement(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	capacity, err := e.Capacity(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	clusters, err := e.Blockers(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return synthesize(velocity, dims, capacity, clusters), nil
}

// synthesize applies the rule table. It always returns at least one finding.
func synthesize(velocity domain.VelocityReport, dims []domain.EngagementDimension, capacity domain.CapacityReport, clusters []domain.BlockerCluster) []domain.RiskFinding {
	var findings []domain.RiskFinding

	recent3, prev3 := trendWindows(velocity.Series)
	if recent3 < prev3*velocityDropRatio {
		findings = append(findings, domain.RiskFinding{
			Code:     "RV-01",
			Category: domain.CategoryVelocity,
			Severity: domain.SeverityHigh,
			Message:  fmt.Sprintf("Completed effort over the last 3 days (%.1f) is more than 20%% below the preceding 3 days (%.1f).", recent3, prev3),
		})
	}

	var dimSum float64
	for _, d := range dims {
		dimSum += d.Value
	}
	if mean := dimSum / float64(len(dims)); mean < 70 {
		findings = append(findings, domain.RiskFinding{
			Code:     "AG-03",
			Category: domain.CategoryAlignment,
			Severity: domain.SeverityMedium,
			Message:  fmt.Sprintf("Mean engagement across dimensions is %.1f, below the 70-point alignment target.", mean),
		})
	}

	if capacity.RiskLevel == "High" {
		findings = append(findings, domain.RiskFinding{
			Code:     "RS-09",
			Category: domain.CategoryCapacity,
			Severity: domain.SeverityCritical,
			Message:  fmt.Sprintf("Active effort of %.1f effort-days exceeds 80%% of the %d available member-days in the forecast horizon.", capacity.CurrentLoad, capacity.TotalAvailable),
		})
	}

	totalBlockers := 0
	for _, c := range clusters {
		totalBlockers += c.Count
	}
	if totalBlockers > blockerAlertThreshold {
		findings = append(findings, domain.RiskFinding{
			Code:     "FD-05",
			Category: domain.CategoryFriction,
			Severity: domain.SeverityLow,
			Message:  fmt.Sprintf("%d blocker reports across %d units in the last 30 days.", totalBlockers, len(clusters)),
		})
	}

	if len(findings) == 0 {
		findings = append(findings, domain.RiskFinding{
			Code:     "SY-00",
			Category: domain.CategorySystem,
			Severity: domain.SeverityOptimal,
			Message:  "All operational parameters within standard deviation.",
		})
	}
	return findings
}
