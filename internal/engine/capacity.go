package engine

import (
	"context"
	"math"
	"time"

	"teampulse/internal/domain"
)

const (
	capacityHorizonDays = 14
	// loadSpreadDays spreads total active effort evenly over a fixed reference
	// window for the per-day load value. A visualization simplification, not a
	// real schedule.
	loadSpreadDays = 10
	// saturationRatio is the demanded/available cutoff for the binary risk
	// level consumed by the sentinel.
	saturationRatio = 0.8
)

// Capacity projects per-day available headcount over the next 14 days, net of
// approved leave and weekends, and classifies active load against it.
//
// Two separate classification policies are computed: the binary
// RiskLevel (saturation ratio, feeds the sentinel) and the three-tier
// LoadLabel (percentage bands, feeds presentation). Callers depend on each
// independently.
func (e Engine) Capacity(ctx context.Context, tenantID string) (domain.CapacityReport, error) {
	if err := checkTenant(tenantID); err != nil {
		return domain.CapacityReport{}, err
	}
	today := dayOf(e.now())
	from := today.Format(dateLayout)
	to := today.AddDate(0, 0, capacityHorizonDays-1).Format(dateLayout)
	members, err := e.Gateway.ListMembers(ctx, tenantID)
	if err != nil {
		return domain.CapacityReport{}, err
	}
	leave, err := e.Gateway.ApprovedLeave(ctx, tenantID, from, to)
	if err != nil {
		return domain.CapacityReport{}, err
	}
	active, err := e.Gateway.ActiveWorkItems(ctx, tenantID)
	if err != nil {
		return domain.CapacityReport{}, err
	}
	return capacityFromRecords(members, leave, active, today), nil
}

func capacityFromRecords(members []domain.Member, leave []domain.LeavePlan, active []domain.WorkItem, today time.Time) domain.CapacityReport {
	totalMembers := len(members)
	var activeEffort float64
	for _, it := range active {
		activeEffort += normalizeEffort(it.Effort)
	}
	load := activeEffort / loadSpreadDays

	var report domain.CapacityReport
	report.Daily = make([]domain.CapacityDay, 0, capacityHorizonDays)
	for i := 0; i < capacityHorizonDays; i++ {
		day := today.AddDate(0, 0, i)
		date := day.Format(dateLayout)
		available := 0
		if !isWeekend(day) {
			available = totalMembers - onLeaveCount(leave, date)
		}
		report.Daily = append(report.Daily, domain.CapacityDay{
			Date:      date,
			Available: available,
			Capacity:  totalMembers,
			Load:      load,
		})
		report.TotalAvailable += available
	}
	report.CurrentLoad = activeEffort
	report.RiskLevel = saturationRisk(activeEffort, report.TotalAvailable)
	report.LoadPercentage = loadPercentage(activeEffort, report.TotalAvailable)
	report.LoadLabel = loadBand(report.LoadPercentage)
	return report
}

// onLeaveCount counts approved plans covering a day, start and end inclusive.
func onLeaveCount(leave []domain.LeavePlan, date string) int {
	n := 0
	for _, l := range leave {
		if l.StartDate <= date && date <= l.EndDate {
			n++
		}
	}
	return n
}

// saturationRisk is the binary policy: High only when demanded effort
// strictly exceeds 80% of the available member-days.
func saturationRisk(activeEffort float64, totalAvailable int) string {
	if activeEffort > float64(totalAvailable)*saturationRatio {
		return "High"
	}
	return "Optimal"
}

// loadPercentage is the presentation-facing ratio. With zero availability the
// division is undefined; report full load when any effort is pending.
func loadPercentage(activeEffort float64, totalAvailable int) int {
	if totalAvailable == 0 {
		if activeEffort > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round(activeEffort / float64(totalAvailable) * 100))
}

// loadBand is the three-tier presentation policy. Its bands do not line up
// with saturationRisk; both tables are load-bearing for different callers.
func loadBand(pct int) string {
	switch {
	case pct > 85:
		return "High"
	case pct > 60:
		return "Medium"
	default:
		return "Optimal"
	}
}
