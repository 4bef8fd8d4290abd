package engine

import (
	"context"
	"time"

	"teampulse/internal/domain"
)

const (
	velocityWindowDays = 14
	trendSpanDays      = 3
)

// Velocity buckets completed-work effort by day over the trailing 14-day
// window ending today, oldest first, with rolling statistics.
func (e Engine) Velocity(ctx context.Context, tenantID string) (domain.VelocityReport, error) {
	if err := checkTenant(tenantID); err != nil {
		return domain.VelocityReport{}, err
	}
	today := dayOf(e.now())
	from, to := velocityBounds(today)
	items, err := e.Gateway.CompletedWorkItems(ctx, tenantID, from, to)
	if err != nil {
		return domain.VelocityReport{}, err
	}
	return velocityFromItems(items, today), nil
}

// velocityBounds returns the RFC3339 window [start of day-13, end of today].
func velocityBounds(today time.Time) (string, string) {
	start := today.AddDate(0, 0, -(velocityWindowDays - 1))
	end := today.AddDate(0, 0, 1).Add(-time.Second)
	return start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339)
}

func velocityFromItems(items []domain.WorkItem, today time.Time) domain.VelocityReport {
	byDay := map[string]*domain.VelocityDay{}
	series := make([]domain.VelocityDay, 0, velocityWindowDays)
	for i := velocityWindowDays - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(dateLayout)
		series = append(series, domain.VelocityDay{Date: date})
	}
	for i := range series {
		byDay[series[i].Date] = &series[i]
	}
	for _, it := range items {
		if it.Status != "Completed" || it.CompletedAt == nil {
			continue
		}
		ts, err := time.Parse(time.RFC3339, *it.CompletedAt)
		if err != nil {
			continue
		}
		day, ok := byDay[ts.In(today.Location()).Format(dateLayout)]
		if !ok {
			continue
		}
		day.Velocity += normalizeEffort(it.Effort)
		day.Count++
	}

	var report domain.VelocityReport
	report.Series = series
	for _, d := range series {
		report.Total += d.Velocity
		if d.Velocity > report.Peak {
			report.Peak = d.Velocity
		}
	}
	// Fixed divisor: days without data still count toward the average.
	report.Average = report.Total / velocityWindowDays
	recent3, prev3 := trendWindows(series)
	report.Trend = trendPercent(recent3, prev3)
	return report
}

// trendWindows sums the last 3 days and the immediately preceding 3 days.
func trendWindows(series []domain.VelocityDay) (recent3, prev3 float64) {
	n := len(series)
	for _, d := range series[n-trendSpanDays:] {
		recent3 += d.Velocity
	}
	for _, d := range series[n-2*trendSpanDays : n-trendSpanDays] {
		prev3 += d.Velocity
	}
	return recent3, prev3
}

// trendPercent returns the percentage change of recent3 versus prev3. A zero
// baseline yields 100 by convention rather than dividing by zero.
func trendPercent(recent3, prev3 float64) float64 {
	if prev3 == 0 {
		return 100
	}
	return (recent3 - prev3) / prev3 * 100
}
