package engine

import (
	"context"
	"sort"
	"strings"

	"teampulse/internal/domain"
)

const blockerWindowDays = 30

// Blockers groups non-empty obstruction reports from the trailing 30 days by
// organizational unit and ranks clusters by frequency, descending. Ties keep
// the underlying fetch order.
func (e Engine) Blockers(ctx context.Context, tenantID string) ([]domain.BlockerCluster, error) {
	if err := checkTenant(tenantID); err != nil {
		return nil, err
	}
	today := dayOf(e.now())
	from := today.AddDate(0, 0, -(blockerWindowDays - 1)).Format(dateLayout)
	to := today.Format(dateLayout)
	subs, err := e.Gateway.Submissions(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	return blockersFromSubmissions(subs), nil
}

func blockersFromSubmissions(subs []domain.ReportSubmission) []domain.BlockerCluster {
	type cluster struct {
		domain.BlockerCluster
		latestDate string
	}
	byUnit := map[string]*cluster{}
	var order []string
	for _, s := range subs {
		if strings.TrimSpace(s.Obstruction) == "" {
			continue
		}
		unit := s.MemberUnit
		if unit == "" {
			unit = "Unassigned"
		}
		c, ok := byUnit[unit]
		if !ok {
			c = &cluster{BlockerCluster: domain.BlockerCluster{Unit: unit}}
			byUnit[unit] = c
			order = append(order, unit)
		}
		c.Count++
		if s.SubmissionDate >= c.latestDate {
			c.latestDate = s.SubmissionDate
			c.Latest = s.Obstruction
		}
	}
	res := make([]domain.BlockerCluster, 0, len(order))
	for _, unit := range order {
		res = append(res, byUnit[unit].BlockerCluster)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Count > res[j].Count })
	return res
}
