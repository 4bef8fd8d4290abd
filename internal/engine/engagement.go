package engine

import (
	"context"
	"math"
	"strings"

	"teampulse/internal/domain"
)

const (
	engagementWindowDays = 30
	// expectedSubmissions is the assumed number of working-day submissions in
	// the 30-day window.
	expectedSubmissions = 20
	// detailReferenceWords is the word count treated as "fully detailed".
	detailReferenceWords = 50
)

// Engagement scores per-member submission consistency and descriptive detail
// over the trailing 30 days, then aggregates into five named team dimensions.
// Three of the five are placeholder values, not yet measured from data; they
// are flagged as such so consumers can tell "not measured" from "measured".
func (e Engine) Engagement(ctx context.Context, tenantID string) ([]domain.EngagementDimension, error) {
	if err := checkTenant(tenantID); err != nil {
		return nil, err
	}
	today := dayOf(e.now())
	from := today.AddDate(0, 0, -(engagementWindowDays - 1)).Format(dateLayout)
	to := today.Format(dateLayout)
	members, err := e.Gateway.ListMembers(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	subs, err := e.Gateway.Submissions(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	return engagementFromRecords(members, subs), nil
}

func engagementFromRecords(members []domain.Member, subs []domain.ReportSubmission) []domain.EngagementDimension {
	type memberScore struct {
		count int
		words int
	}
	scores := map[string]*memberScore{}
	for _, m := range members {
		scores[m.ID] = &memberScore{}
	}
	for _, s := range subs {
		ms, ok := scores[s.MemberID]
		if !ok {
			continue
		}
		ms.count++
		ms.words += wordCount(s.PriorUpdate) + wordCount(s.CurrentUpdate) + wordCount(s.Obstruction)
	}

	var consistencySum, detailSum float64
	for _, ms := range scores {
		consistencySum += clamp100(float64(ms.count) / expectedSubmissions * 100)
		if ms.count > 0 {
			avgDetail := float64(ms.words) / float64(ms.count)
			detailSum += clamp100(avgDetail / detailReferenceWords * 100)
		}
	}
	var consistency, detail float64
	if len(members) > 0 {
		consistency = consistencySum / float64(len(members))
		detail = detailSum / float64(len(members))
	}

	return []domain.EngagementDimension{
		{Subject: "Consistency", Value: consistency},
		{Subject: "Detail Level", Value: detail},
		{Subject: "Blocker Clarity", Value: 85, Placeholder: true},
		{Subject: "Submission Speed", Value: 70, Placeholder: true},
		{Subject: "Task Alignment", Value: 90, Placeholder: true},
	}
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func clamp100(v float64) float64 {
	return math.Min(v, 100)
}
