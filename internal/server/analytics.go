package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"teampulse/internal/domain"
	"teampulse/internal/engine"
)

type TenantPath struct {
	TenantID string `path:"tenant_id"`
}

// registerAnalytics exposes the five calculators plus a snapshot endpoint
// that computes all of them from one read.
func registerAnalytics(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "analytics-velocity",
		Method:      http.MethodGet,
		Path:        "/tenants/{tenant_id}/analytics/velocity",
		Summary:     "Velocity over the trailing 14 days",
	}, func(ctx context.Context, input *TenantPath) (*struct {
		Body domain.VelocityReport `json:"body"`
	}, error) {
		report, err := e.Velocity(ctx, input.TenantID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.VelocityReport `json:"body"`
		}{Body: report}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "analytics-engagement",
		Method:      http.MethodGet,
		Path:        "/tenants/{tenant_id}/analytics/engagement",
		Summary:     "Team engagement dimensions",
	}, func(ctx context.Context, input *TenantPath) (*struct {
		Body []domain.EngagementDimension `json:"body"`
	}, error) {
		dims, err := e.Engagement(ctx, input.TenantID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.EngagementDimension `json:"body"`
		}{Body: dims}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "analytics-capacity",
		Method:      http.MethodGet,
		Path:        "/tenants/{tenant_id}/analytics/capacity",
		Summary:     "Capacity forecast for the next 14 days",
	}, func(ctx context.Context, input *TenantPath) (*struct {
		Body domain.CapacityReport `json:"body"`
	}, error) {
		report, err := e.Capacity(ctx, input.TenantID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CapacityReport `json:"body"`
		}{Body: report}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "analytics-blockers",
		Method:      http.MethodGet,
		Path:        "/tenants/{tenant_id}/analytics/blockers",
		Summary:     "Blocker clusters by unit",
	}, func(ctx context.Context, input *TenantPath) (*struct {
		Body []domain.BlockerCluster `json:"body"`
	}, error) {
		clusters, err := e.Blockers(ctx, input.TenantID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.BlockerCluster `json:"body"`
		}{Body: clusters}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "analytics-sentinel",
		Method:      http.MethodGet,
		Path:        "/tenants/{tenant_id}/analytics/sentinel",
		Summary:     "Risk findings",
	}, func(ctx context.Context, input *TenantPath) (*struct {
		Body []domain.RiskFinding `json:"body"`
	}, error) {
		findings, err := e.Sentinel(ctx, input.TenantID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.RiskFinding `json:"body"`
		}{Body: findings}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "analytics-snapshot",
		Method:      http.MethodGet,
		Path:        "/tenants/{tenant_id}/analytics",
		Summary:     "All metrics from one consistent read",
	}, func(ctx context.Context, input *TenantPath) (*struct {
		Body AnalyticsSnapshotResponse `json:"body"`
	}, error) {
		snap, err := e.Snapshot(ctx, input.TenantID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AnalyticsSnapshotResponse `json:"body"`
		}{Body: AnalyticsSnapshotResponse{
			Velocity:   snap.Velocity(),
			Engagement: snap.Engagement(),
			Capacity:   snap.Capacity(),
			Blockers:   snap.Blockers(),
			Sentinel:   snap.Sentinel(),
		}}, nil
	})
}
