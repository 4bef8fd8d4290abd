package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"teampulse/internal/domain"
	"teampulse/internal/ingest"
)

// actorFromHeader falls back to a fixed id; the dashboard in front of this
// API owns real identity.
type ActorHeader struct {
	ActorID string `header:"X-Actor-Id"`
}

func actor(h ActorHeader) string {
	if h.ActorID == "" {
		return "api-user"
	}
	return h.ActorID
}

func registerMembers(api huma.API, svc ingest.Service) {
	type addMemberInput struct {
		TenantPath
		ActorHeader
		Body AddMemberRequest
	}
	huma.Register(api, huma.Operation{
		OperationID:   "add-member",
		Method:        http.MethodPost,
		Path:          "/tenants/{tenant_id}/members",
		Summary:       "Add member",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *addMemberInput) (*struct {
		Body domain.Member `json:"body"`
	}, error) {
		opts := ingest.MemberOptions{
			TenantID:    input.TenantID,
			DisplayName: input.Body.DisplayName,
			Unit:        input.Body.Unit,
			ActorID:     actor(input.ActorHeader),
		}
		if input.Body.ID != nil {
			opts.ID = *input.Body.ID
		}
		m, err := svc.AddMember(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Member `json:"body"`
		}{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-members",
		Method:      http.MethodGet,
		Path:        "/tenants/{tenant_id}/members",
		Summary:     "List members",
	}, func(ctx context.Context, input *TenantPath) (*struct {
		Body []domain.Member `json:"body"`
	}, error) {
		members, err := svc.Repo.ListMembers(ctx, input.TenantID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Member `json:"body"`
		}{Body: members}, nil
	})
}

func registerWorkItems(api huma.API, svc ingest.Service) {
	type addItemInput struct {
		TenantPath
		ActorHeader
		Body AddWorkItemRequest
	}
	huma.Register(api, huma.Operation{
		OperationID:   "add-work-item",
		Method:        http.MethodPost,
		Path:          "/tenants/{tenant_id}/work-items",
		Summary:       "Add work item",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *addItemInput) (*struct {
		Body domain.WorkItem `json:"body"`
	}, error) {
		opts := ingest.WorkItemOptions{
			TenantID: input.TenantID,
			Title:    input.Body.Title,
			Effort:   input.Body.Effort,
			Status:   input.Body.Status,
			ActorID:  actor(input.ActorHeader),
		}
		if input.Body.ID != nil {
			opts.ID = *input.Body.ID
		}
		if input.Body.AssigneeID != nil {
			opts.AssigneeID = *input.Body.AssigneeID
		}
		if input.Body.CompletedAt != nil {
			opts.CompletedAt = *input.Body.CompletedAt
		}
		w, err := svc.AddWorkItem(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.WorkItem `json:"body"`
		}{Body: w}, nil
	})

	type setStatusInput struct {
		TenantPath
		ActorHeader
		ItemID string `path:"item_id"`
		Body   SetWorkItemStatusRequest
	}
	huma.Register(api, huma.Operation{
		OperationID: "set-work-item-status",
		Method:      http.MethodPut,
		Path:        "/tenants/{tenant_id}/work-items/{item_id}/status",
		Summary:     "Set work item status",
	}, func(ctx context.Context, input *setStatusInput) (*struct {
		Body domain.WorkItem `json:"body"`
	}, error) {
		w, err := svc.SetWorkItemStatus(ctx, input.ItemID, input.Body.Status, actor(input.ActorHeader))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.WorkItem `json:"body"`
		}{Body: w}, nil
	})
}

func registerReports(api huma.API, svc ingest.Service) {
	type submitInput struct {
		TenantPath
		ActorHeader
		Body SubmitReportRequest
	}
	huma.Register(api, huma.Operation{
		OperationID:   "submit-report",
		Method:        http.MethodPost,
		Path:          "/tenants/{tenant_id}/reports",
		Summary:       "Submit daily report",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *submitInput) (*struct {
		Body domain.ReportSubmission `json:"body"`
	}, error) {
		opts := ingest.ReportOptions{
			TenantID:       input.TenantID,
			MemberID:       input.Body.MemberID,
			SubmissionDate: input.Body.SubmissionDate,
			PriorUpdate:    input.Body.PriorUpdate,
			CurrentUpdate:  input.Body.CurrentUpdate,
			Obstruction:    input.Body.Obstruction,
			ActorID:        actor(input.ActorHeader),
		}
		if input.Body.ID != nil {
			opts.ID = *input.Body.ID
		}
		s, err := svc.SubmitReport(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ReportSubmission `json:"body"`
		}{Body: s}, nil
	})
}

func registerLeave(api huma.API, svc ingest.Service) {
	type addLeaveInput struct {
		TenantPath
		ActorHeader
		Body AddLeaveRequest
	}
	huma.Register(api, huma.Operation{
		OperationID:   "add-leave",
		Method:        http.MethodPost,
		Path:          "/tenants/{tenant_id}/leave",
		Summary:       "Request leave",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *addLeaveInput) (*struct {
		Body domain.LeavePlan `json:"body"`
	}, error) {
		opts := ingest.LeaveOptions{
			TenantID:  input.TenantID,
			MemberID:  input.Body.MemberID,
			StartDate: input.Body.StartDate,
			EndDate:   input.Body.EndDate,
			ActorID:   actor(input.ActorHeader),
		}
		if input.Body.ID != nil {
			opts.ID = *input.Body.ID
		}
		l, err := svc.AddLeave(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.LeavePlan `json:"body"`
		}{Body: l}, nil
	})

	type leaveStatusInput struct {
		TenantPath
		ActorHeader
		LeaveID string `path:"leave_id"`
		Body    SetLeaveStatusRequest
	}
	huma.Register(api, huma.Operation{
		OperationID: "set-leave-status",
		Method:      http.MethodPut,
		Path:        "/tenants/{tenant_id}/leave/{leave_id}/status",
		Summary:     "Approve or decline leave",
	}, func(ctx context.Context, input *leaveStatusInput) (*struct {
		Body domain.LeavePlan `json:"body"`
	}, error) {
		l, err := svc.SetLeaveStatus(ctx, input.LeaveID, input.Body.Status, actor(input.ActorHeader))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.LeavePlan `json:"body"`
		}{Body: l}, nil
	})
}

func registerEvents(api huma.API, svc ingest.Service) {
	type eventsInput struct {
		TenantPath
		Limit int    `query:"limit" default:"20"`
		Type  string `query:"type"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/tenants/{tenant_id}/events",
		Summary:     "Latest ingestion events",
	}, func(ctx context.Context, input *eventsInput) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		limit := input.Limit
		if limit <= 0 {
			limit = 20
		}
		events, err := svc.Repo.LatestEvents(ctx, limit, input.TenantID, input.Type)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: events}, nil
	})
}
