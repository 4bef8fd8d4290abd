package server

import "teampulse/internal/domain"

// Request payloads

type AddMemberRequest struct {
	ID          *string `json:"id,omitempty"`
	DisplayName string  `json:"display_name"`
	Unit        string  `json:"unit,omitempty"`
}

type AddWorkItemRequest struct {
	ID          *string `json:"id,omitempty"`
	Title       string  `json:"title"`
	Effort      float64 `json:"effort"`
	Status      string  `json:"status,omitempty" enum:"To Do,In Progress,Review,Completed"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty" format:"date-time"`
}

type SetWorkItemStatusRequest struct {
	Status string `json:"status" enum:"To Do,In Progress,Review,Completed"`
}

type SubmitReportRequest struct {
	ID             *string `json:"id,omitempty"`
	MemberID       string  `json:"member_id"`
	SubmissionDate string  `json:"submission_date,omitempty" format:"date"`
	PriorUpdate    string  `json:"prior_update,omitempty"`
	CurrentUpdate  string  `json:"current_update,omitempty"`
	Obstruction    string  `json:"obstruction,omitempty"`
}

type AddLeaveRequest struct {
	ID        *string `json:"id,omitempty"`
	MemberID  string  `json:"member_id"`
	StartDate string  `json:"start_date" format:"date"`
	EndDate   string  `json:"end_date" format:"date"`
}

type SetLeaveStatusRequest struct {
	Status string `json:"status" enum:"approved,declined"`
}

// Response payloads

type AnalyticsSnapshotResponse struct {
	Velocity   domain.VelocityReport        `json:"velocity"`
	Engagement []domain.EngagementDimension `json:"engagement"`
	Capacity   domain.CapacityReport        `json:"capacity"`
	Blockers   []domain.BlockerCluster      `json:"blockers"`
	Sentinel   []domain.RiskFinding         `json:"sentinel"`
}
