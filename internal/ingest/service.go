// Package ingest owns all writes to the record store: tenants, members, work
// items, report submissions and leave plans. The analytics engine only ever
// reads; everything that mutates goes through here so each change lands in a
// transaction together with its event-log entry.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"teampulse/internal/config"
	"teampulse/internal/domain"
	"teampulse/internal/events"
	"teampulse/internal/repo"
)

type Service struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Service {
	return Service{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (s Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

const dateLayout = "2006-01-02"

// Work item statuses. Completed is terminal; the first three count as active
// load in capacity forecasts.
var workItemStatuses = map[string]bool{
	"To Do":       true,
	"In Progress": true,
	"Review":      true,
	"Completed":   true,
}

// InitTenant creates a tenant with migrations already run.
func (s Service) InitTenant(ctx context.Context, id, name, actorID string) (repo.TenantRow, error) {
	if id == "" {
		return repo.TenantRow{}, errors.New("tenant id is required")
	}
	t := repo.TenantRow{
		ID:        id,
		Name:      name,
		Status:    "active",
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return repo.TenantRow{}, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO tenants(id,name,status,created_at) VALUES (?,?,?,?)`,
		t.ID, nullable(t.Name), t.Status, t.CreatedAt); err != nil {
		return repo.TenantRow{}, fmt.Errorf("insert tenant: %w", err)
	}
	if err := s.Events.Append(ctx, tx, "tenant.init", t.ID, "tenant", t.ID, actorID, events.EventPayload{"status": t.Status}); err != nil {
		return repo.TenantRow{}, err
	}
	if err := tx.Commit(); err != nil {
		return repo.TenantRow{}, err
	}
	return t, nil
}

type MemberOptions struct {
	ID          string
	TenantID    string
	DisplayName string
	Unit        string
	ActorID     string
}

func (s Service) AddMember(ctx context.Context, opts MemberOptions) (domain.Member, error) {
	if opts.TenantID == "" {
		return domain.Member{}, errors.New("tenant is required")
	}
	if opts.DisplayName == "" {
		return domain.Member{}, errors.New("display name is required")
	}
	if s.Config != nil && !s.Config.KnownUnit(opts.Unit) {
		return domain.Member{}, fmt.Errorf("unit %s not in catalog", opts.Unit)
	}
	if _, err := s.Repo.GetTenant(ctx, opts.TenantID); err != nil {
		return domain.Member{}, err
	}
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	m := domain.Member{
		ID:          id,
		TenantID:    opts.TenantID,
		DisplayName: opts.DisplayName,
		Unit:        opts.Unit,
		CreatedAt:   s.now().UTC().Format(time.RFC3339),
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Member{}, err
	}
	defer tx.Rollback()
	if err := s.Repo.InsertMember(ctx, tx, m); err != nil {
		return domain.Member{}, err
	}
	if err := s.Events.Append(ctx, tx, "member.added", m.TenantID, "member", m.ID, opts.ActorID, events.EventPayload{"unit": m.Unit}); err != nil {
		return domain.Member{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Member{}, err
	}
	return m, nil
}

type WorkItemOptions struct {
	ID          string
	TenantID    string
	Title       string
	Effort      float64
	Status      string
	AssigneeID  string
	CompletedAt string
	ActorID     string
}

func (s Service) AddWorkItem(ctx context.Context, opts WorkItemOptions) (domain.WorkItem, error) {
	if opts.TenantID == "" {
		return domain.WorkItem{}, errors.New("tenant is required")
	}
	if opts.Title == "" {
		return domain.WorkItem{}, errors.New("title is required")
	}
	if opts.Status == "" {
		opts.Status = "To Do"
	}
	if !workItemStatuses[opts.Status] {
		return domain.WorkItem{}, fmt.Errorf("invalid work item status %s", opts.Status)
	}
	if _, err := s.Repo.GetTenant(ctx, opts.TenantID); err != nil {
		return domain.WorkItem{}, err
	}
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := s.now().UTC().Format(time.RFC3339)
	w := domain.WorkItem{
		ID:         id,
		TenantID:   opts.TenantID,
		Title:      opts.Title,
		Effort:     normalizeEffort(opts.Effort),
		Status:     opts.Status,
		AssigneeID: optionalString(opts.AssigneeID),
		CreatedAt:  now,
	}
	if opts.Status == "Completed" {
		completed := opts.CompletedAt
		if completed == "" {
			completed = now
		} else if _, err := time.Parse(time.RFC3339, completed); err != nil {
			return domain.WorkItem{}, fmt.Errorf("completed-at: %w", err)
		}
		w.CompletedAt = &completed
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WorkItem{}, err
	}
	defer tx.Rollback()
	if err := s.Repo.InsertWorkItem(ctx, tx, w); err != nil {
		return domain.WorkItem{}, err
	}
	if err := s.Events.Append(ctx, tx, "workitem.created", w.TenantID, "workitem", w.ID, opts.ActorID, events.EventPayload{"status": w.Status, "effort": w.Effort}); err != nil {
		return domain.WorkItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.WorkItem{}, err
	}
	return w, nil
}

// SetWorkItemStatus moves an item between statuses, stamping or clearing the
// completion timestamp as it crosses the Completed boundary.
func (s Service) SetWorkItemStatus(ctx context.Context, id, status, actorID string) (domain.WorkItem, error) {
	if !workItemStatuses[status] {
		return domain.WorkItem{}, fmt.Errorf("invalid work item status %s", status)
	}
	w, err := s.Repo.GetWorkItem(ctx, id)
	if err != nil {
		return w, err
	}
	var completedAt *string
	if status == "Completed" {
		ts := s.now().UTC().Format(time.RFC3339)
		completedAt = &ts
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return w, err
	}
	defer tx.Rollback()
	if err := s.Repo.UpdateWorkItemStatus(ctx, tx, id, status, completedAt); err != nil {
		return w, err
	}
	if err := s.Events.Append(ctx, tx, "workitem.status", w.TenantID, "workitem", w.ID, actorID, events.EventPayload{
		"from": w.Status,
		"to":   status,
	}); err != nil {
		return w, err
	}
	if err := tx.Commit(); err != nil {
		return w, err
	}
	w.Status = status
	w.CompletedAt = completedAt
	return w, nil
}

type ReportOptions struct {
	ID             string
	TenantID       string
	MemberID       string
	SubmissionDate string
	PriorUpdate    string
	CurrentUpdate  string
	Obstruction    string
	ActorID        string
}

func (s Service) SubmitReport(ctx context.Context, opts ReportOptions) (domain.ReportSubmission, error) {
	if opts.TenantID == "" {
		return domain.ReportSubmission{}, errors.New("tenant is required")
	}
	if opts.MemberID == "" {
		return domain.ReportSubmission{}, errors.New("member is required")
	}
	m, err := s.Repo.GetMember(ctx, opts.MemberID)
	if err != nil {
		return domain.ReportSubmission{}, err
	}
	if m.TenantID != opts.TenantID {
		return domain.ReportSubmission{}, fmt.Errorf("member %s not in tenant %s", opts.MemberID, opts.TenantID)
	}
	date := opts.SubmissionDate
	if date == "" {
		date = s.now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return domain.ReportSubmission{}, fmt.Errorf("submission date: %w", err)
	}
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	sub := domain.ReportSubmission{
		ID:             id,
		TenantID:       opts.TenantID,
		MemberID:       opts.MemberID,
		SubmissionDate: date,
		PriorUpdate:    opts.PriorUpdate,
		CurrentUpdate:  opts.CurrentUpdate,
		Obstruction:    opts.Obstruction,
		CreatedAt:      s.now().UTC().Format(time.RFC3339),
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ReportSubmission{}, err
	}
	defer tx.Rollback()
	if err := s.Repo.InsertReport(ctx, tx, sub); err != nil {
		return domain.ReportSubmission{}, err
	}
	if err := s.Events.Append(ctx, tx, "report.submitted", sub.TenantID, "report", sub.ID, opts.ActorID, events.EventPayload{
		"member":  sub.MemberID,
		"date":    sub.SubmissionDate,
		"blocked": sub.Obstruction != "",
	}); err != nil {
		return domain.ReportSubmission{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ReportSubmission{}, err
	}
	sub.MemberUnit = m.Unit
	return sub, nil
}

type LeaveOptions struct {
	ID        string
	TenantID  string
	MemberID  string
	StartDate string
	EndDate   string
	ActorID   string
}

func (s Service) AddLeave(ctx context.Context, opts LeaveOptions) (domain.LeavePlan, error) {
	if opts.TenantID == "" {
		return domain.LeavePlan{}, errors.New("tenant is required")
	}
	if opts.MemberID == "" {
		return domain.LeavePlan{}, errors.New("member is required")
	}
	m, err := s.Repo.GetMember(ctx, opts.MemberID)
	if err != nil {
		return domain.LeavePlan{}, err
	}
	if m.TenantID != opts.TenantID {
		return domain.LeavePlan{}, fmt.Errorf("member %s not in tenant %s", opts.MemberID, opts.TenantID)
	}
	if _, err := time.Parse(dateLayout, opts.StartDate); err != nil {
		return domain.LeavePlan{}, fmt.Errorf("start date: %w", err)
	}
	if _, err := time.Parse(dateLayout, opts.EndDate); err != nil {
		return domain.LeavePlan{}, fmt.Errorf("end date: %w", err)
	}
	if opts.EndDate < opts.StartDate {
		return domain.LeavePlan{}, errors.New("end date before start date")
	}
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	l := domain.LeavePlan{
		ID:        id,
		TenantID:  opts.TenantID,
		MemberID:  opts.MemberID,
		Status:    "pending",
		StartDate: opts.StartDate,
		EndDate:   opts.EndDate,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.LeavePlan{}, err
	}
	defer tx.Rollback()
	if err := s.Repo.InsertLeave(ctx, tx, l); err != nil {
		return domain.LeavePlan{}, err
	}
	if err := s.Events.Append(ctx, tx, "leave.requested", l.TenantID, "leave", l.ID, opts.ActorID, events.EventPayload{
		"member": l.MemberID,
		"start":  l.StartDate,
		"end":    l.EndDate,
	}); err != nil {
		return domain.LeavePlan{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.LeavePlan{}, err
	}
	return l, nil
}

// SetLeaveStatus approves or declines a pending plan. Only approved plans
// count toward capacity forecasts.
func (s Service) SetLeaveStatus(ctx context.Context, id, status, actorID string) (domain.LeavePlan, error) {
	if status != "approved" && status != "declined" {
		return domain.LeavePlan{}, fmt.Errorf("invalid leave status %s", status)
	}
	l, err := s.Repo.GetLeave(ctx, id)
	if err != nil {
		return l, err
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return l, err
	}
	defer tx.Rollback()
	if err := s.Repo.SetLeaveStatus(ctx, tx, id, status); err != nil {
		return l, err
	}
	if err := s.Events.Append(ctx, tx, "leave."+status, l.TenantID, "leave", l.ID, actorID, events.EventPayload{
		"from": l.Status,
	}); err != nil {
		return l, err
	}
	if err := tx.Commit(); err != nil {
		return l, err
	}
	l.Status = status
	return l, nil
}

// --- helpers ---

func normalizeEffort(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	return v
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
