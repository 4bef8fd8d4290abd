package repo

import (
	"context"
	"database/sql"
	"strings"

	"teampulse/internal/domain"
)

func (r Repo) InsertMember(ctx context.Context, tx *sql.Tx, m domain.Member) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO members(id,tenant_id,display_name,unit,created_at) VALUES (?,?,?,?,?)`,
		m.ID, m.TenantID, m.DisplayName, nullable(m.Unit), m.CreatedAt)
	return err
}

func (r Repo) GetMember(ctx context.Context, id string) (domain.Member, error) {
	var m domain.Member
	var unit sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,tenant_id,display_name,unit,created_at FROM members WHERE id=?`, id).
		Scan(&m.ID, &m.TenantID, &m.DisplayName, &unit, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	if unit.Valid {
		m.Unit = unit.String
	}
	return m, err
}

// ListMembers returns all members for a tenant, oldest first.
func (r Repo) ListMembers(ctx context.Context, tenantID string) ([]domain.Member, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,tenant_id,display_name,unit,created_at FROM members WHERE tenant_id=? ORDER BY created_at ASC, id ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Member
	for rows.Next() {
		var m domain.Member
		var unit sql.NullString
		if err := rows.Scan(&m.ID, &m.TenantID, &m.DisplayName, &unit, &m.CreatedAt); err != nil {
			return nil, err
		}
		if unit.Valid {
			m.Unit = unit.String
		}
		res = append(res, m)
	}
	return res, nil
}

func (r Repo) InsertWorkItem(ctx context.Context, tx *sql.Tx, w domain.WorkItem) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO work_items(id,tenant_id,title,effort,status,assignee_id,created_at,completed_at) VALUES (?,?,?,?,?,?,?,?)`,
		w.ID, w.TenantID, w.Title, w.Effort, w.Status, nullableStringPtr(w.AssigneeID), w.CreatedAt, nullableStringPtr(w.CompletedAt))
	return err
}

func (r Repo) UpdateWorkItemStatus(ctx context.Context, tx *sql.Tx, id, status string, completedAt *string) error {
	res, err := tx.ExecContext(ctx, `UPDATE work_items SET status=?, completed_at=? WHERE id=?`,
		status, nullableStringPtr(completedAt), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetWorkItem(ctx context.Context, id string) (domain.WorkItem, error) {
	var w domain.WorkItem
	var assignee, completed sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,tenant_id,title,effort,status,assignee_id,created_at,completed_at FROM work_items WHERE id=?`, id).
		Scan(&w.ID, &w.TenantID, &w.Title, &w.Effort, &w.Status, &assignee, &w.CreatedAt, &completed)
	if err == sql.ErrNoRows {
		return w, ErrNotFound
	}
	if err != nil {
		return w, err
	}
	if assignee.Valid {
		w.AssigneeID = &assignee.String
	}
	if completed.Valid {
		w.CompletedAt = &completed.String
	}
	return w, nil
}

type WorkItemFilters struct {
	TenantID string
	Status   string
	Limit    int
}

func (r Repo) ListWorkItems(ctx context.Context, f WorkItemFilters) ([]domain.WorkItem, error) {
	clauses := []string{"tenant_id=?"}
	args := []any{f.TenantID}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	query := `SELECT id,tenant_id,title,effort,status,assignee_id,created_at,completed_at FROM work_items WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkItems(rows)
}

// CompletedWorkItems returns Completed items whose completion timestamp is in
// [from,to], both RFC3339 bounds inclusive.
func (r Repo) CompletedWorkItems(ctx context.Context, tenantID, from, to string) ([]domain.WorkItem, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,tenant_id,title,effort,status,assignee_id,created_at,completed_at
FROM work_items WHERE tenant_id=? AND status='Completed' AND completed_at IS NOT NULL AND completed_at>=? AND completed_at<=?
ORDER BY completed_at ASC, id ASC`, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkItems(rows)
}

// ActiveWorkItems returns items in a non-terminal status.
func (r Repo) ActiveWorkItems(ctx context.Context, tenantID string) ([]domain.WorkItem, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,tenant_id,title,effort,status,assignee_id,created_at,completed_at
FROM work_items WHERE tenant_id=? AND status IN ('To Do','In Progress','Review') ORDER BY created_at ASC, id ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkItems(rows)
}

func scanWorkItems(rows *sql.Rows) ([]domain.WorkItem, error) {
	var res []domain.WorkItem
	for rows.Next() {
		var w domain.WorkItem
		var assignee, completed sql.NullString
		if err := rows.Scan(&w.ID, &w.TenantID, &w.Title, &w.Effort, &w.Status, &assignee, &w.CreatedAt, &completed); err != nil {
			return nil, err
		}
		if assignee.Valid {
			w.AssigneeID = &assignee.String
		}
		if completed.Valid {
			w.CompletedAt = &completed.String
		}
		res = append(res, w)
	}
	return res, rows.Err()
}

func (r Repo) InsertReport(ctx context.Context, tx *sql.Tx, s domain.ReportSubmission) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO report_submissions(id,tenant_id,member_id,submission_date,prior_update,current_update,obstruction,created_at)
VALUES (?,?,?,?,?,?,?,?)`,
		s.ID, s.TenantID, s.MemberID, s.SubmissionDate, nullable(s.PriorUpdate), nullable(s.CurrentUpdate), nullable(s.Obstruction), s.CreatedAt)
	return err
}

// Submissions returns report submissions with dates in [from,to] inclusive
// (calendar days, lexicographic-safe YYYY-MM-DD), each joined to its member's
// organizational unit.
func (r Repo) Submissions(ctx context.Context, tenantID, from, to string) ([]domain.ReportSubmission, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT s.id,s.tenant_id,s.member_id,s.submission_date,s.prior_update,s.current_update,s.obstruction,s.created_at,m.unit
FROM report_submissions s LEFT JOIN members m ON m.id=s.member_id
WHERE s.tenant_id=? AND s.submission_date>=? AND s.submission_date<=?
ORDER BY s.submission_date ASC, s.id ASC`, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ReportSubmission
	for rows.Next() {
		var s domain.ReportSubmission
		var prior, current, obstruction, unit sql.NullString
		if err := rows.Scan(&s.ID, &s.TenantID, &s.MemberID, &s.SubmissionDate, &prior, &current, &obstruction, &s.CreatedAt, &unit); err != nil {
			return nil, err
		}
		if prior.Valid {
			s.PriorUpdate = prior.String
		}
		if current.Valid {
			s.CurrentUpdate = current.String
		}
		if obstruction.Valid {
			s.Obstruction = obstruction.String
		}
		if unit.Valid {
			s.MemberUnit = unit.String
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r Repo) InsertLeave(ctx context.Context, tx *sql.Tx, l domain.LeavePlan) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO leave_plans(id,tenant_id,member_id,status,start_date,end_date,created_at) VALUES (?,?,?,?,?,?,?)`,
		l.ID, l.TenantID, l.MemberID, l.Status, l.StartDate, l.EndDate, l.CreatedAt)
	return err
}

func (r Repo) SetLeaveStatus(ctx context.Context, tx *sql.Tx, id, status string) error {
	res, err := tx.ExecContext(ctx, `UPDATE leave_plans SET status=? WHERE id=?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetLeave(ctx context.Context, id string) (domain.LeavePlan, error) {
	var l domain.LeavePlan
	err := r.DB.QueryRowContext(ctx, `SELECT id,tenant_id,member_id,status,start_date,end_date,created_at FROM leave_plans WHERE id=?`, id).
		Scan(&l.ID, &l.TenantID, &l.MemberID, &l.Status, &l.StartDate, &l.EndDate, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return l, ErrNotFound
	}
	return l, err
}

func (r Repo) ListLeave(ctx context.Context, tenantID, status string) ([]domain.LeavePlan, error) {
	clauses := []string{"tenant_id=?"}
	args := []any{tenantID}
	if status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, status)
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id,tenant_id,member_id,status,start_date,end_date,created_at FROM leave_plans WHERE `+
		strings.Join(clauses, " AND ")+` ORDER BY start_date ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeave(rows)
}

// ApprovedLeave returns approved plans overlapping [from,to] inclusive.
func (r Repo) ApprovedLeave(ctx context.Context, tenantID, from, to string) ([]domain.LeavePlan, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,tenant_id,member_id,status,start_date,end_date,created_at
FROM leave_plans WHERE tenant_id=? AND status='approved' AND start_date<=? AND end_date>=?
ORDER BY start_date ASC, id ASC`, tenantID, to, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeave(rows)
}

func scanLeave(rows *sql.Rows) ([]domain.LeavePlan, error) {
	var res []domain.LeavePlan
	for rows.Next() {
		var l domain.LeavePlan
		if err := rows.Scan(&l.ID, &l.TenantID, &l.MemberID, &l.Status, &l.StartDate, &l.EndDate, &l.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

// LatestEvents returns the most recent ingestion events for a tenant.
func (r Repo) LatestEvents(ctx context.Context, limit int, tenantID, evtType string) ([]domain.Event, error) {
	clauses := []string{"1=1"}
	var args []any
	if tenantID != "" {
		clauses = append(clauses, "tenant_id=?")
		args = append(args, tenantID)
	}
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	query := `SELECT id,ts,type,tenant_id,entity_kind,entity_id,actor_id,payload_json FROM events WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var tenant, entityID, payload sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &tenant, &e.EntityKind, &entityID, &e.ActorID, &payload); err != nil {
			return nil, err
		}
		if tenant.Valid {
			e.TenantID = tenant.String
		}
		if entityID.Valid {
			e.EntityID = entityID.String
		}
		if payload.Valid {
			e.Payload = payload.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
