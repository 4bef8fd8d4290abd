package teampulsesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal TeamPulse HTTP API client.
type Client struct {
	BaseURL    string
	TenantID   string
	ActorID    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, tenantID string) *Client {
	return &Client{
		BaseURL:  baseURL,
		TenantID: tenantID,
		Timeout:  10 * time.Second,
	}
}

// Member represents the API member model.
type Member struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"`
	DisplayName string `json:"display_name"`
	Unit        string `json:"unit,omitempty"`
}

// WorkItem represents the API work item model (partial).
type WorkItem struct {
	ID          string  `json:"id"`
	TenantID    string  `json:"tenant_id"`
	Title       string  `json:"title"`
	Status      string  `json:"status"`
	Effort      float64 `json:"effort"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// Report represents a daily status submission.
type Report struct {
	ID             string `json:"id"`
	TenantID       string `json:"tenant_id"`
	MemberID       string `json:"member_id"`
	SubmissionDate string `json:"submission_date"`
	PriorUpdate    string `json:"prior_update,omitempty"`
	CurrentUpdate  string `json:"current_update,omitempty"`
	Obstruction    string `json:"obstruction,omitempty"`
}

// LeavePlan represents a leave request.
type LeavePlan struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	MemberID  string `json:"member_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
}

// VelocityDay is one day of the velocity series.
type VelocityDay struct {
	Date     string  `json:"date"`
	Velocity float64 `json:"velocity"`
	Count    int     `json:"count"`
}

// VelocityReport is the trailing 14-day effort summary.
type VelocityReport struct {
	Series  []VelocityDay `json:"series"`
	Total   float64       `json:"total"`
	Average float64       `json:"average"`
	Peak    float64       `json:"peak"`
	Trend   float64       `json:"trend"`
}

// EngagementDimension is one scored team dimension.
type EngagementDimension struct {
	Subject     string  `json:"subject"`
	Value       float64 `json:"value"`
	Placeholder bool    `json:"placeholder,omitempty"`
}

// CapacityDay is one day of the capacity forecast.
type CapacityDay struct {
	Date      string  `json:"date"`
	Available int     `json:"available"`
	Capacity  int     `json:"capacity"`
	Load      float64 `json:"load"`
}

// CapacityReport is the 14-day capacity forecast.
type CapacityReport struct {
	Daily          []CapacityDay `json:"daily"`
	TotalAvailable int           `json:"total_available"`
	CurrentLoad    float64       `json:"current_load"`
	RiskLevel      string        `json:"risk_level"`
	LoadPercentage int           `json:"load_percentage"`
	LoadLabel      string        `json:"load_label"`
}

// BlockerCluster groups obstruction reports by unit.
type BlockerCluster struct {
	Unit   string `json:"unit"`
	Count  int    `json:"count"`
	Latest string `json:"latest"`
}

// RiskFinding is one sentinel finding.
type RiskFinding struct {
	Code     string `json:"code"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// AnalyticsSnapshot bundles every metric from one consistent read.
type AnalyticsSnapshot struct {
	Velocity   VelocityReport        `json:"velocity"`
	Engagement []EngagementDimension `json:"engagement"`
	Capacity   CapacityReport        `json:"capacity"`
	Blockers   []BlockerCluster      `json:"blockers"`
	Sentinel   []RiskFinding         `json:"sentinel"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// AddMember creates a member.
func (c *Client) AddMember(ctx context.Context, displayName, unit string) (Member, error) {
	body := map[string]any{
		"display_name": displayName,
		"unit":         unit,
	}
	var resp Member
	err := c.do(ctx, http.MethodPost, c.tenantPath("members"), body, &resp)
	return resp, err
}

// Members lists members.
func (c *Client) Members(ctx context.Context) ([]Member, error) {
	var resp []Member
	err := c.do(ctx, http.MethodGet, c.tenantPath("members"), nil, &resp)
	return resp, err
}

// AddWorkItem creates a work item.
func (c *Client) AddWorkItem(ctx context.Context, title string, effort float64, status string) (WorkItem, error) {
	body := map[string]any{
		"title":  title,
		"effort": effort,
	}
	if status != "" {
		body["status"] = status
	}
	var resp WorkItem
	err := c.do(ctx, http.MethodPost, c.tenantPath("work-items"), body, &resp)
	return resp, err
}

// SetWorkItemStatus moves a work item to a new status.
func (c *Client) SetWorkItemStatus(ctx context.Context, itemID, status string) (WorkItem, error) {
	body := map[string]any{"status": status}
	var resp WorkItem
	endpoint := c.tenantPath(fmt.Sprintf("work-items/%s/status", url.PathEscape(itemID)))
	err := c.do(ctx, http.MethodPut, endpoint, body, &resp)
	return resp, err
}

// SubmitReport submits a daily report for a member.
func (c *Client) SubmitReport(ctx context.Context, memberID, date, prior, current, obstruction string) (Report, error) {
	body := map[string]any{
		"member_id":       memberID,
		"submission_date": date,
		"prior_update":    prior,
		"current_update":  current,
		"obstruction":     obstruction,
	}
	var resp Report
	err := c.do(ctx, http.MethodPost, c.tenantPath("reports"), body, &resp)
	return resp, err
}

// AddLeave requests leave for a member.
func (c *Client) AddLeave(ctx context.Context, memberID, startDate, endDate string) (LeavePlan, error) {
	body := map[string]any{
		"member_id":  memberID,
		"start_date": startDate,
		"end_date":   endDate,
	}
	var resp LeavePlan
	err := c.do(ctx, http.MethodPost, c.tenantPath("leave"), body, &resp)
	return resp, err
}

// SetLeaveStatus approves or declines a leave plan.
func (c *Client) SetLeaveStatus(ctx context.Context, leaveID, status string) (LeavePlan, error) {
	body := map[string]any{"status": status}
	var resp LeavePlan
	endpoint := c.tenantPath(fmt.Sprintf("leave/%s/status", url.PathEscape(leaveID)))
	err := c.do(ctx, http.MethodPut, endpoint, body, &resp)
	return resp, err
}

// Velocity returns the trailing 14-day velocity report.
func (c *Client) Velocity(ctx context.Context) (VelocityReport, error) {
	var resp VelocityReport
	err := c.do(ctx, http.MethodGet, c.tenantPath("analytics/velocity"), nil, &resp)
	return resp, err
}

// Engagement returns the team engagement dimensions.
func (c *Client) Engagement(ctx context.Context) ([]EngagementDimension, error) {
	var resp []EngagementDimension
	err := c.do(ctx, http.MethodGet, c.tenantPath("analytics/engagement"), nil, &resp)
	return resp, err
}

// Capacity returns the 14-day capacity forecast.
func (c *Client) Capacity(ctx context.Context) (CapacityReport, error) {
	var resp CapacityReport
	err := c.do(ctx, http.MethodGet, c.tenantPath("analytics/capacity"), nil, &resp)
	return resp, err
}

// Blockers returns blocker clusters by unit.
func (c *Client) Blockers(ctx context.Context) ([]BlockerCluster, error) {
	var resp []BlockerCluster
	err := c.do(ctx, http.MethodGet, c.tenantPath("analytics/blockers"), nil, &resp)
	return resp, err
}

// Sentinel returns the current risk findings.
func (c *Client) Sentinel(ctx context.Context) ([]RiskFinding, error) {
	var resp []RiskFinding
	err := c.do(ctx, http.MethodGet, c.tenantPath("analytics/sentinel"), nil, &resp)
	return resp, err
}

// Snapshot returns every metric computed from one read.
func (c *Client) Snapshot(ctx context.Context) (AnalyticsSnapshot, error) {
	var resp AnalyticsSnapshot
	err := c.do(ctx, http.MethodGet, c.tenantPath("analytics"), nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.ActorID != "" {
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) tenantPath(p string) string {
	tenant := url.PathEscape(c.TenantID)
	return fmt.Sprintf("v0/tenants/%s/%s", tenant, strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
