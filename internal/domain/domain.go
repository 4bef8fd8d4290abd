package domain

type Tenant struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Member struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"`
	DisplayName string `json:"display_name"`
	Unit        string `json:"unit,omitempty"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type WorkItem struct {
	ID          string  `json:"id"`
	TenantID    string  `json:"tenant_id"`
	Title       string  `json:"title"`
	Effort      float64 `json:"effort"`
	Status      string  `json:"status" enum:"To Do,In Progress,Review,Completed"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
	CompletedAt *string `json:"completed_at,omitempty" format:"date-time"`
}

type ReportSubmission struct {
	ID             string `json:"id"`
	TenantID       string `json:"tenant_id"`
	MemberID       string `json:"member_id"`
	SubmissionDate string `json:"submission_date" format:"date"`
	PriorUpdate    string `json:"prior_update,omitempty"`
	CurrentUpdate  string `json:"current_update,omitempty"`
	Obstruction    string `json:"obstruction,omitempty"`
	CreatedAt      string `json:"created_at" format:"date-time"`
	// MemberUnit is filled by queries that join through members.
	MemberUnit string `json:"member_unit,omitempty"`
}

type LeavePlan struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	MemberID  string `json:"member_id"`
	Status    string `json:"status" enum:"pending,approved,declined"`
	StartDate string `json:"start_date" format:"date"`
	EndDate   string `json:"end_date" format:"date"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	TenantID   string `json:"tenant_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// RiskCategory classifies a sentinel finding.
type RiskCategory string

const (
	CategoryVelocity  RiskCategory = "Velocity"
	CategoryAlignment RiskCategory = "Alignment"
	CategoryCapacity  RiskCategory = "Capacity"
	CategoryFriction  RiskCategory = "Friction"
	CategorySystem    RiskCategory = "System"
)

// RiskSeverity ranks a sentinel finding.
type RiskSeverity string

const (
	SeverityCritical RiskSeverity = "Critical"
	SeverityHigh     RiskSeverity = "High"
	SeverityMedium   RiskSeverity = "Medium"
	SeverityLow      RiskSeverity = "Low"
	SeverityOptimal  RiskSeverity = "Optimal"
)

// RiskFinding is a derived sentinel output; it is never persisted.
type RiskFinding struct {
	Code     string       `json:"code"`
	Category RiskCategory `json:"category" enum:"Velocity,Alignment,Capacity,Friction,System"`
	Severity RiskSeverity `json:"severity" enum:"Critical,High,Medium,Low,Optimal"`
	Message  string       `json:"message"`
}

// VelocityDay is one bucket of the trailing velocity window.
type VelocityDay struct {
	Date     string  `json:"date" format:"date"`
	Velocity float64 `json:"velocity"`
	Count    int     `json:"count"`
}

type VelocityReport struct {
	Series  []VelocityDay `json:"series"`
	Total   float64       `json:"total"`
	Average float64       `json:"average"`
	Peak    float64       `json:"peak"`
	Trend   float64       `json:"trend"`
}

// EngagementDimension is one team-level engagement axis. Placeholder marks
// dimensions that are not yet measured from data.
type EngagementDimension struct {
	Subject     string  `json:"subject"`
	Value       float64 `json:"value"`
	Placeholder bool    `json:"placeholder,omitempty"`
}

// CapacityDay is one bucket of the forward capacity horizon.
type CapacityDay struct {
	Date      string  `json:"date" format:"date"`
	Available int     `json:"available"`
	Capacity  int     `json:"capacity"`
	Load      float64 `json:"load"`
}

type CapacityReport struct {
	Daily          []CapacityDay `json:"daily"`
	TotalAvailable int           `json:"total_available"`
	CurrentLoad    float64       `json:"current_load"`
	RiskLevel      string        `json:"risk_level" enum:"High,Optimal"`
	LoadPercentage int           `json:"load_percentage"`
	LoadLabel      string        `json:"load_label" enum:"High,Medium,Optimal"`
}

// BlockerCluster groups obstruction reports by organizational unit.
type BlockerCluster struct {
	Unit   string `json:"unit"`
	Count  int    `json:"count"`
	Latest string `json:"latest"`
}
