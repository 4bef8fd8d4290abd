package engine_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"teampulse/internal/config"
	"teampulse/internal/db"
	"teampulse/internal/domain"
	"teampulse/internal/engine"
	"teampulse/internal/ingest"
	"teampulse/internal/migrate"
	"teampulse/internal/repo"
)

// Monday, so the 14-day capacity horizon holds exactly 10 working days.
var testToday = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	Engine engine.Engine
	Ingest ingest.Service
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc := ingest.New(conn, config.Default("acme"))
	svc.Now = func() time.Time { return testToday }
	ctx := context.Background()
	if _, err := svc.InitTenant(ctx, "acme", "Acme", "tester"); err != nil {
		t.Fatalf("init tenant: %v", err)
	}
	eng := engine.New(repo.Repo{DB: conn})
	eng.Now = func() time.Time { return testToday }
	return testEnv{Engine: eng, Ingest: svc, Ctx: ctx}
}

func (env testEnv) addMember(t *testing.T, id, name, unit string) {
	t.Helper()
	_, err := env.Ingest.AddMember(env.Ctx, ingest.MemberOptions{
		ID: id, TenantID: "acme", DisplayName: name, Unit: unit, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("add member %s: %v", id, err)
	}
}

func (env testEnv) addCompleted(t *testing.T, completedAt string, effort float64) {
	t.Helper()
	_, err := env.Ingest.AddWorkItem(env.Ctx, ingest.WorkItemOptions{
		TenantID: "acme", Title: "done work", Effort: effort,
		Status: "Completed", CompletedAt: completedAt, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("add completed item: %v", err)
	}
}

func (env testEnv) addActive(t *testing.T, status string, effort float64) {
	t.Helper()
	_, err := env.Ingest.AddWorkItem(env.Ctx, ingest.WorkItemOptions{
		TenantID: "acme", Title: "open work", Effort: effort, Status: status, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("add active item: %v", err)
	}
}

func (env testEnv) addReport(t *testing.T, memberID, date, current, obstruction string) {
	t.Helper()
	_, err := env.Ingest.SubmitReport(env.Ctx, ingest.ReportOptions{
		TenantID: "acme", MemberID: memberID, SubmissionDate: date,
		CurrentUpdate: current, Obstruction: obstruction, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("submit report: %v", err)
	}
}

func (env testEnv) addApprovedLeave(t *testing.T, memberID, start, end string) {
	t.Helper()
	l, err := env.Ingest.AddLeave(env.Ctx, ingest.LeaveOptions{
		TenantID: "acme", MemberID: memberID, StartDate: start, EndDate: end, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("add leave: %v", err)
	}
	if _, err := env.Ingest.SetLeaveStatus(env.Ctx, l.ID, "approved", "tester"); err != nil {
		t.Fatalf("approve leave: %v", err)
	}
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestVelocityWindowAndTrend(t *testing.T) {
	env := newTestEnv(t)
	// preceding 3 days (Dec 27-29) total 20
	env.addCompleted(t, "2023-12-27T10:00:00Z", 10)
	env.addCompleted(t, "2023-12-28T10:00:00Z", 5)
	env.addCompleted(t, "2023-12-29T10:00:00Z", 5)
	// recent 3 days (Dec 30 - Jan 1) total 10
	env.addCompleted(t, "2023-12-30T10:00:00Z", 4)
	env.addCompleted(t, "2023-12-31T10:00:00Z", 3)
	env.addCompleted(t, "2024-01-01T08:00:00Z", 3)
	// outside the 14-day window, must not appear
	env.addCompleted(t, "2023-12-10T10:00:00Z", 7)

	report, err := env.Engine.Velocity(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("velocity: %v", err)
	}
	if len(report.Series) != 14 {
		t.Fatalf("series length = %d, want 14", len(report.Series))
	}
	if report.Series[0].Date != "2023-12-19" || report.Series[13].Date != "2024-01-01" {
		t.Fatalf("series bounds = %s..%s", report.Series[0].Date, report.Series[13].Date)
	}
	if report.Total != 30 {
		t.Fatalf("total = %v, want 30", report.Total)
	}
	if want := 30.0 / 14; report.Average != want {
		t.Fatalf("average = %v, want %v", report.Average, want)
	}
	if report.Peak != 10 {
		t.Fatalf("peak = %v, want 10", report.Peak)
	}
	if report.Trend != -50 {
		t.Fatalf("trend = %v, want -50", report.Trend)
	}
}

func TestVelocityTrendZeroBaseline(t *testing.T) {
	env := newTestEnv(t)
	// all effort in the recent 3 days, nothing before
	env.addCompleted(t, "2023-12-31T10:00:00Z", 6)

	report, err := env.Engine.Velocity(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("velocity: %v", err)
	}
	if report.Trend != 100 {
		t.Fatalf("trend = %v, want 100 for zero baseline", report.Trend)
	}
}

func TestVelocityEmptyStore(t *testing.T) {
	env := newTestEnv(t)
	report, err := env.Engine.Velocity(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("velocity: %v", err)
	}
	if len(report.Series) != 14 {
		t.Fatalf("series length = %d, want 14", len(report.Series))
	}
	if report.Total != 0 || report.Average != 0 || report.Peak != 0 {
		t.Fatalf("expected zeroed stats, got %+v", report)
	}
}

func TestEngagementTeamAverages(t *testing.T) {
	env := newTestEnv(t)
	env.addMember(t, "ana", "Ana", "Engineering")
	env.addMember(t, "bo", "Bo", "Design")
	// Ana: 10 reports of 25 words each; Bo submits nothing.
	for i := 0; i < 10; i++ {
		date := fmt.Sprintf("2023-12-%02d", 10+i)
		env.addReport(t, "ana", date, words(25), "")
	}

	dims, err := env.Engine.Engagement(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("engagement: %v", err)
	}
	if len(dims) != 5 {
		t.Fatalf("dims = %d, want 5", len(dims))
	}
	// Ana consistency 10/20 -> 50, Bo 0; team 25.
	if dims[0].Subject != "Consistency" || dims[0].Value != 25 {
		t.Fatalf("consistency = %+v, want 25", dims[0])
	}
	// Ana detail 25/50 words -> 50, Bo contributes nothing; team 25.
	if dims[1].Subject != "Detail Level" || dims[1].Value != 25 {
		t.Fatalf("detail = %+v, want 25", dims[1])
	}
	if dims[0].Placeholder || dims[1].Placeholder {
		t.Fatal("measured dimensions must not be flagged placeholder")
	}
	fixed := map[string]float64{"Blocker Clarity": 85, "Submission Speed": 70, "Task Alignment": 90}
	for _, d := range dims[2:] {
		if !d.Placeholder {
			t.Fatalf("%s must be flagged placeholder", d.Subject)
		}
		if want, ok := fixed[d.Subject]; !ok || d.Value != want {
			t.Fatalf("placeholder %s = %v, want %v", d.Subject, d.Value, want)
		}
	}
}

func TestEngagementClampedAt100(t *testing.T) {
	env := newTestEnv(t)
	env.addMember(t, "ana", "Ana", "Engineering")
	// 25 submissions (over the 20 expected) of 120 words each.
	day := time.Date(2023, 12, 8, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		env.addReport(t, "ana", day.AddDate(0, 0, i).Format("2006-01-02"), words(120), "")
	}

	dims, err := env.Engine.Engagement(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("engagement: %v", err)
	}
	if dims[0].Value != 100 {
		t.Fatalf("consistency = %v, want clamp at 100", dims[0].Value)
	}
	if dims[1].Value != 100 {
		t.Fatalf("detail = %v, want clamp at 100", dims[1].Value)
	}
}

func TestEngagementNoMembers(t *testing.T) {
	env := newTestEnv(t)
	dims, err := env.Engine.Engagement(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("engagement: %v", err)
	}
	if dims[0].Value != 0 || dims[1].Value != 0 {
		t.Fatalf("measured dims = %v/%v, want 0/0 for empty roster", dims[0].Value, dims[1].Value)
	}
}

func TestCapacityWeekendsAndLeave(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 10; i++ {
		env.addMember(t, fmt.Sprintf("m%d", i), fmt.Sprintf("Member %d", i), "Engineering")
	}
	env.addApprovedLeave(t, "m0", "2024-01-02", "2024-01-03")
	// pending leave must not reduce capacity
	if _, err := env.Ingest.AddLeave(env.Ctx, ingest.LeaveOptions{
		TenantID: "acme", MemberID: "m1", StartDate: "2024-01-04", EndDate: "2024-01-05", ActorID: "tester",
	}); err != nil {
		t.Fatalf("add pending leave: %v", err)
	}
	env.addActive(t, "In Progress", 20)
	env.addActive(t, "To Do", 10)
	// completed effort must not count as load
	env.addCompleted(t, "2023-12-30T10:00:00Z", 99)

	report, err := env.Engine.Capacity(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("capacity: %v", err)
	}
	if len(report.Daily) != 14 {
		t.Fatalf("daily length = %d, want 14", len(report.Daily))
	}
	byDate := map[string]domain.CapacityDay{}
	for _, d := range report.Daily {
		byDate[d.Date] = d
	}
	if d := byDate["2024-01-06"]; d.Available != 0 { // Saturday
		t.Fatalf("saturday available = %d, want 0", d.Available)
	}
	if d := byDate["2024-01-07"]; d.Available != 0 { // Sunday
		t.Fatalf("sunday available = %d, want 0", d.Available)
	}
	if d := byDate["2024-01-02"]; d.Available != 9 {
		t.Fatalf("leave day available = %d, want 9", d.Available)
	}
	if d := byDate["2024-01-04"]; d.Available != 10 {
		t.Fatalf("pending-leave day available = %d, want 10", d.Available)
	}
	if d := byDate["2024-01-05"]; d.Capacity != 10 || d.Load != 3 {
		t.Fatalf("day = %+v, want capacity 10 load 3", d)
	}
	// 10 working days x 10 members, minus 2 leave days
	if report.TotalAvailable != 98 {
		t.Fatalf("total available = %d, want 98", report.TotalAvailable)
	}
	if report.CurrentLoad != 30 {
		t.Fatalf("current load = %v, want 30", report.CurrentLoad)
	}
	if report.LoadPercentage != 31 {
		t.Fatalf("load pct = %d, want 31", report.LoadPercentage)
	}
	if report.RiskLevel != "Optimal" || report.LoadLabel != "Optimal" {
		t.Fatalf("risk=%s label=%s, want Optimal/Optimal", report.RiskLevel, report.LoadLabel)
	}
}

func TestCapacitySaturationBoundary(t *testing.T) {
	// exactly 80% of available is not saturated; the comparison is strict
	env := newTestEnv(t)
	env.addMember(t, "solo", "Solo", "Engineering")
	env.addActive(t, "In Progress", 8)

	report, err := env.Engine.Capacity(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("capacity: %v", err)
	}
	if report.TotalAvailable != 10 {
		t.Fatalf("total available = %d, want 10", report.TotalAvailable)
	}
	if report.RiskLevel != "Optimal" {
		t.Fatalf("risk = %s, want Optimal at exactly 80%%", report.RiskLevel)
	}
	if report.LoadPercentage != 80 || report.LoadLabel != "Medium" {
		t.Fatalf("pct=%d label=%s, want 80/Medium", report.LoadPercentage, report.LoadLabel)
	}

	env.addActive(t, "Review", 1)
	report, err = env.Engine.Capacity(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("capacity: %v", err)
	}
	if report.RiskLevel != "High" {
		t.Fatalf("risk = %s, want High above 80%%", report.RiskLevel)
	}
	if report.LoadPercentage != 90 || report.LoadLabel != "High" {
		t.Fatalf("pct=%d label=%s, want 90/High", report.LoadPercentage, report.LoadLabel)
	}
}

func TestCapacityEmptyRoster(t *testing.T) {
	env := newTestEnv(t)
	env.addActive(t, "To Do", 5)
	report, err := env.Engine.Capacity(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("capacity: %v", err)
	}
	if report.TotalAvailable != 0 {
		t.Fatalf("total available = %d, want 0", report.TotalAvailable)
	}
	if report.LoadPercentage != 100 {
		t.Fatalf("load pct = %d, want 100 with pending effort and nobody available", report.LoadPercentage)
	}
	if report.RiskLevel != "High" {
		t.Fatalf("risk = %s, want High", report.RiskLevel)
	}
}

func TestBlockersClusteredByUnit(t *testing.T) {
	env := newTestEnv(t)
	env.addMember(t, "e1", "Eng One", "Engineering")
	env.addMember(t, "e2", "Eng Two", "Engineering")
	env.addMember(t, "d1", "Des One", "Design")
	env.addMember(t, "u1", "Floater", "")

	env.addReport(t, "e1", "2023-12-20", "progress", "CI flaky")
	env.addReport(t, "d1", "2023-12-21", "progress", "Waiting on assets")
	env.addReport(t, "e2", "2023-12-22", "progress", "Env down")
	env.addReport(t, "u1", "2023-12-23", "progress", "Unclear requirements")
	env.addReport(t, "e2", "2023-12-25", "progress", "") // no obstruction, skipped
	env.addReport(t, "e1", "2023-12-28", "progress", "Review backlog")

	clusters, err := env.Engine.Blockers(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("blockers: %v", err)
	}
	if len(clusters) != 3 {
		t.Fatalf("clusters = %d, want 3", len(clusters))
	}
	if clusters[0].Unit != "Engineering" || clusters[0].Count != 3 {
		t.Fatalf("top cluster = %+v, want Engineering x3", clusters[0])
	}
	if clusters[0].Latest != "Review backlog" {
		t.Fatalf("latest = %q, want most recent obstruction", clusters[0].Latest)
	}
	// count tie keeps submission order: Design reported before Unassigned
	if clusters[1].Unit != "Design" || clusters[2].Unit != "Unassigned" {
		t.Fatalf("tie order = %s, %s; want Design, Unassigned", clusters[1].Unit, clusters[2].Unit)
	}
}

func TestBlockersNoneReported(t *testing.T) {
	env := newTestEnv(t)
	env.addMember(t, "ana", "Ana", "Engineering")
	env.addReport(t, "ana", "2023-12-20", "all clear", "")

	clusters, err := env.Engine.Blockers(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("blockers: %v", err)
	}
	if len(clusters) != 0 {
		t.Fatalf("clusters = %v, want none", clusters)
	}
}

func hasCode(findings []domain.RiskFinding, code string) bool {
	for _, f := range findings {
		if f.Code == code {
			return true
		}
	}
	return false
}

func TestSentinelAllClear(t *testing.T) {
	env := newTestEnv(t)
	env.addMember(t, "ana", "Ana", "Engineering")
	// 20 detailed reports keep engagement above the alignment target
	day := time.Date(2023, 12, 13, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		env.addReport(t, "ana", day.AddDate(0, 0, i).Format("2006-01-02"), words(60), "")
	}

	findings, err := env.Engine.Sentinel(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("sentinel: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("findings = %+v, want exactly the all-clear", findings)
	}
	f := findings[0]
	if f.Code != "SY-00" || f.Category != domain.CategorySystem || f.Severity != domain.SeverityOptimal {
		t.Fatalf("all-clear = %+v", f)
	}
	if f.Message != "All operational parameters within standard deviation." {
		t.Fatalf("message = %q", f.Message)
	}
}

func TestSentinelVelocityDrop(t *testing.T) {
	env := newTestEnv(t)
	// preceding 3 days total 20, recent 3 days total 10: a 50% drop
	env.addCompleted(t, "2023-12-27T10:00:00Z", 10)
	env.addCompleted(t, "2023-12-28T10:00:00Z", 5)
	env.addCompleted(t, "2023-12-29T10:00:00Z", 5)
	env.addCompleted(t, "2023-12-31T10:00:00Z", 10)

	findings, err := env.Engine.Sentinel(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("sentinel: %v", err)
	}
	if !hasCode(findings, "RV-01") {
		t.Fatalf("findings = %+v, want RV-01", findings)
	}
	for _, f := range findings {
		if f.Code == "RV-01" && (f.Severity != domain.SeverityHigh || f.Category != domain.CategoryVelocity) {
			t.Fatalf("RV-01 = %+v", f)
		}
	}
	if hasCode(findings, "SY-00") {
		t.Fatal("all-clear must not accompany findings")
	}
}

func TestSentinelCapacitySaturation(t *testing.T) {
	env := newTestEnv(t)
	env.addMember(t, "solo", "Solo", "Engineering")
	env.addActive(t, "In Progress", 20)

	findings, err := env.Engine.Sentinel(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("sentinel: %v", err)
	}
	if !hasCode(findings, "RS-09") {
		t.Fatalf("findings = %+v, want RS-09", findings)
	}
	for _, f := range findings {
		if f.Code == "RS-09" && f.Severity != domain.SeverityCritical {
			t.Fatalf("RS-09 severity = %s, want Critical", f.Severity)
		}
	}
}

func TestSentinelBlockerFriction(t *testing.T) {
	env := newTestEnv(t)
	env.addMember(t, "ana", "Ana", "Engineering")
	day := time.Date(2023, 12, 18, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		env.addReport(t, "ana", day.AddDate(0, 0, i).Format("2006-01-02"), "progress", "blocked again")
	}

	findings, err := env.Engine.Sentinel(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("sentinel: %v", err)
	}
	if !hasCode(findings, "FD-05") {
		t.Fatalf("findings = %+v, want FD-05 above 5 blockers", findings)
	}
}

func TestSentinelBlockerThresholdExact(t *testing.T) {
	env := newTestEnv(t)
	env.addMember(t, "ana", "Ana", "Engineering")
	day := time.Date(2023, 12, 18, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		env.addReport(t, "ana", day.AddDate(0, 0, i).Format("2006-01-02"), "progress", "blocked")
	}

	findings, err := env.Engine.Sentinel(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("sentinel: %v", err)
	}
	if hasCode(findings, "FD-05") {
		t.Fatal("exactly 5 blockers must not trigger FD-05")
	}
}

func TestSnapshotMatchesEngine(t *testing.T) {
	env := newTestEnv(t)
	env.addMember(t, "ana", "Ana", "Engineering")
	env.addMember(t, "bo", "Bo", "Design")
	env.addCompleted(t, "2023-12-28T10:00:00Z", 5)
	env.addCompleted(t, "2023-12-31T10:00:00Z", 2)
	env.addActive(t, "In Progress", 12)
	env.addApprovedLeave(t, "bo", "2024-01-03", "2024-01-04")
	env.addReport(t, "ana", "2023-12-20", words(30), "CI flaky")
	env.addReport(t, "bo", "2023-12-21", words(10), "")

	snap, err := env.Engine.Snapshot(env.Ctx, "acme")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	velocity, err := env.Engine.Velocity(env.Ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(velocity, snap.Velocity()); diff != "" {
		t.Errorf("velocity mismatch (-engine +snapshot):\n%s", diff)
	}
	dims, err := env.Engine.Engagement(env.Ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(dims, snap.Engagement()); diff != "" {
		t.Errorf("engagement mismatch (-engine +snapshot):\n%s", diff)
	}
	capacity, err := env.Engine.Capacity(env.Ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(capacity, snap.Capacity()); diff != "" {
		t.Errorf("capacity mismatch (-engine +snapshot):\n%s", diff)
	}
	clusters, err := env.Engine.Blockers(env.Ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(clusters, snap.Blockers()); diff != "" {
		t.Errorf("blockers mismatch (-engine +snapshot):\n%s", diff)
	}
	findings, err := env.Engine.Sentinel(env.Ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(findings, snap.Sentinel()); diff != "" {
		t.Errorf("sentinel mismatch (-engine +snapshot):\n%s", diff)
	}
}

func TestTenantRequired(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.Velocity(env.Ctx, ""); !errors.Is(err, engine.ErrTenantRequired) {
		t.Fatalf("velocity err = %v", err)
	}
	if _, err := env.Engine.Sentinel(env.Ctx, "  "); !errors.Is(err, engine.ErrTenantRequired) {
		t.Fatalf("sentinel err = %v", err)
	}
	if _, err := env.Engine.Snapshot(env.Ctx, ""); !errors.Is(err, engine.ErrTenantRequired) {
		t.Fatalf("snapshot err = %v", err)
	}
}
