package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"teampulse/internal/domain"
	"teampulse/internal/engine"
)

func velocityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "velocity",
		Short: "Completed effort over the trailing 14 days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, tenantID string) error {
				report, err := e.Velocity(ctx, tenantID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(report)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Date", "Velocity", "Items"})
				for _, d := range report.Series {
					tw.AppendRow(table.Row{d.Date, fmt.Sprintf("%.1f", d.Velocity), d.Count})
				}
				tw.AppendFooter(table.Row{"Total", fmt.Sprintf("%.1f", report.Total), ""})
				tw.Render()
				fmt.Printf("Average %.2f effort/day, peak %.1f, trend %+.1f%%\n", report.Average, report.Peak, report.Trend)
				return nil
			})
		},
	}
}

func engagementCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engagement",
		Short: "Team engagement dimensions from 30 days of reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, tenantID string) error {
				dims, err := e.Engagement(ctx, tenantID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(dims)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Dimension", "Score", ""})
				for _, d := range dims {
					note := ""
					if d.Placeholder {
						note = "placeholder"
					}
					tw.AppendRow(table.Row{d.Subject, fmt.Sprintf("%.0f", d.Value), note})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func capacityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capacity",
		Short: "Capacity forecast for the next 14 days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, tenantID string) error {
				report, err := e.Capacity(ctx, tenantID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(report)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Date", "Available", "Capacity", "Load"})
				for _, d := range report.Daily {
					tw.AppendRow(table.Row{d.Date, d.Available, d.Capacity, fmt.Sprintf("%.1f", d.Load)})
				}
				tw.Render()
				fmt.Printf("Total available %d person-days, load %.1f effort-days (%d%%, %s), risk %s\n",
					report.TotalAvailable, report.CurrentLoad, report.LoadPercentage, report.LoadLabel, report.RiskLevel)
				return nil
			})
		},
	}
}

func blockersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blockers",
		Short: "Obstruction reports clustered by unit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, tenantID string) error {
				clusters, err := e.Blockers(ctx, tenantID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(clusters)
				}
				if len(clusters) == 0 {
					fmt.Println("No obstructions reported in the last 30 days.")
					return nil
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Unit", "Count", "Latest"})
				for _, c := range clusters {
					tw.AppendRow(table.Row{c.Unit, c.Count, c.Latest})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func sentinelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sentinel",
		Short: "Risk findings synthesized from all metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, tenantID string) error {
				findings, err := e.Sentinel(ctx, tenantID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(findings)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Code", "Category", "Severity", "Message"})
				for _, f := range findings {
					tw.AppendRow(table.Row{f.Code, f.Category, f.Severity, f.Message})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func renderMembers(members []domain.Member) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Name", "Unit"})
	for _, m := range members {
		tw.AppendRow(table.Row{m.ID, m.DisplayName, m.Unit})
	}
	tw.Render()
}

func renderWorkItems(items []domain.WorkItem) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Title", "Status", "Effort", "Assignee"})
	for _, w := range items {
		assignee := ""
		if w.AssigneeID != nil {
			assignee = *w.AssigneeID
		}
		tw.AppendRow(table.Row{w.ID, w.Title, w.Status, fmt.Sprintf("%.1f", w.Effort), assignee})
	}
	tw.Render()
}
