package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"teampulse/internal/app"
	"teampulse/internal/config"
	"teampulse/internal/db"
	"teampulse/internal/engine"
	"teampulse/internal/ingest"
	"teampulse/internal/migrate"
	"teampulse/internal/repo"
	"teampulse/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "tp",
	Short: "TeamPulse CLI",
	Long: `TeamPulse turns raw team activity into operational metrics and risk findings.
Records (what goes in):
- Members: the people on the team, each optionally tagged with an organizational unit.
- Work items: tracked work with an effort estimate in effort-days; completed items feed velocity, active ones feed capacity.
- Reports: one daily status submission per member with prior/current updates and an optional obstruction.
- Leave: requested time off; only approved plans reduce forecast capacity.
Metrics (what comes out, all read-only):
- velocity: completed effort per day over the trailing 14 days with trend.
- engagement: five team dimensions from 30 days of report submissions.
- capacity: available headcount over the next 14 days net of weekends and leave.
- blockers: obstruction reports clustered by unit.
- sentinel: severity-ranked risk findings synthesized from the four metrics.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TEAMPULSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("tenant", "", "tenant id (overrides config)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("tenant", rootCmd.PersistentFlags().Lookup("tenant"))
}

func registerCommands() {
	rootCmd.AddCommand(tenantCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(memberCmd())
	rootCmd.AddCommand(itemCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(leaveCmd())
	rootCmd.AddCommand(velocityCmd())
	rootCmd.AddCommand(engagementCmd())
	rootCmd.AddCommand(capacityCmd())
	rootCmd.AddCommand(blockersCmd())
	rootCmd.AddCommand(sentinelCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func tenantCmd() *cobra.Command {
	tenant := &cobra.Command{Use: "tenant", Short: "Manage tenants"}
	tenant.AddCommand(tenantInitCmd())
	tenant.AddCommand(tenantListCmd())
	return tenant
}

func tenantInitCmd() *cobra.Command {
	var id, name string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			// no tenant resolution here: this is the bootstrap path
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			svc := ingest.New(conn, cfg)
			t, err := svc.InitTenant(cmd.Context(), id, name, viper.GetString("actor-id"))
			if err != nil {
				return err
			}
			return printJSONOrTable(t)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "tenant id")
	cmd.Flags().StringVar(&name, "name", "", "tenant display name")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func tenantListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				tenants, err := r.ListTenants(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(tenants)
			})
		},
	}
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage workspace config"}
	cfg.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default teampulse.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			tenantID := viper.GetString("tenant")
			if tenantID == "" {
				return fmt.Errorf("--tenant required")
			}
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(tenantID)), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the active config",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(c)
		},
	})
	return cfg
}

func memberCmd() *cobra.Command {
	member := &cobra.Command{Use: "member", Short: "Manage members"}
	member.AddCommand(memberAddCmd())
	member.AddCommand(memberListCmd())
	return member
}

func memberAddCmd() *cobra.Command {
	var opts ingest.MemberOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a member",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withIngest(cmd.Context(), func(ctx context.Context, svc ingest.Service, tenantID string) error {
				if opts.TenantID == "" {
					opts.TenantID = tenantID
				}
				m, err := svc.AddMember(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "member id (random UUID if omitted)")
	cmd.Flags().StringVar(&opts.DisplayName, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Unit, "unit", "", "organizational unit")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func memberListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List members",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withIngest(cmd.Context(), func(ctx context.Context, svc ingest.Service, tenantID string) error {
				members, err := svc.Repo.ListMembers(ctx, tenantID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(members)
				}
				renderMembers(members)
				return nil
			})
		},
	}
}

func itemCmd() *cobra.Command {
	item := &cobra.Command{
		Use:   "item",
		Short: "Manage work items",
		Long:  "Work items carry the effort-day estimates behind velocity and capacity. Statuses: To Do, In Progress, Review, Completed.",
	}
	item.AddCommand(itemAddCmd())
	item.AddCommand(itemListCmd())
	item.AddCommand(itemSetStatusCmd())
	return item
}

func itemAddCmd() *cobra.Command {
	var opts ingest.WorkItemOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a work item",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withIngest(cmd.Context(), func(ctx context.Context, svc ingest.Service, tenantID string) error {
				if opts.TenantID == "" {
					opts.TenantID = tenantID
				}
				w, err := svc.AddWorkItem(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(w)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "item id (random UUID if omitted)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "title")
	cmd.Flags().Float64Var(&opts.Effort, "effort", 0, "effort in effort-days")
	cmd.Flags().StringVar(&opts.Status, "status", "To Do", "status")
	cmd.Flags().StringVar(&opts.AssigneeID, "assignee-id", "", "assignee member id")
	cmd.Flags().StringVar(&opts.CompletedAt, "completed-at", "", "completion timestamp (RFC3339, Completed only)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func itemListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withIngest(cmd.Context(), func(ctx context.Context, svc ingest.Service, tenantID string) error {
				items, err := svc.Repo.ListWorkItems(ctx, repo.WorkItemFilters{TenantID: tenantID, Status: status})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				renderWorkItems(items)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	return cmd
}

func itemSetStatusCmd() *cobra.Command {
	var id, status string
	cmd := &cobra.Command{
		Use:   "set-status",
		Short: "Set work item status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withIngest(cmd.Context(), func(ctx context.Context, svc ingest.Service, _ string) error {
				w, err := svc.SetWorkItemStatus(ctx, id, status, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(w)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "item id")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func reportCmd() *cobra.Command {
	report := &cobra.Command{Use: "report", Short: "Manage daily reports"}
	report.AddCommand(reportAddCmd())
	report.AddCommand(reportListCmd())
	return report
}

func reportAddCmd() *cobra.Command {
	var opts ingest.ReportOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit a daily report",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withIngest(cmd.Context(), func(ctx context.Context, svc ingest.Service, tenantID string) error {
				if opts.TenantID == "" {
					opts.TenantID = tenantID
				}
				s, err := svc.SubmitReport(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&opts.MemberID, "member-id", "", "member id")
	cmd.Flags().StringVar(&opts.SubmissionDate, "date", "", "submission date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&opts.PriorUpdate, "prior", "", "what was done previously")
	cmd.Flags().StringVar(&opts.CurrentUpdate, "current", "", "what is planned next")
	cmd.Flags().StringVar(&opts.Obstruction, "obstruction", "", "what is blocking, if anything")
	_ = cmd.MarkFlagRequired("member-id")
	return cmd
}

func reportListCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withIngest(cmd.Context(), func(ctx context.Context, svc ingest.Service, tenantID string) error {
				to := time.Now()
				from := to.AddDate(0, 0, -(days - 1))
				subs, err := svc.Repo.Submissions(ctx, tenantID, from.Format("2006-01-02"), to.Format("2006-01-02"))
				if err != nil {
					return err
				}
				return printJSONOrTable(subs)
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "trailing days to include")
	return cmd
}

func leaveCmd() *cobra.Command {
	leave := &cobra.Command{Use: "leave", Short: "Manage leave plans"}
	leave.AddCommand(leaveAddCmd())
	leave.AddCommand(leaveSetStatusCmd("approve", "approved"))
	leave.AddCommand(leaveSetStatusCmd("decline", "declined"))
	leave.AddCommand(leaveListCmd())
	return leave
}

func leaveAddCmd() *cobra.Command {
	var opts ingest.LeaveOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Request leave",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withIngest(cmd.Context(), func(ctx context.Context, svc ingest.Service, tenantID string) error {
				if opts.TenantID == "" {
					opts.TenantID = tenantID
				}
				l, err := svc.AddLeave(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(l)
			})
		},
	}
	cmd.Flags().StringVar(&opts.MemberID, "member-id", "", "member id")
	cmd.Flags().StringVar(&opts.StartDate, "start", "", "start date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&opts.EndDate, "end", "", "end date (YYYY-MM-DD, inclusive)")
	_ = cmd.MarkFlagRequired("member-id")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func leaveSetStatusCmd(use, status string) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   use,
		Short: "Mark a leave plan " + status,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withIngest(cmd.Context(), func(ctx context.Context, svc ingest.Service, _ string) error {
				l, err := svc.SetLeaveStatus(ctx, id, status, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(l)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "leave plan id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func leaveListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leave plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withIngest(cmd.Context(), func(ctx context.Context, svc ingest.Service, tenantID string) error {
				plans, err := svc.Repo.ListLeave(ctx, tenantID, status)
				if err != nil {
					return err
				}
				return printJSONOrTable(plans)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter (pending, approved, declined)")
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Inspect the event log"}
	var n int
	var evtType string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Tail ingestion events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withIngest(cmd.Context(), func(ctx context.Context, svc ingest.Service, tenantID string) error {
				events, err := svc.Repo.LatestEvents(ctx, n, tenantID, evtType)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	tail.Flags().StringVar(&evtType, "type", "", "event type filter")
	log.AddCommand(tail)
	return log
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			_, cfg, err := app.ResolveTenantAndConfig(cmd.Context(), workspace, viper.GetString("tenant"), viper.GetString("actor-id"), r)
			if err != nil {
				return err
			}
			handler, err := server.New(server.Config{
				Engine:   engine.New(r),
				Ingest:   ingest.New(conn, cfg),
				BasePath: basePath,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving TeamPulse API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine, string) error) error {
	return withConn(ctx, func(ctx context.Context, conn repo.Repo, tenantID string) error {
		return fn(ctx, engine.New(conn), tenantID)
	})
}

func withIngest(ctx context.Context, fn func(context.Context, ingest.Service, string) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	tenantID, cfg, err := app.ResolveTenantAndConfig(ctx, workspace, viper.GetString("tenant"), viper.GetString("actor-id"), r)
	if err != nil {
		return err
	}
	return fn(ctx, ingest.New(conn, cfg), tenantID)
}

func withConn(ctx context.Context, fn func(context.Context, repo.Repo, string) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	tenantID, _, err := app.ResolveTenantAndConfig(ctx, workspace, viper.GetString("tenant"), viper.GetString("actor-id"), r)
	if err != nil {
		return err
	}
	return fn(ctx, r, tenantID)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
