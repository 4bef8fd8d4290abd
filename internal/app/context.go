package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teampulse/internal/config"
	"teampulse/internal/repo"
)

// ResolveTenantAndConfig picks the active tenant and ensures it exists in the
// DB, seeding on first use. It prefers the override, then the workspace
// config file, then a single-tenant DB.
func ResolveTenantAndConfig(ctx context.Context, workspace, tenantOverride, actorID string, r repo.Repo) (string, *config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return "", nil, err
	}
	tenantID := tenantOverride
	if tenantID == "" && cfg != nil {
		tenantID = cfg.Tenant.ID
	}
	if tenantID == "" {
		if t, err := r.SingleTenant(ctx); err == nil {
			tenantID = t.ID
		} else {
			return "", nil, fmt.Errorf("tenant not specified; use --tenant or tp config init")
		}
	}
	if cfg == nil {
		cfg = config.Default(tenantID)
	}
	cfg.Tenant.ID = tenantID

	if _, err := r.GetTenant(ctx, tenantID); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return "", nil, err
		}
		if err := createTenant(ctx, r, tenantID, cfg.Tenant.Name); err != nil {
			return "", nil, err
		}
	}
	return tenantID, cfg, nil
}

func createTenant(ctx context.Context, r repo.Repo, tenantID, name string) error {
	return r.InsertTenant(ctx, repo.TenantRow{
		ID:        tenantID,
		Name:      name,
		Status:    "active",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
