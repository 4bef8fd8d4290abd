package repo

import (
	"context"
	"database/sql"
	"errors"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func (r Repo) InsertTenant(ctx context.Context, t TenantRow) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO tenants(id,name,status,created_at) VALUES (?,?,?,?)`,
		t.ID, nullable(t.Name), t.Status, t.CreatedAt)
	return err
}

type TenantRow struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func (r Repo) GetTenant(ctx context.Context, id string) (TenantRow, error) {
	var t TenantRow
	var name sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,status,created_at FROM tenants WHERE id=?`, id).
		Scan(&t.ID, &name, &t.Status, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if name.Valid {
		t.Name = name.String
	}
	return t, err
}

func (r Repo) SingleTenant(ctx context.Context) (TenantRow, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,status,created_at FROM tenants`)
	if err != nil {
		return TenantRow{}, err
	}
	defer rows.Close()
	var tenants []TenantRow
	for rows.Next() {
		var t TenantRow
		var name sql.NullString
		if err := rows.Scan(&t.ID, &name, &t.Status, &t.CreatedAt); err != nil {
			return TenantRow{}, err
		}
		if name.Valid {
			t.Name = name.String
		}
		tenants = append(tenants, t)
	}
	if len(tenants) == 0 {
		return TenantRow{}, ErrNotFound
	}
	if len(tenants) > 1 {
		return TenantRow{}, errors.New("multiple tenants exist; specify --tenant")
	}
	return tenants[0], nil
}

func (r Repo) ListTenants(ctx context.Context) ([]TenantRow, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,status,created_at FROM tenants ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []TenantRow
	for rows.Next() {
		var t TenantRow
		var name sql.NullString
		if err := rows.Scan(&t.ID, &name, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		if name.Valid {
			t.Name = name.String
		}
		res = append(res, t)
	}
	return res, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}
