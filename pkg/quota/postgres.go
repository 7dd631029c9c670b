package quota

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresStore implements Store using PostgreSQL. All conditional
// operations are expressed as single filtered UPDATE statements so the
// database, not the application, arbitrates concurrent writers.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

// DB exposes the underlying handle for health checks and pool metrics.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// EnsureSchema creates the required tables if they don't exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS organizations (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			slug       TEXT NOT NULL,
			tier       TEXT NOT NULL DEFAULT 'developer',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS org_quotas (
			org_id        TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
			resource_type TEXT NOT NULL,
			limit_value   BIGINT NOT NULL,
			used          BIGINT NOT NULL DEFAULT 0 CHECK (used >= 0),
			reset_at      TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (org_id, resource_type)
		);
		CREATE INDEX IF NOT EXISTS idx_org_quotas_reset_at ON org_quotas (reset_at);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// CreateOrganization inserts the org row and one quota row per resource type.
func (s *PostgresStore) CreateOrganization(ctx context.Context, org *Organization) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO organizations (id, name, slug, tier) VALUES ($1, $2, $3, $4)`,
		org.ID, org.Name, org.Slug, org.Tier,
	)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	for _, rt := range ResourceTypes() {
		limit, ok := org.Limits[rt]
		if !ok {
			limit = 0
		}
		usage := org.Usage[rt]
		_, err = tx.ExecContext(ctx,
			`INSERT INTO org_quotas (org_id, resource_type, limit_value, used, reset_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			org.ID, rt, limit, usage.Used, usage.ResetAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create quota row for %s: %w", rt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit organization: %w", err)
	}
	return nil
}

// GetOrganization retrieves the full quota record for an organization.
func (s *PostgresStore) GetOrganization(ctx context.Context, orgID string) (*Organization, error) {
	org := &Organization{
		Limits: make(map[ResourceType]int64),
		Usage:  make(map[ResourceType]Usage),
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, slug, tier FROM organizations WHERE id = $1`,
		orgID,
	).Scan(&org.ID, &org.Name, &org.Slug, &org.Tier)
	if err == sql.ErrNoRows {
		return nil, ErrOrgNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT resource_type, limit_value, used, reset_at FROM org_quotas WHERE org_id = $1`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get quota rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rt ResourceType
		var limit int64
		var usage Usage
		if err := rows.Scan(&rt, &limit, &usage.Used, &usage.ResetAt); err != nil {
			return nil, fmt.Errorf("failed to scan quota row: %w", err)
		}
		org.Limits[rt] = limit
		org.Usage[rt] = usage
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read quota rows: %w", err)
	}

	return org, nil
}

// GetEntry retrieves the limit/usage pair for one resource type.
func (s *PostgresStore) GetEntry(ctx context.Context, orgID string, rt ResourceType) (*Entry, error) {
	entry := &Entry{}
	err := s.db.QueryRowContext(ctx,
		`SELECT limit_value, used, reset_at FROM org_quotas WHERE org_id = $1 AND resource_type = $2`,
		orgID, rt,
	).Scan(&entry.Limit, &entry.Usage.Used, &entry.Usage.ResetAt)
	if err == sql.ErrNoRows {
		return nil, ErrOrgNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quota entry: %w", err)
	}
	return entry, nil
}

// ListOrganizations returns every quota record ordered by org id.
func (s *PostgresStore) ListOrganizations(ctx context.Context) ([]*Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.name, o.slug, o.tier, q.resource_type, q.limit_value, q.used, q.reset_at
		FROM organizations o
		JOIN org_quotas q ON q.org_id = o.id
		ORDER BY o.id, q.resource_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*Organization
	var current *Organization
	for rows.Next() {
		var id, name, slug string
		var tier Tier
		var rt ResourceType
		var limit int64
		var usage Usage
		if err := rows.Scan(&id, &name, &slug, &tier, &rt, &limit, &usage.Used, &usage.ResetAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization row: %w", err)
		}
		if current == nil || current.ID != id {
			current = &Organization{
				ID:     id,
				Name:   name,
				Slug:   slug,
				Tier:   tier,
				Limits: make(map[ResourceType]int64),
				Usage:  make(map[ResourceType]Usage),
			}
			orgs = append(orgs, current)
		}
		current.Limits[rt] = limit
		current.Usage[rt] = usage
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read organization rows: %w", err)
	}

	return orgs, nil
}

// Exists reports whether an organization record exists.
func (s *PostgresStore) Exists(ctx context.Context, orgID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1)`,
		orgID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check organization existence: %w", err)
	}
	return exists, nil
}

// UpdateOrgFields updates name/slug/tier with last-writer-wins semantics.
func (s *PostgresStore) UpdateOrgFields(ctx context.Context, orgID string, upd OrgFieldUpdate) error {
	setClauses := []string{}
	args := []interface{}{}
	argPos := 1

	if upd.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argPos))
		args = append(args, *upd.Name)
		argPos++
	}
	if upd.Slug != nil {
		setClauses = append(setClauses, fmt.Sprintf("slug = $%d", argPos))
		args = append(args, *upd.Slug)
		argPos++
	}
	if upd.Tier != nil {
		setClauses = append(setClauses, fmt.Sprintf("tier = $%d", argPos))
		args = append(args, *upd.Tier)
		argPos++
	}

	if len(setClauses) == 0 {
		// Nothing to update, but the target must still exist.
		exists, err := s.Exists(ctx, orgID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrOrgNotFound
		}
		return nil
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, orgID)
	query := fmt.Sprintf("UPDATE organizations SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argPos)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrgNotFound
	}
	return nil
}

// SetLimits overwrites the given per-type limits in one statement.
func (s *PostgresStore) SetLimits(ctx context.Context, orgID string, limits map[ResourceType]int64) error {
	if len(limits) == 0 {
		return nil
	}

	// Single UPDATE with a CASE expression so tier application is atomic
	// across the three quota rows.
	caseArms := []string{}
	args := []interface{}{orgID}
	argPos := 2
	inList := []string{}
	for _, rt := range ResourceTypes() {
		limit, ok := limits[rt]
		if !ok {
			continue
		}
		caseArms = append(caseArms, fmt.Sprintf("WHEN $%d THEN $%d::bigint", argPos, argPos+1))
		args = append(args, string(rt), limit)
		inList = append(inList, fmt.Sprintf("$%d", argPos))
		argPos += 2
	}

	query := fmt.Sprintf(`
		UPDATE org_quotas
		SET limit_value = CASE resource_type %s END, updated_at = NOW()
		WHERE org_id = $1 AND resource_type IN (%s)
	`, strings.Join(caseArms, " "), strings.Join(inList, ", "))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set limits: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrgNotFound
	}
	return nil
}

// SetUsage unconditionally overwrites used/resetAt for one resource type.
func (s *PostgresStore) SetUsage(ctx context.Context, orgID string, rt ResourceType, used int64, resetAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE org_quotas SET used = $1, reset_at = $2, updated_at = NOW()
		 WHERE org_id = $3 AND resource_type = $4`,
		used, resetAt, orgID, rt,
	)
	if err != nil {
		return fmt.Errorf("failed to set usage: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrgNotFound
	}
	return nil
}

// ConditionalIncrement adds amount to used only if capacity allows. The
// capacity check and the increment are one UPDATE: two requests racing at
// used=99, limit=100 cannot both apply. RETURNING hands back the
// post-increment row so the happy path needs no follow-up read.
func (s *PostgresStore) ConditionalIncrement(ctx context.Context, orgID string, rt ResourceType, amount int64) (*Entry, error) {
	entry := &Entry{}
	err := s.db.QueryRowContext(ctx,
		`UPDATE org_quotas SET used = used + $1, updated_at = NOW()
		 WHERE org_id = $2 AND resource_type = $3
		   AND (limit_value = -1 OR used + $1 <= limit_value)
		 RETURNING limit_value, used, reset_at`,
		amount, orgID, rt,
	).Scan(&entry.Limit, &entry.Usage.Used, &entry.Usage.ResetAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to increment usage: %w", err)
	}
	return entry, nil
}

// RolloverIfExpired zeroes used and advances resetAt, guarded by the
// stored resetAt still being expired. Concurrent triggers race to one
// winner; losers are no-ops.
func (s *PostgresStore) RolloverIfExpired(ctx context.Context, orgID string, rt ResourceType, now, newResetAt time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE org_quotas SET used = 0, reset_at = $1, updated_at = NOW()
		 WHERE org_id = $2 AND resource_type = $3 AND reset_at <= $4`,
		newResetAt, orgID, rt, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to roll over window: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// SweepExpiredWindows rolls over every expired window in one statement.
func (s *PostgresStore) SweepExpiredWindows(ctx context.Context, now, newResetAt time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE org_quotas SET used = 0, reset_at = $1, updated_at = NOW() WHERE reset_at <= $2`,
		newResetAt, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired windows: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
