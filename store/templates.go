package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mbolis/hvac-survey/database"
	"github.com/mbolis/hvac-survey/schema"
)

type TemplateStore struct {
	db *database.DB
}

const templateColumns = `id, version, name, description, base_fields, specific_fields, created_at, updated_at`

// scanTemplate decodes a template row. A row whose schema no longer checks
// fails with schema.ErrMalformed.
func scanTemplate(row scanner) (*schema.Template, error) {
	t := &schema.Template{}
	var base, specific []byte
	err := row.Scan(&t.ID, &t.Version, &t.Name, &t.Description, &base, &specific, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(base, &t.BaseFields); err != nil {
		return nil, fmt.Errorf("template %d: %w: baseFields: %v", t.ID, schema.ErrMalformed, err)
	}
	if err = json.Unmarshal(specific, &t.SpecificFields); err != nil {
		return nil, fmt.Errorf("template %d: %w: specificFields: %v", t.ID, schema.ErrMalformed, err)
	}
	if err = t.Check(); err != nil {
		return nil, fmt.Errorf("template %d: %w", t.ID, err)
	}
	return t, nil
}

func (s *TemplateStore) get(ctx context.Context, where string, arg any) (*schema.Template, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`
		SELECT `+templateColumns+`
		FROM template
		WHERE `+where), arg)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %v: %w", arg, ErrNotFound)
	}
	return t, err
}

func (s *TemplateStore) Get(ctx context.Context, id int) (*schema.Template, error) {
	return s.get(ctx, "id = ?", id)
}

func (s *TemplateStore) GetByName(ctx context.Context, name string) (*schema.Template, error) {
	return s.get(ctx, "name = ?", name)
}

func (s *TemplateStore) List(ctx context.Context) ([]*schema.Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+templateColumns+`
		FROM template
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []*schema.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// Upsert creates t, or replaces all of it when it already exists. With an
// ID the template is replaced by ID (and, if t.Version is set, only when
// the stored version matches); without one it is matched by name. Every
// replacement bumps the version.
func (s *TemplateStore) Upsert(ctx context.Context, t *schema.Template) (*schema.Template, error) {
	if err := t.Check(); err != nil {
		return nil, err
	}
	base, err := json.Marshal(t.BaseFields)
	if err != nil {
		return nil, err
	}
	specific, err := json.Marshal(t.SpecificFields)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var id int

	if t.ID == 0 {
		err = s.db.QueryRowContext(ctx, s.db.Rebind(`
			INSERT INTO template (name, description, base_fields, specific_fields, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, 1, ?, ?)
			ON CONFLICT (name) DO UPDATE SET
				description = excluded.description,
				base_fields = excluded.base_fields,
				specific_fields = excluded.specific_fields,
				version = template.version + 1,
				updated_at = excluded.updated_at
			RETURNING id`),
			t.Name, t.Description, string(base), string(specific), now, now,
		).Scan(&id)
		if err != nil {
			return nil, err
		}
		return s.Get(ctx, id)
	}

	query := `
		UPDATE template
		SET
			name = ?,
			description = ?,
			base_fields = ?,
			specific_fields = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ?`
	args := []any{t.Name, t.Description, string(base), string(specific), now, t.ID}
	// optimistic lock
	if t.Version != 0 {
		query += ` AND version = ?`
		args = append(args, t.Version)
	}
	query += ` RETURNING id`

	err = s.db.QueryRowContext(ctx, s.db.Rebind(query), args...).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.Get(ctx, t.ID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("template %d: stale version %d: %w", t.ID, t.Version, ErrConflict)
	case isUniqueViolation(err):
		return nil, fmt.Errorf("template name %q already taken: %w", t.Name, ErrConflict)
	case err != nil:
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a template no survey refers to.
func (s *TemplateStore) Delete(ctx context.Context, id int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var n int
	err = tx.QueryRowContext(ctx, s.db.Rebind(`SELECT COUNT(*) FROM survey WHERE template_id = ?`), id).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("template %d is used by %d surveys: %w", id, n, ErrConflict)
	}

	res, err := tx.ExecContext(ctx, s.db.Rebind(`DELETE FROM template WHERE id = ?`), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected < 1 {
		return fmt.Errorf("template %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}
