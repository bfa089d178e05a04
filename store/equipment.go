package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mbolis/hvac-survey/database"
	"github.com/mbolis/hvac-survey/model"
)

type EquipmentStore struct {
	db *database.DB
}

const equipmentColumns = `id, tag, category, location, manufacturer, model, serial_number, created_at, updated_at`

func scanEquipment(row scanner) (model.Equipment, error) {
	e := model.Equipment{}
	err := row.Scan(
		&e.ID, &e.Tag, &e.Category, &e.Location,
		&e.Manufacturer, &e.Model, &e.SerialNumber,
		&e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func (s *EquipmentStore) Create(ctx context.Context, e model.Equipment) (model.Equipment, error) {
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, s.db.Rebind(`
		INSERT INTO equipment (tag, category, location, manufacturer, model, serial_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		e.Tag, e.Category, e.Location, e.Manufacturer, e.Model, e.SerialNumber, now, now,
	).Scan(&e.ID)
	if isUniqueViolation(err) {
		return e, fmt.Errorf("equipment tag %q already taken: %w", e.Tag, ErrConflict)
	}
	if err != nil {
		return e, err
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	return e, nil
}

func (s *EquipmentStore) Get(ctx context.Context, id int) (model.Equipment, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`
		SELECT `+equipmentColumns+`
		FROM equipment
		WHERE id = ?`),
		id,
	)
	e, err := scanEquipment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("equipment %d: %w", id, ErrNotFound)
	}
	return e, err
}

func (s *EquipmentStore) List(ctx context.Context) ([]model.Equipment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+equipmentColumns+`
		FROM equipment
		ORDER BY tag`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Equipment{}
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Update replaces every editable attribute of the equipment.
func (s *EquipmentStore) Update(ctx context.Context, e model.Equipment) (model.Equipment, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE equipment
		SET
			tag = ?,
			category = ?,
			location = ?,
			manufacturer = ?,
			model = ?,
			serial_number = ?,
			updated_at = ?
		WHERE id = ?`),
		e.Tag, e.Category, e.Location, e.Manufacturer, e.Model, e.SerialNumber, time.Now().UTC(), e.ID,
	)
	if isUniqueViolation(err) {
		return e, fmt.Errorf("equipment tag %q already taken: %w", e.Tag, ErrConflict)
	}
	if err != nil {
		return e, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return e, err
	}
	if n < 1 {
		return e, fmt.Errorf("equipment %d: %w", e.ID, ErrNotFound)
	}
	return s.Get(ctx, e.ID)
}

// Delete removes equipment that has no surveys.
func (s *EquipmentStore) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM equipment WHERE id = ?`), id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("equipment %d has surveys: %w", id, ErrConflict)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n < 1 {
		return fmt.Errorf("equipment %d: %w", id, ErrNotFound)
	}
	return nil
}
