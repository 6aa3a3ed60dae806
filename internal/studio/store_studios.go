package studio

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Create inserts a new studio. It fails with ErrExists if the ID is taken.
func (s *Store) Create(ctx context.Context, st *Studio) (*Studio, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: studio is nil", ErrInvalid)
	}
	ctx = ensureContext(ctx)
	candidate := st.Clone()
	if err := prepare(candidate); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM studios WHERE id = ?`, candidate.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check studio %s: %w", candidate.ID, err)
		}
		if exists > 0 {
			return fmt.Errorf("create %s: %w", candidate.ID, ErrExists)
		}
		return writeStudio(ctx, tx, candidate)
	})
	if err != nil {
		return nil, err
	}

	s.publish(Change{
		StudioID:        candidate.ID,
		Kind:            ChangeCreated,
		MappingsHash:    candidate.MappingsHash,
		MappingsChanged: true,
	})
	return candidate.Clone(), nil
}

// Replace inserts the studio or overwrites an existing one with the same ID,
// keeping its creation time. Definition imports use it.
func (s *Store) Replace(ctx context.Context, st *Studio) (*Studio, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: studio is nil", ErrInvalid)
	}
	ctx = ensureContext(ctx)
	candidate := st.Clone()
	if err := prepare(candidate); err != nil {
		return nil, err
	}

	var change Change
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := loadStudio(ctx, tx, candidate.ID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		candidate.UpdatedAt = now
		change = Change{StudioID: candidate.ID, MappingsHash: candidate.MappingsHash}
		if existing == nil {
			candidate.CreatedAt = now
			change.Kind = ChangeCreated
			change.MappingsChanged = true
		} else {
			candidate.CreatedAt = existing.CreatedAt
			change.Kind = ChangeUpdated
			change.MappingsChanged = existing.MappingsHash != candidate.MappingsHash
		}
		return writeStudio(ctx, tx, candidate)
	})
	if err != nil {
		return nil, err
	}

	s.publish(change)
	return candidate.Clone(), nil
}

// Get returns the studio with id, or nil when it does not exist. The row and
// its child tables are read in one transaction so the returned studio always
// matches its stored hash.
func (s *Store) Get(ctx context.Context, id string) (*Studio, error) {
	ctx = ensureContext(ctx)
	var st *Studio
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		st, err = loadStudio(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// List returns every studio ordered by name.
func (s *Store) List(ctx context.Context) ([]*Studio, error) {
	ctx = ensureContext(ctx)
	var studios []*Studio
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id FROM studios ORDER BY name, id`)
		if err != nil {
			return fmt.Errorf("list studios: %w", err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan studio id: %w", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}

		studios = make([]*Studio, 0, len(ids))
		for _, id := range ids {
			st, err := loadStudio(ctx, tx, id)
			if err != nil {
				return err
			}
			if st != nil {
				studios = append(studios, st)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return studios, nil
}

// Delete removes the studio and everything configured under it.
func (s *Store) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"studio_mappings", "route_sets", "route_set_exclusivity_groups"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE studio_id = ?`, id); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM studios WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete studio %s: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete studio %s: %w", id, err)
		}
		if affected == 0 {
			return fmt.Errorf("delete %s: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(Change{StudioID: id, Kind: ChangeDeleted, MappingsChanged: true})
	return nil
}

// update loads the studio, applies mutate, and persists the result in one
// transaction. The change is published after commit.
func (s *Store) update(ctx context.Context, id string, mutate func(*Studio) error) (*Studio, error) {
	ctx = ensureContext(ctx)
	var (
		updated *Studio
		change  Change
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := loadStudio(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		previousHash := current.MappingsHash
		if err := mutate(current); err != nil {
			return err
		}
		if err := prepare(current); err != nil {
			return err
		}
		current.UpdatedAt = time.Now().UTC()
		if err := writeStudio(ctx, tx, current); err != nil {
			return err
		}
		updated = current
		change = Change{
			StudioID:        current.ID,
			Kind:            ChangeUpdated,
			MappingsHash:    current.MappingsHash,
			MappingsChanged: previousHash != current.MappingsHash,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(change)
	return updated, nil
}
