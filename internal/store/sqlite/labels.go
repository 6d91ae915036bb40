package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/store"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// labelTable names the table and link table backing a label kind.
type labelTable struct {
	table      string // tags
	linkTable  string // recipe_tags
	linkColumn string // tag_id
}

var labelTables = map[domain.LabelKind]labelTable{
	domain.LabelTag:        {table: "tags", linkTable: "recipe_tags", linkColumn: "tag_id"},
	domain.LabelIngredient: {table: "ingredients", linkTable: "recipe_ingredients", linkColumn: "ingredient_id"},
}

func tableFor(kind domain.LabelKind) (labelTable, error) {
	lt, ok := labelTables[kind]
	if !ok {
		return labelTable{}, store.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown label kind %q", kind))
	}
	return lt, nil
}

// labelColumns is the ordered list of columns selected in label queries.
// Must match the scan order in scanLabel.
const labelColumns = `l.id, l.user_id, l.name, l.created_at, l.updated_at`

// scanLabel scans a sql.Row (or sql.Rows via its Scan method) into a domain.Label.
func scanLabel(scanner interface{ Scan(dest ...any) error }) (domain.Label, error) {
	var (
		l         domain.Label
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(&l.ID, &l.UserID, &l.Name, &createdAt, &updatedAt)
	if err != nil {
		return domain.Label{}, err
	}

	l.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return domain.Label{}, err
	}
	l.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return domain.Label{}, err
	}
	return l, nil
}

func collectLabels(rows *sql.Rows) ([]domain.Label, error) {
	defer rows.Close()

	labels := []domain.Label{}
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

// upsertLabels resolves each name to the owner's existing row, inserting the
// rows that are missing. The insert is ON CONFLICT DO NOTHING against
// UNIQUE(user_id, name), so concurrent writers converge on one row per name.
// The result holds one label per distinct name, in first-seen order, plus the
// number of rows actually created.
func upsertLabels(ctx context.Context, q querier, lt labelTable, userID string, names []string, now time.Time) ([]domain.Label, int, error) {
	insert := `INSERT INTO ` + lt.table + ` (user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, name) DO NOTHING`
	fetch := `SELECT ` + labelColumns + ` FROM ` + lt.table + ` l WHERE l.user_id = ? AND l.name = ?`

	ts := formatTime(now)
	labels := make([]domain.Label, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	created := 0

	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		res, err := q.ExecContext(ctx, insert, userID, name, ts, ts)
		if err != nil {
			return nil, 0, fmt.Errorf("upsert %s %q: %w", lt.table, name, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			created += int(n)
		}

		l, err := scanLabel(q.QueryRowContext(ctx, fetch, userID, name))
		if err != nil {
			return nil, 0, fmt.Errorf("fetch %s %q: %w", lt.table, name, err)
		}
		labels = append(labels, l)
	}
	return labels, created, nil
}

// replaceLinks points recipeID at exactly the given labels.
func replaceLinks(ctx context.Context, q querier, lt labelTable, recipeID int64, labels []domain.Label) error {
	if _, err := q.ExecContext(ctx,
		`DELETE FROM `+lt.linkTable+` WHERE recipe_id = ?`, recipeID); err != nil {
		return fmt.Errorf("delete %s: %w", lt.linkTable, err)
	}

	insert := `INSERT OR IGNORE INTO ` + lt.linkTable + ` (recipe_id, ` + lt.linkColumn + `) VALUES (?, ?)`
	for _, l := range labels {
		if _, err := q.ExecContext(ctx, insert, recipeID, l.ID); err != nil {
			return fmt.Errorf("insert %s: %w", lt.linkTable, err)
		}
	}
	return nil
}

// linkedLabels returns the labels linked to a recipe, ordered by name.
func linkedLabels(ctx context.Context, q querier, lt labelTable, recipeID int64) ([]domain.Label, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+labelColumns+`
		FROM `+lt.table+` l
		JOIN `+lt.linkTable+` x ON x.`+lt.linkColumn+` = l.id
		WHERE x.recipe_id = ?
		ORDER BY l.name`, recipeID)
	if err != nil {
		return nil, err
	}
	return collectLabels(rows)
}

// ListLabels returns the owner's labels ordered by name descending.
func (s *Store) ListLabels(ctx context.Context, kind domain.LabelKind, userID string, filter domain.LabelFilter) ([]domain.Label, error) {
	lt, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + labelColumns + ` FROM ` + lt.table + ` l WHERE l.user_id = ?`
	if filter.AssignedOnly {
		query += ` AND EXISTS (SELECT 1 FROM ` + lt.linkTable + ` x WHERE x.` + lt.linkColumn + ` = l.id)`
	}
	query += ` ORDER BY l.name DESC, l.id DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectLabels(rows)
}

// GetLabel retrieves one of the owner's labels.
// Returns store.ErrNotFound if it does not exist or belongs to someone else.
func (s *Store) GetLabel(ctx context.Context, kind domain.LabelKind, userID string, id int64) (*domain.Label, error) {
	lt, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	return getLabel(ctx, s.db, lt, userID, id)
}

func getLabel(ctx context.Context, q querier, lt labelTable, userID string, id int64) (*domain.Label, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+labelColumns+` FROM `+lt.table+` l WHERE l.id = ? AND l.user_id = ?`, id, userID)

	l, err := scanLabel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// RenameLabel changes a label's name.
// Returns store.ErrAlreadyExists when the owner already has a label with that
// name, and store.ErrNotFound when the label is not the owner's.
func (s *Store) RenameLabel(ctx context.Context, kind domain.LabelKind, userID string, id int64, name string) (*domain.Label, error) {
	lt, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	var renamed *domain.Label
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE `+lt.table+` SET name = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
			name, formatTime(time.Now()), id, userID)
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("%s %q already exists", kind, name))
			}
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		renamed, err = getLabel(ctx, tx, lt, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

// DeleteLabel removes a label and its recipe links. Recipes are untouched.
// Returns store.ErrNotFound if the label is not the owner's.
func (s *Store) DeleteLabel(ctx context.Context, kind domain.LabelKind, userID string, id int64) error {
	lt, err := tableFor(kind)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM `+lt.table+` WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
