package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/metrics"
	"github.com/larderapp/larder-server/internal/store"
)

// recipeColumns is the ordered list of columns selected in recipe queries.
// Must match the scan order in scanRecipe.
const recipeColumns = `r.id, r.user_id, r.title, r.time_minutes, r.price,
	r.description, r.link, r.image, r.image_blurhash, r.created_at, r.updated_at`

// scanRecipe scans a sql.Row (or sql.Rows via its Scan method) into a domain.Recipe.
// Tags and Ingredients are left nil.
func scanRecipe(scanner interface{ Scan(dest ...any) error }) (*domain.Recipe, error) {
	var r domain.Recipe

	var (
		price     string
		image     sql.NullString
		blurHash  sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.TimeMinutes,
		&price,
		&r.Description,
		&r.Link,
		&image,
		&blurHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	r.Image = image.String
	r.ImageBlurHash = blurHash.String

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRecipe inserts recipe for recipe.UserID, get-or-creates the named
// tags and ingredients and links them, all in one transaction.
// Returns the stored recipe with its links loaded.
func (s *Store) CreateRecipe(ctx context.Context, recipe *domain.Recipe, tags, ingredients []string) (*domain.Recipe, error) {
	var created *domain.Recipe

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO recipes (
				user_id, title, time_minutes, price, description, link,
				image, image_blurhash, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			recipe.UserID,
			recipe.Title,
			recipe.TimeMinutes,
			recipe.Price.String(),
			recipe.Description,
			recipe.Link,
			nullString(recipe.Image),
			nullString(recipe.ImageBlurHash),
			formatTime(recipe.CreatedAt),
			formatTime(recipe.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert recipe: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return err
		}

		if err := s.setLinks(ctx, tx, domain.LabelTag, recipe.UserID, id, tags, recipe.UpdatedAt); err != nil {
			return err
		}
		if err := s.setLinks(ctx, tx, domain.LabelIngredient, recipe.UserID, id, ingredients, recipe.UpdatedAt); err != nil {
			return err
		}

		created, err = loadRecipe(ctx, tx, recipe.UserID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// setLinks resolves names for the owner and makes them the recipe's full
// link set for kind.
func (s *Store) setLinks(ctx context.Context, tx *sql.Tx, kind domain.LabelKind, userID string, recipeID int64, names []string, now time.Time) error {
	lt, err := tableFor(kind)
	if err != nil {
		return err
	}

	labels, created, err := upsertLabels(ctx, tx, lt, userID, names, now)
	if err != nil {
		return err
	}
	if created > 0 {
		s.logger.Debug("labels created", "kind", kind, "user_id", userID, "count", created)
		metrics.RecordLabelsCreated(string(kind), created)
	}
	return replaceLinks(ctx, tx, lt, recipeID, labels)
}

// loadRecipe reads a recipe with its tags and ingredients.
func loadRecipe(ctx context.Context, q querier, userID string, id int64) (*domain.Recipe, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = ? AND r.user_id = ?`, id, userID)

	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	tags, err := linkedLabels(ctx, q, labelTables[domain.LabelTag], id)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	r.Tags = make([]domain.Tag, len(tags))
	for i, l := range tags {
		r.Tags[i] = l.Tag()
	}

	ingredients, err := linkedLabels(ctx, q, labelTables[domain.LabelIngredient], id)
	if err != nil {
		return nil, fmt.Errorf("load ingredients: %w", err)
	}
	r.Ingredients = make([]domain.Ingredient, len(ingredients))
	for i, l := range ingredients {
		r.Ingredients[i] = l.Ingredient()
	}

	return r, nil
}

// GetRecipe retrieves one of the owner's recipes with its links.
// Returns store.ErrNotFound if it does not exist or belongs to someone else.
func (s *Store) GetRecipe(ctx context.Context, userID string, id int64) (*domain.Recipe, error) {
	return loadRecipe(ctx, s.db, userID, id)
}

// ListRecipes returns the owner's recipes, newest id first, without links.
// Each non-empty id list in filter keeps recipes linked to at least one of
// its ids; tag and ingredient filters are combined with AND.
func (s *Store) ListRecipes(ctx context.Context, userID string, filter domain.RecipeFilter) ([]*domain.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes r WHERE r.user_id = ?`
	args := []any{userID}

	if len(filter.TagIDs) > 0 {
		query += ` AND r.id IN (SELECT recipe_id FROM recipe_tags WHERE tag_id IN (` + placeholders(len(filter.TagIDs)) + `))`
		for _, id := range filter.TagIDs {
			args = append(args, id)
		}
	}
	if len(filter.IngredientIDs) > 0 {
		query += ` AND r.id IN (SELECT recipe_id FROM recipe_ingredients WHERE ingredient_id IN (` + placeholders(len(filter.IngredientIDs)) + `))`
		for _, id := range filter.IngredientIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY r.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := []*domain.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recipes, nil
}

// UpdateRecipe applies a partial write to one of the owner's recipes in a
// single transaction. Set name lists fully replace the matching links.
// Returns store.ErrNotFound if the recipe is not the owner's.
func (s *Store) UpdateRecipe(ctx context.Context, userID string, id int64, update store.RecipeUpdate) (*domain.Recipe, error) {
	var updated *domain.Recipe

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		r, err := scanRecipe(tx.QueryRowContext(ctx,
			`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = ? AND r.user_id = ?`, id, userID))
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}

		changed := update.Fields.Apply(r)
		if changed || update.Tags.Set || update.Ingredients.Set {
			r.Touch()
			_, err = tx.ExecContext(ctx, `
				UPDATE recipes SET
					title = ?,
					time_minutes = ?,
					price = ?,
					description = ?,
					link = ?,
					updated_at = ?
				WHERE id = ? AND user_id = ?`,
				r.Title,
				r.TimeMinutes,
				r.Price.String(),
				r.Description,
				r.Link,
				formatTime(r.UpdatedAt),
				id,
				userID,
			)
			if err != nil {
				return fmt.Errorf("update recipe: %w", err)
			}
		}

		if update.Tags.Set {
			if err := s.setLinks(ctx, tx, domain.LabelTag, userID, id, update.Tags.Names, r.UpdatedAt); err != nil {
				return err
			}
		}
		if update.Ingredients.Set {
			if err := s.setLinks(ctx, tx, domain.LabelIngredient, userID, id, update.Ingredients.Names, r.UpdatedAt); err != nil {
				return err
			}
		}

		updated, err = loadRecipe(ctx, tx, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetRecipeImage records a new image key and placeholder hash for the
// owner's recipe and returns the key it replaced, if any.
func (s *Store) SetRecipeImage(ctx context.Context, userID string, id int64, image, blurHash string) (*domain.Recipe, string, error) {
	var (
		updated  *domain.Recipe
		previous string
	)

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var prev sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT image FROM recipes WHERE id = ? AND user_id = ?`, id, userID).Scan(&prev)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		previous = prev.String

		_, err = tx.ExecContext(ctx, `
			UPDATE recipes SET image = ?, image_blurhash = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`,
			nullString(image), nullString(blurHash), formatTime(time.Now()), id, userID)
		if err != nil {
			return fmt.Errorf("update recipe image: %w", err)
		}

		updated, err = loadRecipe(ctx, tx, userID, id)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return updated, previous, nil
}

// DeleteRecipe removes one of the owner's recipes and its link rows. Tags and
// ingredients survive. The deleted recipe is returned so callers can clean up
// its image.
func (s *Store) DeleteRecipe(ctx context.Context, userID string, id int64) (*domain.Recipe, error) {
	var deleted *domain.Recipe

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		r, err := scanRecipe(tx.QueryRowContext(ctx,
			`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = ? AND r.user_id = ?`, id, userID))
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recipes WHERE id = ? AND user_id = ?`, id, userID); err != nil {
			return fmt.Errorf("delete recipe: %w", err)
		}
		deleted = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
