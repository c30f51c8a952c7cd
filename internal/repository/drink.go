package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/coffeeshop/coffeeshop-go/internal/model"
)

// mysqlErrDuplicateEntry is the MySQL error number for unique key violations.
const mysqlErrDuplicateEntry = 1062

var (
	ErrDrinkNotFound  = errors.New("drink not found")
	ErrDuplicateTitle = errors.New("drink title already exists")
)

// DrinkRepository handles drink persistence operations.
type DrinkRepository struct {
	db *sql.DB
}

// NewDrinkRepository creates a new DrinkRepository.
func NewDrinkRepository(db *sql.DB) *DrinkRepository {
	return &DrinkRepository{db: db}
}

// List retrieves all drinks ordered by ID.
func (r *DrinkRepository) List(ctx context.Context) ([]model.Drink, error) {
	query := `SELECT id, title, recipe FROM drinks ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drinks := []model.Drink{}
	for rows.Next() {
		d, err := scanDrink(rows)
		if err != nil {
			return nil, err
		}
		drinks = append(drinks, *d)
	}

	return drinks, rows.Err()
}

// GetByID retrieves a drink by its ID.
func (r *DrinkRepository) GetByID(ctx context.Context, id int64) (*model.Drink, error) {
	query := `SELECT id, title, recipe FROM drinks WHERE id = ?`

	d, err := scanDrink(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDrinkNotFound
		}
		return nil, err
	}

	return d, nil
}

// ExistsByTitle reports whether a drink other than exceptID holds title.
// Titles compare under the column collation, so case variants collide.
func (r *DrinkRepository) ExistsByTitle(ctx context.Context, title string, exceptID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM drinks WHERE title = ? AND id <> ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, title, exceptID).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// Create inserts a new drink and sets the generated ID on the drink struct.
func (r *DrinkRepository) Create(ctx context.Context, drink *model.Drink) error {
	query := `INSERT INTO drinks (title, recipe) VALUES (?, ?)`

	recipe, err := json.Marshal(drink.Recipe)
	if err != nil {
		return fmt.Errorf("encode recipe: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, drink.Title, string(recipe))
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateTitle
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	drink.ID = id
	return nil
}

// Update overwrites the title and recipe of an existing drink.
// MySQL reports zero affected rows when nothing changed, so the row count is
// not used as an existence check here.
func (r *DrinkRepository) Update(ctx context.Context, drink *model.Drink) error {
	query := `UPDATE drinks SET title = ?, recipe = ? WHERE id = ?`

	recipe, err := json.Marshal(drink.Recipe)
	if err != nil {
		return fmt.Errorf("encode recipe: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, drink.Title, string(recipe), drink.ID); err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateTitle
		}
		return err
	}

	return nil
}

// Delete removes a drink by ID.
func (r *DrinkRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM drinks WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrDrinkNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDrink(s scanner) (*model.Drink, error) {
	var (
		d      model.Drink
		recipe string
	)
	if err := s.Scan(&d.ID, &d.Title, &recipe); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(recipe), &d.Recipe); err != nil {
		return nil, fmt.Errorf("decode recipe of drink %d: %w", d.ID, err)
	}

	return &d, nil
}

// isDuplicateEntryError checks if a MySQL error is a duplicate entry error (code 1062).
func isDuplicateEntryError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry
}
