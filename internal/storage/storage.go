package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"recipe_service/internal/models"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	usersTable   = "users"
	recipesTable = "recipes"
)

var ErrNotFound = errors.New("not found")

type Storage interface {

	// Пользователи
	CreateUser(ctx context.Context, name, email, passwordHash string) (userID uuid.UUID, err error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetCredentialsByEmail(ctx context.Context, email string) (models.Credentials, error)

	// Рецепты: строка читается и перезаписывается целиком
	ListRecipes(ctx context.Context) ([]models.Recipe, error)
	GetRecipeByID(ctx context.Context, recipeID uuid.UUID) (models.Recipe, error)
	CreateRecipe(ctx context.Context, recipe models.Recipe) error
	UpdateRecipe(ctx context.Context, recipe models.Recipe) error
	DeleteRecipe(ctx context.Context, recipeID uuid.UUID) error

	Close()
}

type PostgresStorage struct {
	db *pgxpool.Pool
}

func NewPostgresStorage(ctx context.Context, dbURL string) (*PostgresStorage, error) {
	const op = "storage.NewPostgresStorage"

	conn, err := pgxpool.Connect(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &PostgresStorage{
		db: conn,
	}, nil
}

func (p *PostgresStorage) CreateUser(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error) {
	const op = "storage.CreateUser"

	var userID uuid.UUID
	query := fmt.Sprintf("INSERT INTO %s(name, email, password_hash) VALUES ($1, $2, $3) RETURNING id;", usersTable)

	err := p.db.QueryRow(ctx, query, name, email, passwordHash).Scan(&userID)
	if err != nil {
		return userID, fmt.Errorf("%s: %w", op, err)
	}

	return userID, nil
}

func (p *PostgresStorage) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const op = "storage.GetUserByID"

	var user models.User
	query := fmt.Sprintf("SELECT id, name, email, created_at FROM %s WHERE id=$1;", usersTable)

	err := p.db.QueryRow(ctx, query, userID).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return user, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (p *PostgresStorage) GetCredentialsByEmail(ctx context.Context, email string) (models.Credentials, error) {
	const op = "storage.GetCredentialsByEmail"

	var cred models.Credentials
	query := fmt.Sprintf("SELECT id, password_hash FROM %s WHERE email=$1", usersTable)

	err := p.db.QueryRow(ctx, query, email).Scan(&cred.UserID, &cred.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cred, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return cred, fmt.Errorf("%s: %w", op, err)
	}

	return cred, nil
}

const recipeColumns = `r.id, r.title, r.ingredients, r.instructions, r.cook_time, r.coverimage,
	r.likes, r.reviews, r.created_at, u.id, u.name, u.email`

func scanRecipe(row pgx.Row) (models.Recipe, error) {
	var recipe models.Recipe
	var reviewsJSON []byte

	err := row.Scan(
		&recipe.ID,
		&recipe.Title,
		&recipe.Ingredients,
		&recipe.Instructions,
		&recipe.Time,
		&recipe.CoverImage,
		&recipe.Likes,
		&reviewsJSON,
		&recipe.CreatedAt,
		&recipe.CreatedBy.ID,
		&recipe.CreatedBy.Name,
		&recipe.CreatedBy.Email,
	)
	if err != nil {
		return recipe, err
	}

	if err := json.Unmarshal(reviewsJSON, &recipe.Reviews); err != nil {
		return recipe, err
	}

	if recipe.Ingredients == nil {
		recipe.Ingredients = []string{}
	}
	if recipe.Likes == nil {
		recipe.Likes = []string{}
	}
	if recipe.Reviews == nil {
		recipe.Reviews = []models.Review{}
	}

	return recipe, nil
}

func (p *PostgresStorage) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	const op = "storage.ListRecipes"

	query := fmt.Sprintf(`SELECT %s FROM %s r JOIN %s u ON u.id = r.created_by ORDER BY r.created_at;`,
		recipeColumns, recipesTable, usersTable)

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	recipes := []models.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s (rows): %w", op, err)
	}

	return recipes, nil
}

func (p *PostgresStorage) GetRecipeByID(ctx context.Context, recipeID uuid.UUID) (models.Recipe, error) {
	const op = "storage.GetRecipeByID"

	query := fmt.Sprintf(`SELECT %s FROM %s r JOIN %s u ON u.id = r.created_by WHERE r.id=$1;`,
		recipeColumns, recipesTable, usersTable)

	recipe, err := scanRecipe(p.db.QueryRow(ctx, query, recipeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recipe, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return recipe, fmt.Errorf("%s: %w", op, err)
	}

	return recipe, nil
}

func (p *PostgresStorage) CreateRecipe(ctx context.Context, recipe models.Recipe) error {
	const op = "storage.CreateRecipe"

	reviewsJSON, err := json.Marshal(recipe.Reviews)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`INSERT INTO %s(id, title, ingredients, instructions, cook_time, coverimage, created_by, likes, reviews, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, recipesTable)

	_, err = p.db.Exec(ctx, query,
		recipe.ID,
		recipe.Title,
		recipe.Ingredients,
		recipe.Instructions,
		recipe.Time,
		recipe.CoverImage,
		recipe.CreatedBy.ID,
		recipe.Likes,
		reviewsJSON,
		recipe.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateRecipe rewrites every mutable column of the row. created_by is
// never touched after creation.
func (p *PostgresStorage) UpdateRecipe(ctx context.Context, recipe models.Recipe) error {
	const op = "storage.UpdateRecipe"

	reviewsJSON, err := json.Marshal(recipe.Reviews)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`UPDATE %s SET
	title=$2, ingredients=$3, instructions=$4, cook_time=$5, coverimage=$6, likes=$7, reviews=$8
	WHERE id=$1`, recipesTable)

	tag, err := p.db.Exec(ctx, query,
		recipe.ID,
		recipe.Title,
		recipe.Ingredients,
		recipe.Instructions,
		recipe.Time,
		recipe.CoverImage,
		recipe.Likes,
		reviewsJSON,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return nil
}

func (p *PostgresStorage) DeleteRecipe(ctx context.Context, recipeID uuid.UUID) error {
	const op = "storage.DeleteRecipe"

	query := fmt.Sprintf("DELETE FROM %s WHERE id=$1", recipesTable)

	tag, err := p.db.Exec(ctx, query, recipeID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return nil
}

func (p *PostgresStorage) Close() {
	p.db.Close()
}
