package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipe_service/internal/auth"
	"recipe_service/internal/models"
	"recipe_service/internal/storage"

	"github.com/gofrs/uuid"
)

var (
	ErrEmailExists     = errors.New("email already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrWrongPassword   = errors.New("invalid password")
	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrReviewNotFound  = errors.New("review not found")
	ErrForbidden       = errors.New("not authorized")
	ErrMissingFields   = errors.New("rating and comment are required")
	ErrDuplicateReview = errors.New("recipe already reviewed by this user")
)

// RecipeInput carries the fields of a create or edit request. On edit,
// empty values mean "keep the stored value".
type RecipeInput struct {
	Title        string
	Ingredients  []string
	Instructions string
	Time         string
	CoverImage   string
}

type Service interface {
	SignUp(ctx context.Context, name, email, password string) (models.User, string, error)
	Login(ctx context.Context, email, password string) (models.User, string, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)

	ListRecipes(ctx context.Context) ([]models.Recipe, error)
	GetRecipe(ctx context.Context, recipeID uuid.UUID) (models.Recipe, error)
	CreateRecipe(ctx context.Context, ident models.Identity, input RecipeInput) (models.Recipe, error)
	EditRecipe(ctx context.Context, ident models.Identity, recipeID uuid.UUID, input RecipeInput) (models.Recipe, error)
	DeleteRecipe(ctx context.Context, ident models.Identity, recipeID uuid.UUID) error
	ToggleLike(ctx context.Context, ident models.Identity, recipeID uuid.UUID) (models.Recipe, error)
	AddReview(ctx context.Context, ident models.Identity, recipeID uuid.UUID, rating int, comment string) (models.Recipe, error)
	DeleteReview(ctx context.Context, ident models.Identity, recipeID, reviewID uuid.UUID) (models.Recipe, error)
}

type service struct {
	storage storage.Storage
	jwtKey  []byte
}

func NewService(st storage.Storage, jwtKey []byte) *service {
	return &service{
		storage: st,
		jwtKey:  jwtKey,
	}
}

func (s *service) SignUp(ctx context.Context, name, email, password string) (models.User, string, error) {
	const op = "service.SignUp"

	// Emails are matched exactly as stored, no normalization.
	_, err := s.storage.GetCredentialsByEmail(ctx, email)
	if err == nil {
		return models.User{}, "", ErrEmailExists
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	userID, err := s.storage.CreateUser(ctx, name, email, passwordHash)
	if err != nil {
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, user.Name, s.jwtKey)
	if err != nil {
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	return user, token, nil
}

func (s *service) Login(ctx context.Context, email, password string) (models.User, string, error) {
	const op = "service.Login"

	cred, err := s.storage.GetCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, "", ErrUserNotFound
		}
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	if ok := auth.CheckPasswordHash(cred.PasswordHash, password); !ok {
		return models.User{}, "", ErrWrongPassword
	}

	user, err := s.storage.GetUserByID(ctx, cred.UserID)
	if err != nil {
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, user.Name, s.jwtKey)
	if err != nil {
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	return user, token, nil
}

func (s *service) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const op = "service.GetUserByID"

	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *service) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	const op = "service.ListRecipes"

	recipes, err := s.storage.ListRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return recipes, nil
}

func (s *service) GetRecipe(ctx context.Context, recipeID uuid.UUID) (models.Recipe, error) {
	const op = "service.GetRecipe"

	recipe, err := s.storage.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Recipe{}, ErrRecipeNotFound
		}
		return models.Recipe{}, fmt.Errorf("%s: %w", op, err)
	}

	return recipe, nil
}

func (s *service) CreateRecipe(ctx context.Context, ident models.Identity, input RecipeInput) (models.Recipe, error) {
	const op = "service.CreateRecipe"

	recipeID, err := uuid.NewV4()
	if err != nil {
		return models.Recipe{}, fmt.Errorf("%s: %w", op, err)
	}

	recipe := models.Recipe{
		ID:           recipeID,
		Title:        input.Title,
		Ingredients:  normalizeIngredients(input.Ingredients),
		Instructions: input.Instructions,
		Time:         input.Time,
		CoverImage:   input.CoverImage,
		CreatedBy: models.Creator{
			ID:    ident.ID,
			Name:  ident.Name,
			Email: ident.Email,
		},
		Likes:     []string{},
		Reviews:   []models.Review{},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.storage.CreateRecipe(ctx, recipe); err != nil {
		return models.Recipe{}, fmt.Errorf("%s: %w", op, err)
	}

	return recipe, nil
}

func (s *service) EditRecipe(ctx context.Context, ident models.Identity, recipeID uuid.UUID, input RecipeInput) (models.Recipe, error) {
	const op = "service.EditRecipe"

	recipe, err := s.GetRecipe(ctx, recipeID)
	if err != nil {
		return models.Recipe{}, err
	}

	if recipe.CreatedBy.ID != ident.ID {
		return models.Recipe{}, ErrForbidden
	}

	// Empty fields keep the stored values.
	if input.Title != "" {
		recipe.Title = input.Title
	}
	if len(input.Ingredients) > 0 && !(len(input.Ingredients) == 1 && input.Ingredients[0] == "") {
		recipe.Ingredients = normalizeIngredients(input.Ingredients)
	}
	if input.Instructions != "" {
		recipe.Instructions = input.Instructions
	}
	if input.Time != "" {
		recipe.Time = input.Time
	}
	if input.CoverImage != "" {
		recipe.CoverImage = input.CoverImage
	}

	if err := s.storage.UpdateRecipe(ctx, recipe); err != nil {
		return models.Recipe{}, fmt.Errorf("%s: %w", op, err)
	}

	return recipe, nil
}

func (s *service) DeleteRecipe(ctx context.Context, ident models.Identity, recipeID uuid.UUID) error {
	const op = "service.DeleteRecipe"

	recipe, err := s.GetRecipe(ctx, recipeID)
	if err != nil {
		return err
	}

	if recipe.CreatedBy.ID != ident.ID {
		return ErrForbidden
	}

	if err := s.storage.DeleteRecipe(ctx, recipeID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *service) ToggleLike(ctx context.Context, ident models.Identity, recipeID uuid.UUID) (models.Recipe, error) {
	const op = "service.ToggleLike"

	recipe, err := s.GetRecipe(ctx, recipeID)
	if err != nil {
		return models.Recipe{}, err
	}

	userID := ident.ID.String()

	likedIndex := -1
	for i, id := range recipe.Likes {
		if id == userID {
			likedIndex = i
			break
		}
	}

	if likedIndex > -1 {
		recipe.Likes = append(recipe.Likes[:likedIndex], recipe.Likes[likedIndex+1:]...)
	} else {
		recipe.Likes = append(recipe.Likes, userID)
	}

	if err := s.storage.UpdateRecipe(ctx, recipe); err != nil {
		return models.Recipe{}, fmt.Errorf("%s: %w", op, err)
	}

	return recipe, nil
}

func (s *service) AddReview(ctx context.Context, ident models.Identity, recipeID uuid.UUID, rating int, comment string) (models.Recipe, error) {
	const op = "service.AddReview"

	if rating == 0 || strings.TrimSpace(comment) == "" {
		return models.Recipe{}, ErrMissingFields
	}

	recipe, err := s.GetRecipe(ctx, recipeID)
	if err != nil {
		return models.Recipe{}, err
	}

	for _, review := range recipe.Reviews {
		if review.UserID == ident.ID {
			return models.Recipe{}, ErrDuplicateReview
		}
	}

	reviewID, err := uuid.NewV4()
	if err != nil {
		return models.Recipe{}, fmt.Errorf("%s: %w", op, err)
	}

	recipe.Reviews = append(recipe.Reviews, models.Review{
		ID:       reviewID,
		UserID:   ident.ID,
		UserName: ident.Name,
		Rating:   rating,
		Comment:  strings.TrimSpace(comment),
	})

	if err := s.storage.UpdateRecipe(ctx, recipe); err != nil {
		return models.Recipe{}, fmt.Errorf("%s: %w", op, err)
	}

	return recipe, nil
}

func (s *service) DeleteReview(ctx context.Context, ident models.Identity, recipeID, reviewID uuid.UUID) (models.Recipe, error) {
	const op = "service.DeleteReview"

	recipe, err := s.GetRecipe(ctx, recipeID)
	if err != nil {
		return models.Recipe{}, err
	}

	reviewIndex := -1
	for i, review := range recipe.Reviews {
		if review.ID == reviewID {
			reviewIndex = i
			break
		}
	}

	if reviewIndex == -1 {
		return models.Recipe{}, ErrReviewNotFound
	}

	if recipe.Reviews[reviewIndex].UserID != ident.ID {
		return models.Recipe{}, ErrForbidden
	}

	recipe.Reviews = append(recipe.Reviews[:reviewIndex], recipe.Reviews[reviewIndex+1:]...)

	if err := s.storage.UpdateRecipe(ctx, recipe); err != nil {
		return models.Recipe{}, fmt.Errorf("%s: %w", op, err)
	}

	return recipe, nil
}

// normalizeIngredients accepts either repeated form values or a single
// comma-delimited string.
func normalizeIngredients(values []string) []string {
	if len(values) == 1 && strings.Contains(values[0], ",") {
		return strings.Split(values[0], ",")
	}

	normalized := make([]string, len(values))
	copy(normalized, values)
	return normalized
}
