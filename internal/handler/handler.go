package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/mail"
	"path/filepath"
	"strings"

	"recipe_service/internal/auth"
	"recipe_service/internal/models"
	"recipe_service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	googleuuid "github.com/google/uuid"
)

const identityKey = "Identity"

type Handler struct {
	serviceLayer service.Service
	log          *slog.Logger
	jwtKey       []byte
	uploadsDir   string
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func NewHandler(srvc service.Service, lgr *slog.Logger, jwtKey []byte, uploadsDir string) *Handler {
	return &Handler{
		serviceLayer: srvc,
		log:          lgr,
		jwtKey:       jwtKey,
		uploadsDir:   uploadsDir,
	}
}

func newErrorResponse(c *gin.Context, statusCode int, errMessage string) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Message: errMessage})
}

// newInternalErrorResponse keeps the raw error text in the body, the way
// the service has always reported unexpected failures.
func newInternalErrorResponse(c *gin.Context, message string, err error) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
		Message: message,
		Error:   err.Error(),
	})
}

func IsValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(h.requestLogger())
	router.Use(cors.Default())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "hello"})
	})

	router.Static("/uploads", h.uploadsDir)

	router.POST("/signup", h.SignUp)
	router.POST("/login", h.Login)
	router.GET("/user/:id", h.GetUser)

	recipe := router.Group("/recipe")
	{
		recipe.GET("", h.GetRecipes)
		recipe.GET("/:id", h.GetRecipe)

		recipe.Use(h.AuthMiddleware())
		recipe.POST("", h.AddRecipe)
		recipe.PUT("/:id", h.EditRecipe)
		recipe.DELETE("/:id", h.DeleteRecipe)
		recipe.POST("/:id/like", h.ToggleLike)
		recipe.POST("/:id/review", h.AddReview)
		recipe.DELETE("/:id/review/:reviewId", h.DeleteReview)
	}

	return router
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.log.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("url", c.Request.URL.String()),
		)

		c.Next()
	}
}

// AuthMiddleware verifies the bearer token and re-resolves the subject on
// every request, so a deleted user is rejected even with a valid token.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			newErrorResponse(c, http.StatusUnauthorized, "no token provided")

			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			newErrorResponse(c, http.StatusUnauthorized, "no token provided")

			return
		}

		claims, err := auth.ParseJWT(parts[1], h.jwtKey)
		if err != nil {
			newErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")

			return
		}

		user, err := h.serviceLayer.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			newErrorResponse(c, http.StatusUnauthorized, "user not found")

			return
		}

		c.Set(identityKey, models.Identity{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		})

		c.Next()
	}
}

func identityFromContext(c *gin.Context) (models.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}

	ident, ok := value.(models.Identity)
	return ident, ok
}

// POST /signup
func (h *Handler) SignUp(c *gin.Context) {
	const op = "handler.SignUp"

	log := h.log.With(slog.String("op", op))

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to read request body", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "name, email and password are required")

		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		newErrorResponse(c, http.StatusBadRequest, "name, email and password are required")

		return
	}

	if ok := IsValidEmail(req.Email); !ok {
		log.Error("given invalid email", slog.String("email", req.Email))

		newErrorResponse(c, http.StatusBadRequest, "not valid email")

		return
	}

	user, token, err := h.serviceLayer.SignUp(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			newErrorResponse(c, http.StatusBadRequest, "email already exists")

			return
		}

		log.Error("failed to create user", slog.Any("error", err))

		newInternalErrorResponse(c, "failed to create user", err)

		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// POST /login
func (h *Handler) Login(c *gin.Context) {
	const op = "handler.Login"

	log := h.log.With(slog.String("op", op))

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to read request body", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "email and password are required")

		return
	}

	if req.Email == "" || req.Password == "" {
		newErrorResponse(c, http.StatusBadRequest, "email and password are required")

		return
	}

	user, token, err := h.serviceLayer.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			newErrorResponse(c, http.StatusBadRequest, "user not found")
		case errors.Is(err, service.ErrWrongPassword):
			newErrorResponse(c, http.StatusBadRequest, "invalid password")
		default:
			log.Error("failed to login", slog.Any("error", err))

			newInternalErrorResponse(c, "failed to login", err)
		}

		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// GET /user/:id
func (h *Handler) GetUser(c *gin.Context) {
	const op = "handler.GetUser"

	log := h.log.With(slog.String("op", op))

	userID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		newInternalErrorResponse(c, "error fetching user", err)

		return
	}

	user, err := h.serviceLayer.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		log.Error("failed to get user", slog.Any("user_id", userID), slog.Any("error", err))

		newInternalErrorResponse(c, "error fetching user", err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"name": user.Name, "email": user.Email})
}

// GET /recipe
func (h *Handler) GetRecipes(c *gin.Context) {
	const op = "handler.GetRecipes"

	log := h.log.With(slog.String("op", op))

	recipes, err := h.serviceLayer.ListRecipes(c.Request.Context())
	if err != nil {
		log.Error("failed to list recipes", slog.Any("error", err))

		newInternalErrorResponse(c, "error fetching recipes", err)

		return
	}

	c.JSON(http.StatusOK, recipes)
}

// GET /recipe/:id
func (h *Handler) GetRecipe(c *gin.Context) {
	const op = "handler.GetRecipe"

	log := h.log.With(slog.String("op", op))

	recipeID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		newErrorResponse(c, http.StatusNotFound, "recipe not found")

		return
	}

	recipe, err := h.serviceLayer.GetRecipe(c.Request.Context(), recipeID)
	if err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			newErrorResponse(c, http.StatusNotFound, "recipe not found")

			return
		}

		log.Error("failed to get recipe", slog.Any("recipe_id", recipeID), slog.Any("error", err))

		newInternalErrorResponse(c, "error fetching recipe", err)

		return
	}

	c.JSON(http.StatusOK, recipe)
}

// POST /recipe
func (h *Handler) AddRecipe(c *gin.Context) {
	const op = "handler.AddRecipe"

	log := h.log.With(slog.String("op", op))

	ident, ok := identityFromContext(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	input := service.RecipeInput{
		Title:        c.PostForm("title"),
		Ingredients:  c.PostFormArray("ingredients"),
		Instructions: c.PostForm("instructions"),
		Time:         c.PostForm("time"),
	}

	file, err := c.FormFile("coverimage")
	if err == nil {
		filename, err := h.saveCoverImage(c, file)
		if err != nil {
			log.Error("failed to save cover image", slog.Any("error", err))

			newInternalErrorResponse(c, "error creating recipe", err)

			return
		}

		input.CoverImage = filename
	}

	recipe, err := h.serviceLayer.CreateRecipe(c.Request.Context(), ident, input)
	if err != nil {
		log.Error("failed to create recipe", slog.Any("error", err))

		newInternalErrorResponse(c, "error creating recipe", err)

		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "recipe created successfully", "recipe": recipe})
}

// PUT /recipe/:id
func (h *Handler) EditRecipe(c *gin.Context) {
	const op = "handler.EditRecipe"

	log := h.log.With(slog.String("op", op))

	ident, ok := identityFromContext(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	recipeID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		newErrorResponse(c, http.StatusNotFound, "recipe not found")

		return
	}

	input := service.RecipeInput{
		Title:        c.PostForm("title"),
		Ingredients:  c.PostFormArray("ingredients"),
		Instructions: c.PostForm("instructions"),
		Time:         c.PostForm("time"),
	}

	file, err := c.FormFile("coverimage")
	if err == nil {
		filename, err := h.saveCoverImage(c, file)
		if err != nil {
			log.Error("failed to save cover image", slog.Any("error", err))

			newInternalErrorResponse(c, "error updating recipe", err)

			return
		}

		input.CoverImage = filename
	}

	recipe, err := h.serviceLayer.EditRecipe(c.Request.Context(), ident, recipeID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecipeNotFound):
			newErrorResponse(c, http.StatusNotFound, "recipe not found")
		case errors.Is(err, service.ErrForbidden):
			newErrorResponse(c, http.StatusForbidden, "not authorized to edit this recipe")
		default:
			log.Error("failed to update recipe", slog.Any("recipe_id", recipeID), slog.Any("error", err))

			newInternalErrorResponse(c, "error updating recipe", err)
		}

		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "recipe updated successfully", "recipe": recipe})
}

// DELETE /recipe/:id
func (h *Handler) DeleteRecipe(c *gin.Context) {
	const op = "handler.DeleteRecipe"

	log := h.log.With(slog.String("op", op))

	ident, ok := identityFromContext(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	recipeID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		newErrorResponse(c, http.StatusNotFound, "recipe not found")

		return
	}

	if err := h.serviceLayer.DeleteRecipe(c.Request.Context(), ident, recipeID); err != nil {
		switch {
		case errors.Is(err, service.ErrRecipeNotFound):
			newErrorResponse(c, http.StatusNotFound, "recipe not found")
		case errors.Is(err, service.ErrForbidden):
			newErrorResponse(c, http.StatusForbidden, "not authorized to delete this recipe")
		default:
			log.Error("failed to delete recipe", slog.Any("recipe_id", recipeID), slog.Any("error", err))

			newInternalErrorResponse(c, "error deleting recipe", err)
		}

		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "recipe deleted successfully"})
}

// POST /recipe/:id/like
func (h *Handler) ToggleLike(c *gin.Context) {
	const op = "handler.ToggleLike"

	log := h.log.With(slog.String("op", op))

	ident, ok := identityFromContext(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	recipeID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		newErrorResponse(c, http.StatusNotFound, "recipe not found")

		return
	}

	recipe, err := h.serviceLayer.ToggleLike(c.Request.Context(), ident, recipeID)
	if err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			newErrorResponse(c, http.StatusNotFound, "recipe not found")

			return
		}

		log.Error("failed to toggle like", slog.Any("recipe_id", recipeID), slog.Any("error", err))

		newInternalErrorResponse(c, "error toggling like", err)

		return
	}

	c.JSON(http.StatusOK, recipe)
}

// POST /recipe/:id/review
func (h *Handler) AddReview(c *gin.Context) {
	const op = "handler.AddReview"

	log := h.log.With(slog.String("op", op))

	ident, ok := identityFromContext(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	recipeID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		newErrorResponse(c, http.StatusNotFound, "recipe not found")

		return
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "rating and comment are required")

		return
	}

	recipe, err := h.serviceLayer.AddReview(c.Request.Context(), ident, recipeID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			newErrorResponse(c, http.StatusBadRequest, "rating and comment are required")
		case errors.Is(err, service.ErrDuplicateReview):
			newErrorResponse(c, http.StatusBadRequest, "you have already reviewed this recipe")
		case errors.Is(err, service.ErrRecipeNotFound):
			newErrorResponse(c, http.StatusNotFound, "recipe not found")
		default:
			log.Error("failed to add review", slog.Any("recipe_id", recipeID), slog.Any("error", err))

			newInternalErrorResponse(c, "error adding review", err)
		}

		return
	}

	c.JSON(http.StatusOK, recipe)
}

// DELETE /recipe/:id/review/:reviewId
func (h *Handler) DeleteReview(c *gin.Context) {
	const op = "handler.DeleteReview"

	log := h.log.With(slog.String("op", op))

	ident, ok := identityFromContext(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	recipeID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		newErrorResponse(c, http.StatusNotFound, "recipe not found")

		return
	}

	reviewID, err := uuid.FromString(c.Param("reviewId"))
	if err != nil {
		newErrorResponse(c, http.StatusNotFound, "review not found")

		return
	}

	recipe, err := h.serviceLayer.DeleteReview(c.Request.Context(), ident, recipeID, reviewID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecipeNotFound):
			newErrorResponse(c, http.StatusNotFound, "recipe not found")
		case errors.Is(err, service.ErrReviewNotFound):
			newErrorResponse(c, http.StatusNotFound, "review not found")
		case errors.Is(err, service.ErrForbidden):
			newErrorResponse(c, http.StatusForbidden, "not authorized to delete this review")
		default:
			log.Error("failed to delete review", slog.Any("recipe_id", recipeID), slog.Any("error", err))

			newInternalErrorResponse(c, "error deleting review", err)
		}

		return
	}

	c.JSON(http.StatusOK, recipe)
}

func (h *Handler) saveCoverImage(c *gin.Context, file *multipart.FileHeader) (string, error) {
	filename := googleuuid.NewString() + filepath.Ext(file.Filename)

	if err := c.SaveUploadedFile(file, filepath.Join(h.uploadsDir, filename)); err != nil {
		return "", err
	}

	return filename, nil
}
