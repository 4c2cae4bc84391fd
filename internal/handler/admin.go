package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sourav8908/FLEX-QC-APP/internal/config"
	"github.com/sourav8908/FLEX-QC-APP/internal/model"
	"github.com/sourav8908/FLEX-QC-APP/internal/repository"
	"github.com/sourav8908/FLEX-QC-APP/internal/utils"
)

// UserDirectory is the slice of the user store the admin console
// needs. *repository.UserRepo satisfies it; SetActive and Delete are
// expected to enforce the admin-account protection themselves and
// report it as repository.ErrProtectedUser.
type UserDirectory interface {
	Create(ctx context.Context, u model.User) error
	GetByID(ctx context.Context, userID string) (*model.User, error)
	GetByIDFold(ctx context.Context, userID string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateStage(ctx context.Context, userID string, stage model.Stage) error
	SetActive(ctx context.Context, userID string, active bool) error
	Delete(ctx context.Context, userID string) error
}

// AdminHandler implements the operator directory: account CRUD and
// the dual-key operator search. All endpoints sit behind JWT + the
// ADMIN role middleware.
type AdminHandler struct {
	Users UserDirectory
	Cfg   config.Config
}

func NewAdminHandler(users UserDirectory, cfg config.Config) *AdminHandler {
	if users == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Users: users, Cfg: cfg}
}

// ----- DTOs -----

type createUserReq struct {
	UserID        string      `json:"user_id"`
	Password      string      `json:"password"`
	AssignedStage model.Stage `json:"assigned_stage"`
}
type updateUserReq struct {
	Password      *string      `json:"password"`
	AssignedStage *model.Stage `json:"assigned_stage"`
}

type userView struct {
	UserID        string      `json:"user_id"`
	IsAdmin       bool        `json:"is_admin"`
	IsActive      bool        `json:"is_active"`
	AssignedStage model.Stage `json:"assigned_stage"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func userViewOf(u model.User) userView {
	return userView{
		UserID:        u.UserID,
		IsAdmin:       u.IsAdmin,
		IsActive:      u.IsActive,
		AssignedStage: u.AssignedStage,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// List handles GET /v1/admin/users.
func (h *AdminHandler) List(c echo.Context) error {
	ctx, cancel := adminCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, userViewOf(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Create handles POST /v1/admin/users. Duplicate registration is
// rejected here, before the store write, per the store's contract.
func (h *AdminHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id/password required"})
	}
	if !model.ValidStage(req.AssignedStage) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown stage"})
	}

	ctx, cancel := adminCtx(c)
	defer cancel()
	if existing, err := h.Users.GetByID(ctx, req.UserID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	} else if existing != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "user id already exists"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	u := model.User{
		UserID:        req.UserID,
		PasswordHash:  hash,
		IsActive:      true,
		AssignedStage: req.AssignedStage,
	}
	if err := h.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "user id already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	created, err := h.Users.GetByID(ctx, req.UserID)
	if err != nil || created == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusCreated, userViewOf(*created))
}

// Update handles PUT /v1/admin/users/:id. Only the password and the
// assigned stage are mutable; the user id never changes.
func (h *AdminHandler) Update(c echo.Context) error {
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Password == nil && req.AssignedStage == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	if req.AssignedStage != nil && !model.ValidStage(*req.AssignedStage) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown stage"})
	}

	ctx, cancel := adminCtx(c)
	defer cancel()
	userID := c.Param("id")
	if req.Password != nil {
		if *req.Password == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must not be empty"})
		}
		hash, err := utils.HashPassword(*req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
		}
		if err := h.Users.UpdatePassword(ctx, userID, hash); err != nil {
			return adminRepoError(c, err)
		}
	}
	if req.AssignedStage != nil {
		if err := h.Users.UpdateStage(ctx, userID, *req.AssignedStage); err != nil {
			return adminRepoError(c, err)
		}
	}
	updated, err := h.Users.GetByID(ctx, userID)
	if err != nil || updated == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, userViewOf(*updated))
}

// ToggleActive handles POST /v1/admin/users/:id/toggle-active. The
// seeded admin account is exempt and the request is rejected.
func (h *AdminHandler) ToggleActive(c echo.Context) error {
	ctx, cancel := adminCtx(c)
	defer cancel()
	userID := c.Param("id")
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err := h.Users.SetActive(ctx, userID, !u.IsActive); err != nil {
		return adminRepoError(c, err)
	}
	u.IsActive = !u.IsActive
	return c.JSON(http.StatusOK, userViewOf(*u))
}

// Delete handles DELETE /v1/admin/users/:id. The seeded admin account
// is exempt and the request is rejected.
func (h *AdminHandler) Delete(c echo.Context) error {
	ctx, cancel := adminCtx(c)
	defer cancel()
	if err := h.Users.Delete(ctx, c.Param("id")); err != nil {
		return adminRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Search handles GET /v1/admin/users/search?user_id=...&stage=...
// The lookup is dual-keyed on purpose: the id matches
// case-insensitively AND the selected stage must equal the user's
// assigned stage. A user id is unique on its own, so the stage filter
// is redundant for correctness, but searching with the wrong stage
// reports "not found", and that behavior is part of the contract.
func (h *AdminHandler) Search(c echo.Context) error {
	userID := strings.TrimSpace(c.QueryParam("user_id"))
	stage := model.Stage(c.QueryParam("stage"))
	if userID == "" || !model.ValidStage(stage) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and stage required"})
	}

	ctx, cancel := adminCtx(c)
	defer cancel()
	u, err := h.Users.GetByIDFold(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u == nil || u.AssignedStage != stage {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.JSON(http.StatusOK, userViewOf(*u))
}

func adminCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

func adminRepoError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.Is(err, repository.ErrProtectedUser):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "admin accounts cannot be modified"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
}
