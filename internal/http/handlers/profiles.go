package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/devnet/internal/auth"
	"github.com/geocoder89/devnet/internal/config"
	"github.com/geocoder89/devnet/internal/domain/profile"
	"github.com/geocoder89/devnet/internal/domain/user"
	"github.com/geocoder89/devnet/internal/observability"
	"github.com/geocoder89/devnet/internal/utils"
	"github.com/gin-gonic/gin"
)

type ProfileStore interface {
	Upsert(ctx context.Context, userID string, f profile.Fields) (profile.Profile, error)
	GetByUserID(ctx context.Context, userID string) (profile.Profile, error)
	List(ctx context.Context) ([]profile.Profile, error)
	AddExperience(ctx context.Context, userID string, x profile.Experience) (profile.Profile, error)
	AddEducation(ctx context.Context, userID string, x profile.Education) (profile.Profile, error)
	ExperienceOwner(ctx context.Context, id string) (string, error)
	EducationOwner(ctx context.Context, id string) (string, error)
	DeleteExperience(ctx context.Context, userID, id string) (profile.Profile, error)
	DeleteEducation(ctx context.Context, userID, id string) (profile.Profile, error)
}

// AccountDeleter removes a user together with everything they own.
type AccountDeleter interface {
	Delete(ctx context.Context, id string) error
}

type ProfilesHandler struct {
	profiles ProfileStore
	accounts AccountDeleter
	prom     *observability.Prom
	timeout  time.Duration
}

func NewProfilesHandler(profiles ProfileStore, accounts AccountDeleter, prom *observability.Prom, timeout time.Duration) *ProfilesHandler {
	return &ProfilesHandler{
		profiles: profiles,
		accounts: accounts,
		prom:     prom,
		timeout:  timeout,
	}
}

func (h *ProfilesHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	profiles, err := h.profiles.List(cctx)
	if err != nil {
		RespondServerError(ctx, "profiles.list", err)
		return
	}

	ctx.JSON(http.StatusOK, profiles)
}

func (h *ProfilesHandler) Me(ctx *gin.Context) {
	id, ok := actorID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	p, err := h.profiles.GetByUserID(cctx, id)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			RespondNotFound(ctx, msgNoProfile)
			return
		}

		RespondServerError(ctx, "profiles.me", err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *ProfilesHandler) ByUser(ctx *gin.Context) {
	userID := ctx.Param("user_id")
	if !utils.IsUUID(userID) {
		RespondNotFound(ctx, msgProfileNotFound)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	p, err := h.profiles.GetByUserID(cctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			RespondNotFound(ctx, msgProfileNotFound)
			return
		}

		RespondServerError(ctx, "profiles.by_user", err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// Upsert creates the caller's profile or overwrites its fields.
func (h *ProfilesHandler) Upsert(ctx *gin.Context) {
	id, ok := actorID(ctx)
	if !ok {
		return
	}

	var req profile.UpsertRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	p, err := h.profiles.Upsert(cctx, id, req.Fields())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondServerError(ctx, "profiles.upsert", err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// DeleteAccount removes the caller's posts, profile and user. It only ever acts on the caller.
func (h *ProfilesHandler) DeleteAccount(ctx *gin.Context) {
	id, ok := actorID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.accounts.Delete(cctx, id); err != nil {
		RespondServerError(ctx, "profiles.delete_account", err)
		return
	}

	RespondMsg(ctx, http.StatusOK, "User deleted")
}

func (h *ProfilesHandler) AddExperience(ctx *gin.Context) {
	id, ok := actorID(ctx)
	if !ok {
		return
	}

	var req profile.ExperienceRequest

	if !BindJSON(ctx, &req) {
		return
	}

	x, err := profile.NewExperience(req)
	if err != nil {
		RespondValidation(ctx, []FieldError{{Field: "from", Rule: "datetime", Message: err.Error()}})
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	p, err := h.profiles.AddExperience(cctx, id, x)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			RespondNotFound(ctx, msgNoProfile)
			return
		}

		RespondServerError(ctx, "profiles.experience.add", err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *ProfilesHandler) AddEducation(ctx *gin.Context) {
	id, ok := actorID(ctx)
	if !ok {
		return
	}

	var req profile.EducationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	x, err := profile.NewEducation(req)
	if err != nil {
		RespondValidation(ctx, []FieldError{{Field: "from", Rule: "datetime", Message: err.Error()}})
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	p, err := h.profiles.AddEducation(cctx, id, x)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			RespondNotFound(ctx, msgNoProfile)
			return
		}

		RespondServerError(ctx, "profiles.education.add", err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *ProfilesHandler) DeleteExperience(ctx *gin.Context) {
	h.deleteEntry(ctx, ctx.Param("exp_id"), "Experience not found", "profiles.experience.delete",
		h.profiles.ExperienceOwner, h.profiles.DeleteExperience)
}

func (h *ProfilesHandler) DeleteEducation(ctx *gin.Context) {
	h.deleteEntry(ctx, ctx.Param("edu_id"), "Education not found", "profiles.education.delete",
		h.profiles.EducationOwner, h.profiles.DeleteEducation)
}

// deleteEntry looks up the entry's owner, checks it against the caller, then removes it.
func (h *ProfilesHandler) deleteEntry(
	ctx *gin.Context,
	entryID, notFoundMsg, op string,
	owner func(context.Context, string) (string, error),
	remove func(context.Context, string, string) (profile.Profile, error),
) {
	id, ok := actorID(ctx)
	if !ok {
		return
	}

	if !utils.IsUUID(entryID) {
		RespondNotFound(ctx, notFoundMsg)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	ownerID, err := owner(cctx, entryID)
	if err != nil {
		if errors.Is(err, profile.ErrEntryNotFound) {
			RespondNotFound(ctx, notFoundMsg)
			return
		}

		RespondServerError(ctx, op, err)
		return
	}

	if err := auth.RequireOwner(id, ownerID); err != nil {
		h.prom.AuthDecision("forbidden")
		RespondForbidden(ctx)
		return
	}

	p, err := remove(cctx, id, entryID)
	if err != nil {
		if errors.Is(err, profile.ErrEntryNotFound) {
			RespondNotFound(ctx, notFoundMsg)
			return
		}

		RespondServerError(ctx, op, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}
