package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/devnet/internal/auth"
	"github.com/geocoder89/devnet/internal/config"
	"github.com/geocoder89/devnet/internal/domain/post"
	"github.com/geocoder89/devnet/internal/domain/user"
	"github.com/geocoder89/devnet/internal/observability"
	"github.com/geocoder89/devnet/internal/utils"
	"github.com/gin-gonic/gin"
)

type PostStore interface {
	Create(ctx context.Context, p post.Post) (post.Post, error)
	List(ctx context.Context) ([]post.Post, error)
	GetByID(ctx context.Context, id string) (post.Post, error)
	Delete(ctx context.Context, id string) error
	Like(ctx context.Context, postID, userID string) ([]post.Like, error)
	Unlike(ctx context.Context, postID, userID string) ([]post.Like, error)
	AddComment(ctx context.Context, postID string, c post.Comment) ([]post.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID string) ([]post.Comment, error)
}

type UserFinder interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type PostsHandler struct {
	posts   PostStore
	users   UserFinder
	prom    *observability.Prom
	timeout time.Duration
}

func NewPostsHandler(posts PostStore, users UserFinder, prom *observability.Prom, timeout time.Duration) *PostsHandler {
	return &PostsHandler{
		posts:   posts,
		users:   users,
		prom:    prom,
		timeout: timeout,
	}
}

func (h *PostsHandler) Create(ctx *gin.Context) {
	id, ok := actorID(ctx)
	if !ok {
		return
	}

	var req post.CreatePostRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	author, ok := h.author(ctx, cctx, id, "posts.create.author")
	if !ok {
		return
	}

	p, err := h.posts.Create(cctx, post.NewFromCreateRequest(req, author))
	if err != nil {
		RespondServerError(ctx, "posts.create", err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *PostsHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	posts, err := h.posts.List(cctx)
	if err != nil {
		RespondServerError(ctx, "posts.list", err)
		return
	}

	ctx.JSON(http.StatusOK, posts)
}

func (h *PostsHandler) Get(ctx *gin.Context) {
	postID := ctx.Param("id")
	if !utils.IsUUID(postID) {
		RespondNotFound(ctx, msgPostNotFound)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	p, err := h.posts.GetByID(cctx, postID)
	if err != nil {
		h.respondPostErr(ctx, "posts.get", err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// Delete removes a post. Only its author may do so.
func (h *PostsHandler) Delete(ctx *gin.Context) {
	id, ok := actorID(ctx)
	if !ok {
		return
	}

	postID := ctx.Param("id")
	if !utils.IsUUID(postID) {
		RespondNotFound(ctx, msgPostNotFound)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	p, err := h.posts.GetByID(cctx, postID)
	if err != nil {
		h.respondPostErr(ctx, "posts.delete.load", err)
		return
	}

	if err := auth.RequireOwner(id, p.UserID); err != nil {
		h.prom.AuthDecision("forbidden")
		RespondForbidden(ctx)
		return
	}

	if err := h.posts.Delete(cctx, postID); err != nil {
		h.respondPostErr(ctx, "posts.delete", err)
		return
	}

	RespondMsg(ctx, http.StatusOK, "Post removed")
}

// Like adds the caller's like. The store rejects a second like from the same user atomically.
func (h *PostsHandler) Like(ctx *gin.Context) {
	id, ok := actorID(ctx)
	if !ok {
		return
	}

	postID := ctx.Param("id")
	if !utils.IsUUID(postID) {
		RespondNotFound(ctx, msgPostNotFound)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	likes, err := h.posts.Like(cctx, postID, id)
	if err != nil {
		h.respondPostErr(ctx, "posts.like", err)
		return
	}

	ctx.JSON(http.StatusOK, likes)
}

func (h *PostsHandler) Unlike(ctx *gin.Context) {
	id, ok := actorID(ctx)
	if !ok {
		return
	}

	postID := ctx.Param("id")
	if !utils.IsUUID(postID) {
		RespondNotFound(ctx, msgPostNotFound)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	likes, err := h.posts.Unlike(cctx, postID, id)
	if err != nil {
		h.respondPostErr(ctx, "posts.unlike", err)
		return
	}

	ctx.JSON(http.StatusOK, likes)
}

func (h *PostsHandler) AddComment(ctx *gin.Context) {
	id, ok := actorID(ctx)
	if !ok {
		return
	}

	postID := ctx.Param("id")
	if !utils.IsUUID(postID) {
		RespondNotFound(ctx, msgPostNotFound)
		return
	}

	var req post.CreateCommentRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	author, ok := h.author(ctx, cctx, id, "posts.comment.author")
	if !ok {
		return
	}

	comments, err := h.posts.AddComment(cctx, postID, post.NewComment(req, author))
	if err != nil {
		h.respondPostErr(ctx, "posts.comment.add", err)
		return
	}

	ctx.JSON(http.StatusOK, comments)
}

// DeleteComment removes a comment. Only the comment's author may do so, not the post's.
func (h *PostsHandler) DeleteComment(ctx *gin.Context) {
	id, ok := actorID(ctx)
	if !ok {
		return
	}

	postID := ctx.Param("id")
	if !utils.IsUUID(postID) {
		RespondNotFound(ctx, msgPostNotFound)
		return
	}

	commentID := ctx.Param("comment_id")
	if !utils.IsUUID(commentID) {
		RespondNotFound(ctx, "Comment does not exist")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	p, err := h.posts.GetByID(cctx, postID)
	if err != nil {
		h.respondPostErr(ctx, "posts.comment.delete.load", err)
		return
	}

	c, found := p.FindComment(commentID)
	if !found {
		RespondNotFound(ctx, "Comment does not exist")
		return
	}

	if err := auth.RequireOwner(id, c.UserID); err != nil {
		h.prom.AuthDecision("forbidden")
		RespondForbidden(ctx)
		return
	}

	comments, err := h.posts.DeleteComment(cctx, postID, commentID)
	if err != nil {
		h.respondPostErr(ctx, "posts.comment.delete", err)
		return
	}

	ctx.JSON(http.StatusOK, comments)
}

func (h *PostsHandler) author(ctx *gin.Context, cctx context.Context, id, op string) (user.User, bool) {
	u, err := h.users.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return user.User{}, false
		}

		RespondServerError(ctx, op, err)
		return user.User{}, false
	}

	return u, true
}

// respondPostErr maps the post store's sentinel errors onto responses.
func (h *PostsHandler) respondPostErr(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, post.ErrNotFound):
		RespondNotFound(ctx, msgPostNotFound)
	case errors.Is(err, post.ErrCommentNotFound):
		RespondNotFound(ctx, "Comment does not exist")
	case errors.Is(err, post.ErrAlreadyLiked):
		RespondBadRequest(ctx, "Post already liked")
	case errors.Is(err, post.ErrNotLiked):
		RespondBadRequest(ctx, "Post has not yet been liked")
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	default:
		RespondServerError(ctx, op, err)
	}
}
