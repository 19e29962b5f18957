package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/devnet/internal/domain/post"
	"github.com/geocoder89/devnet/internal/domain/user"
	"github.com/geocoder89/devnet/internal/http/handlers"
)

// Fake repository implementations of the handlers.PostStore interface

type fakePostsRepo struct {
	createFn        func(ctx context.Context, p post.Post) (post.Post, error)
	listFn          func(ctx context.Context) ([]post.Post, error)
	getFn           func(ctx context.Context, id string) (post.Post, error)
	deleteFn        func(ctx context.Context, id string) error
	likeFn          func(ctx context.Context, postID, userID string) ([]post.Like, error)
	unlikeFn        func(ctx context.Context, postID, userID string) ([]post.Like, error)
	addCommentFn    func(ctx context.Context, postID string, c post.Comment) ([]post.Comment, error)
	deleteCommentFn func(ctx context.Context, postID, commentID string) ([]post.Comment, error)

	deleted        []string
	deletedComment []string
}

func (f *fakePostsRepo) Create(ctx context.Context, p post.Post) (post.Post, error) {
	if f.createFn != nil {
		return f.createFn(ctx, p)
	}
	return p, nil
}

func (f *fakePostsRepo) List(ctx context.Context) ([]post.Post, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return []post.Post{}, nil
}

func (f *fakePostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return post.Post{}, post.ErrNotFound
}

func (f *fakePostsRepo) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakePostsRepo) Like(ctx context.Context, postID, userID string) ([]post.Like, error) {
	if f.likeFn != nil {
		return f.likeFn(ctx, postID, userID)
	}
	return []post.Like{{UserID: userID}}, nil
}

func (f *fakePostsRepo) Unlike(ctx context.Context, postID, userID string) ([]post.Like, error) {
	if f.unlikeFn != nil {
		return f.unlikeFn(ctx, postID, userID)
	}
	return []post.Like{}, nil
}

func (f *fakePostsRepo) AddComment(ctx context.Context, postID string, c post.Comment) ([]post.Comment, error) {
	if f.addCommentFn != nil {
		return f.addCommentFn(ctx, postID, c)
	}
	return []post.Comment{c}, nil
}

func (f *fakePostsRepo) DeleteComment(ctx context.Context, postID, commentID string) ([]post.Comment, error) {
	f.deletedComment = append(f.deletedComment, commentID)
	if f.deleteCommentFn != nil {
		return f.deleteCommentFn(ctx, postID, commentID)
	}
	return []post.Comment{}, nil
}

type fakeUserFinder struct {
	users map[string]user.User
	err   error
}

func (f *fakeUserFinder) GetByID(_ context.Context, id string) (user.User, error) {
	if f.err != nil {
		return user.User{}, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func newPostsHandler(repo *fakePostsRepo, users *fakeUserFinder) *handlers.PostsHandler {
	if users == nil {
		users = &fakeUserFinder{}
	}
	return handlers.NewPostsHandler(repo, users, nil, time.Second)
}

func TestCreatePostHandler(t *testing.T) {
	author := user.User{ID: newUUID(), Name: "Alice", Avatar: "//gravatar/a"}

	tests := []struct {
		name           string
		actor          string
		body           string
		repoSetUp      func(*fakePostsRepo)
		wantStatusCode int
	}{
		{
			name:           "success_copies_author",
			actor:          author.ID,
			body:           `{"text":"hello world"}`,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "validation_error",
			actor:          author.ID,
			body:           `{"text":"   "}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "no_actor",
			body:           `{"text":"hello"}`,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "unknown_author",
			actor:          newUUID(),
			body:           `{"text":"hello"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:  "repo_error",
			actor: author.ID,
			body:  `{"text":"hello"}`,
			repoSetUp: func(f *fakePostsRepo) {
				f.createFn = func(ctx context.Context, p post.Post) (post.Post, error) {
					return post.Post{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePostsRepo{}
			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := newPostsHandler(repo, &fakeUserFinder{users: map[string]user.User{author.ID: author}})
			r := setupRouter(http.MethodPost, "/api/posts", tt.actor, h.Create)

			w := doJSON(r, http.MethodPost, "/api/posts", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if w.Code == http.StatusOK {
				var p post.Post
				if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if p.UserID != author.ID || p.Name != author.Name || p.Avatar != author.Avatar {
					t.Fatalf("author not copied onto post: %+v", p)
				}
			}
		})
	}
}

func TestGetPostHandler(t *testing.T) {
	existing := post.Post{ID: newUUID(), UserID: newUUID(), Text: "hi"}

	tests := []struct {
		name    string
		id      string
		want    int
		wantMsg string
	}{
		{"found", existing.ID, http.StatusOK, ""},
		{"missing", newUUID(), http.StatusBadRequest, "Post not found"},
		{"malformed_id", "not-a-uuid", http.StatusBadRequest, "Post not found"},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePostsRepo{
				getFn: func(ctx context.Context, id string) (post.Post, error) {
					if id == existing.ID {
						return existing, nil
					}
					return post.Post{}, post.ErrNotFound
				},
			}

			h := newPostsHandler(repo, nil)
			r := setupRouter(http.MethodGet, "/api/posts/:id", newUUID(), h.Get)

			w := doJSON(r, http.MethodGet, "/api/posts/"+tt.id, "")

			if w.Code != tt.want {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.want, w.Body.String())
			}
			if tt.wantMsg != "" && msgOf(t, w) != tt.wantMsg {
				t.Fatalf("got msg %q, want %q", msgOf(t, w), tt.wantMsg)
			}
		})
	}
}

func TestDeletePostHandler_OwnershipGuard(t *testing.T) {
	ownerID := newUUID()
	otherID := newUUID()
	postID := newUUID()

	tests := []struct {
		name        string
		actor       string
		want        int
		wantMsg     string
		wantDeleted bool
	}{
		{"owner_can_delete", ownerID, http.StatusOK, "Post removed", true},
		{"other_user_forbidden", otherID, http.StatusForbidden, "User is not authorized", false},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePostsRepo{
				getFn: func(ctx context.Context, id string) (post.Post, error) {
					return post.Post{ID: postID, UserID: ownerID}, nil
				},
			}

			h := newPostsHandler(repo, nil)
			r := setupRouter(http.MethodDelete, "/api/posts/:id", tt.actor, h.Delete)

			w := doJSON(r, http.MethodDelete, "/api/posts/"+postID, "")

			if w.Code != tt.want {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.want, w.Body.String())
			}
			if got := msgOf(t, w); got != tt.wantMsg {
				t.Fatalf("got msg %q, want %q", got, tt.wantMsg)
			}
			if tt.wantDeleted != (len(repo.deleted) == 1) {
				t.Fatalf("delete called %d times, wantDeleted=%v", len(repo.deleted), tt.wantDeleted)
			}
		})
	}
}

func TestLikeHandlers(t *testing.T) {
	postID := newUUID()

	tests := []struct {
		name      string
		path      string
		repoSetUp func(*fakePostsRepo)
		want      int
		wantMsg   string
	}{
		{
			name: "like_ok",
			path: "/api/posts/like/" + postID,
			want: http.StatusOK,
		},
		{
			name: "like_twice",
			path: "/api/posts/like/" + postID,
			repoSetUp: func(f *fakePostsRepo) {
				f.likeFn = func(ctx context.Context, postID, userID string) ([]post.Like, error) {
					return nil, post.ErrAlreadyLiked
				}
			},
			want:    http.StatusBadRequest,
			wantMsg: "Post already liked",
		},
		{
			name: "like_missing_post",
			path: "/api/posts/like/" + postID,
			repoSetUp: func(f *fakePostsRepo) {
				f.likeFn = func(ctx context.Context, postID, userID string) ([]post.Like, error) {
					return nil, post.ErrNotFound
				}
			},
			want:    http.StatusBadRequest,
			wantMsg: "Post not found",
		},
		{
			name: "unlike_without_like",
			path: "/api/posts/unlike/" + postID,
			repoSetUp: func(f *fakePostsRepo) {
				f.unlikeFn = func(ctx context.Context, postID, userID string) ([]post.Like, error) {
					return nil, post.ErrNotLiked
				}
			},
			want:    http.StatusBadRequest,
			wantMsg: "Post has not yet been liked",
		},
		{
			name: "unlike_store_timeout",
			path: "/api/posts/unlike/" + postID,
			repoSetUp: func(f *fakePostsRepo) {
				f.unlikeFn = func(ctx context.Context, postID, userID string) ([]post.Like, error) {
					return nil, context.DeadlineExceeded
				}
			},
			want:    http.StatusInternalServerError,
			wantMsg: "Server error",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePostsRepo{}
			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := newPostsHandler(repo, nil)

			r := setupRouter(http.MethodPut, "/api/posts/like/:id", newUUID(), h.Like)
			r.PUT("/api/posts/unlike/:id", asActor(newUUID()), h.Unlike)

			w := doJSON(r, http.MethodPut, tt.path, "")

			if w.Code != tt.want {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.want, w.Body.String())
			}
			if tt.wantMsg != "" && msgOf(t, w) != tt.wantMsg {
				t.Fatalf("got msg %q, want %q", msgOf(t, w), tt.wantMsg)
			}
		})
	}
}

func TestAddCommentHandler(t *testing.T) {
	author := user.User{ID: newUUID(), Name: "Bob", Avatar: "//gravatar/b"}
	postID := newUUID()

	repo := &fakePostsRepo{}
	h := newPostsHandler(repo, &fakeUserFinder{users: map[string]user.User{author.ID: author}})
	r := setupRouter(http.MethodPost, "/api/posts/comment/:id", author.ID, h.AddComment)

	w := doJSON(r, http.MethodPost, "/api/posts/comment/"+postID, `{"text":"nice"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
	}

	var comments []post.Comment
	if err := json.Unmarshal(w.Body.Bytes(), &comments); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(comments) != 1 || comments[0].UserID != author.ID || comments[0].Name != "Bob" {
		t.Fatalf("unexpected comments: %+v", comments)
	}

	w = doJSON(r, http.MethodPost, "/api/posts/comment/"+postID, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}
}

func TestDeleteCommentHandler_OwnershipGuard(t *testing.T) {
	postOwner := newUUID()
	commenter := newUUID()
	postID := newUUID()
	commentID := newUUID()

	p := post.Post{
		ID:     postID,
		UserID: postOwner,
		Comments: []post.Comment{
			{ID: commentID, UserID: commenter, Text: "mine"},
		},
	}

	tests := []struct {
		name        string
		actor       string
		commentID   string
		want        int
		wantMsg     string
		wantDeleted bool
	}{
		{"comment_author_can_delete", commenter, commentID, http.StatusOK, "", true},
		{"post_owner_cannot_delete_others_comment", postOwner, commentID, http.StatusForbidden, "User is not authorized", false},
		{"missing_comment", commenter, newUUID(), http.StatusBadRequest, "Comment does not exist", false},
		{"malformed_comment_id", commenter, "abc", http.StatusBadRequest, "Comment does not exist", false},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePostsRepo{
				getFn: func(ctx context.Context, id string) (post.Post, error) {
					return p, nil
				},
			}

			h := newPostsHandler(repo, nil)
			r := setupRouter(http.MethodDelete, "/api/posts/comment/:id/:comment_id", tt.actor, h.DeleteComment)

			w := doJSON(r, http.MethodDelete, "/api/posts/comment/"+postID+"/"+tt.commentID, "")

			if w.Code != tt.want {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.want, w.Body.String())
			}
			if tt.wantMsg != "" && msgOf(t, w) != tt.wantMsg {
				t.Fatalf("got msg %q, want %q", msgOf(t, w), tt.wantMsg)
			}
			if tt.wantDeleted != (len(repo.deletedComment) == 1) {
				t.Fatalf("delete comment called %d times, wantDeleted=%v", len(repo.deletedComment), tt.wantDeleted)
			}
		})
	}
}
