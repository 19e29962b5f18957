package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/devnet/internal/domain/post"
	"github.com/geocoder89/devnet/internal/domain/user"
)

type PostsRepo struct {
	s *Store
}

func (r *PostsRepo) Create(_ context.Context, p post.Post) (post.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[p.UserID]; !ok {
		return post.Post{}, user.ErrNotFound
	}

	if p.Likes == nil {
		p.Likes = []post.Like{}
	}
	if p.Comments == nil {
		p.Comments = []post.Comment{}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	r.s.posts[p.ID] = p

	return p, nil
}

func (r *PostsRepo) List(_ context.Context) ([]post.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]post.Post, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (r *PostsRepo) GetByID(_ context.Context, id string) (post.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}

	return p, nil
}

func (r *PostsRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[id]; !ok {
		return post.ErrNotFound
	}

	delete(r.s.posts, id)

	return nil
}

// Like checks and inserts under the write lock, so a user never gets two likes.
func (r *PostsRepo) Like(_ context.Context, postID, userID string) ([]post.Like, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok {
		return nil, post.ErrNotFound
	}

	if p.LikedBy(userID) {
		return nil, post.ErrAlreadyLiked
	}

	p.Likes = prepend(p.Likes, post.Like{UserID: userID})
	r.s.posts[postID] = p

	return p.Likes, nil
}

func (r *PostsRepo) Unlike(_ context.Context, postID, userID string) ([]post.Like, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok {
		return nil, post.ErrNotFound
	}

	var removed bool
	p.Likes, removed = removeWhere(p.Likes, func(l post.Like) bool { return l.UserID == userID })
	if !removed {
		return nil, post.ErrNotLiked
	}

	r.s.posts[postID] = p

	return p.Likes, nil
}

func (r *PostsRepo) AddComment(_ context.Context, postID string, c post.Comment) ([]post.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok {
		return nil, post.ErrNotFound
	}

	p.Comments = prepend(p.Comments, c)
	r.s.posts[postID] = p

	return p.Comments, nil
}

func (r *PostsRepo) DeleteComment(_ context.Context, postID, commentID string) ([]post.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok {
		return nil, post.ErrNotFound
	}

	var removed bool
	p.Comments, removed = removeWhere(p.Comments, func(c post.Comment) bool { return c.ID == commentID })
	if !removed {
		return nil, post.ErrCommentNotFound
	}

	r.s.posts[postID] = p

	return p.Comments, nil
}
