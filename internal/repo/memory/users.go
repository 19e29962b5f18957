package memory

import (
	"context"

	"github.com/geocoder89/devnet/internal/domain/post"
	"github.com/geocoder89/devnet/internal/domain/user"
)

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	r.s.users[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

// Delete removes the user with their profile, posts, likes and comments.
func (r *UsersRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.users, id)
	delete(r.s.profiles, id)

	for pid, p := range r.s.posts {
		if p.UserID == id {
			delete(r.s.posts, pid)
			continue
		}

		p.Likes, _ = removeWhere(p.Likes, func(l post.Like) bool { return l.UserID == id })

		comments := make([]post.Comment, 0, len(p.Comments))
		for _, c := range p.Comments {
			if c.UserID != id {
				comments = append(comments, c)
			}
		}
		p.Comments = comments

		r.s.posts[pid] = p
	}

	return nil
}
