// Package memory keeps users, profiles and posts in process memory behind one lock.
// It backs STORE=memory and the router-level tests.
package memory

import (
	"sync"

	"github.com/geocoder89/devnet/internal/domain/post"
	"github.com/geocoder89/devnet/internal/domain/profile"
	"github.com/geocoder89/devnet/internal/domain/user"
)

type Store struct {
	mu       sync.RWMutex
	users    map[string]user.User
	profiles map[string]profile.Profile // by user id
	posts    map[string]post.Post
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]user.User),
		profiles: make(map[string]profile.Profile),
		posts:    make(map[string]post.Post),
	}
}

func (s *Store) Users() *UsersRepo {
	return &UsersRepo{s: s}
}

func (s *Store) Profiles() *ProfilesRepo {
	return &ProfilesRepo{s: s}
}

func (s *Store) Posts() *PostsRepo {
	return &PostsRepo{s: s}
}

// prepend returns a new slice with v first, leaving the input untouched.
func prepend[T any](items []T, v T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, v)
	return append(out, items...)
}

// removeWhere returns a copy of items without the first element that matches.
func removeWhere[T any](items []T, match func(T) bool) ([]T, bool) {
	for i, it := range items {
		if match(it) {
			out := make([]T, 0, len(items)-1)
			out = append(out, items[:i]...)
			return append(out, items[i+1:]...), true
		}
	}

	return items, false
}
