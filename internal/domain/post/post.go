package post

import (
	"errors"
	"time"

	"github.com/geocoder89/devnet/internal/domain/user"
	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment does not exist")
	ErrAlreadyLiked    = errors.New("post already liked")
	ErrNotLiked        = errors.New("post has not yet been liked")
)

type Like struct {
	UserID string `json:"user"`
}

type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	Text      string    `json:"text"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"date"`
}

// Post is owned by UserID. Likes and Comments are newest first; a user likes a post at most once.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	Text      string    `json:"text"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	Likes     []Like    `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"date"`
}

type CreatePostRequest struct {
	Text string `json:"text" binding:"required,notblank,max=5000" msg:"Text is required"`
}

type CreateCommentRequest struct {
	Text string `json:"text" binding:"required,notblank,max=2000" msg:"Text is required"`
}

// FindComment returns the comment with the given id.
func (p Post) FindComment(id string) (Comment, bool) {
	for _, c := range p.Comments {
		if c.ID == id {
			return c, true
		}
	}

	return Comment{}, false
}

// LikedBy reports whether userID has a like on the post.
func (p Post) LikedBy(userID string) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}

	return false
}

// NewFromCreateRequest copies the author's name and avatar onto the post.
func NewFromCreateRequest(req CreatePostRequest, author user.User) Post {
	return Post{
		ID:        uuid.NewString(),
		UserID:    author.ID,
		Text:      req.Text,
		Name:      author.Name,
		Avatar:    author.Avatar,
		Likes:     []Like{},
		Comments:  []Comment{},
		CreatedAt: time.Now().UTC(),
	}
}

func NewComment(req CreateCommentRequest, author user.User) Comment {
	return Comment{
		ID:        uuid.NewString(),
		UserID:    author.ID,
		Text:      req.Text,
		Name:      author.Name,
		Avatar:    author.Avatar,
		CreatedAt: time.Now().UTC(),
	}
}
