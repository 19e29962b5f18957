package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/devnet/internal/domain/post"
	"github.com/geocoder89/devnet/internal/domain/user"
	"github.com/geocoder89/devnet/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPostsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PostsRepo {
	return &PostsRepo{pool: pool, prom: prom}
}

const selectPost = `SELECT id, user_id, text, name, avatar, created_at FROM posts`

func scanPost(row pgx.Row) (post.Post, error) {
	var p post.Post

	if err := row.Scan(&p.ID, &p.UserID, &p.Text, &p.Name, &p.Avatar, &p.CreatedAt); err != nil {
		return post.Post{}, err
	}

	p.Likes = []post.Like{}
	p.Comments = []post.Comment{}

	return p, nil
}

func (r *PostsRepo) Create(ctx context.Context, p post.Post) (post.Post, error) {
	err := r.prom.ObserveDB("posts.create", func() error {
		_, e := r.pool.Exec(ctx, `
			INSERT INTO posts (id, user_id, text, name, avatar, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, p.ID, p.UserID, p.Text, p.Name, p.Avatar, p.CreatedAt)
		return e
	})

	if err != nil {
		if code, _ := pgCode(err); code == codeForeignKeyViolation {
			return post.Post{}, user.ErrNotFound
		}
		return post.Post{}, fmt.Errorf("insert post: %w", err)
	}

	if p.Likes == nil {
		p.Likes = []post.Like{}
	}
	if p.Comments == nil {
		p.Comments = []post.Comment{}
	}

	return p, nil
}

// List returns every post, newest first.
func (r *PostsRepo) List(ctx context.Context) ([]post.Post, error) {
	out := []post.Post{}

	err := r.prom.ObserveDB("posts.list", func() error {
		rows, e := r.pool.Query(ctx, selectPost+` ORDER BY created_at DESC, id DESC`)
		if e != nil {
			return e
		}
		defer rows.Close()

		for rows.Next() {
			p, e := scanPost(rows)
			if e != nil {
				return e
			}
			out = append(out, p)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	if err := r.attachChildren(ctx, out); err != nil {
		return nil, err
	}

	return out, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	var p post.Post

	err := r.prom.ObserveDB("posts.get_by_id", func() error {
		var e error
		p, e = scanPost(r.pool.QueryRow(ctx, selectPost+` WHERE id = $1`, id))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isBadID(err) {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, err
	}

	out := []post.Post{p}
	if err := r.attachChildren(ctx, out); err != nil {
		return post.Post{}, err
	}

	return out[0], nil
}

func (r *PostsRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.prom.ObserveDB("posts.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		if isBadID(err) {
			return post.ErrNotFound
		}
		return err
	}

	if affected == 0 {
		return post.ErrNotFound
	}

	return nil
}

// Like adds userID's like atomically; the primary key rejects a second like from the same user.
func (r *PostsRepo) Like(ctx context.Context, postID, userID string) ([]post.Like, error) {
	var affected int64

	err := r.prom.ObserveDB("posts.like", func() error {
		tag, e := r.pool.Exec(ctx, `
			INSERT INTO post_likes (post_id, user_id, created_at)
			VALUES ($1,$2,$3)
			ON CONFLICT ON CONSTRAINT post_likes_pkey DO NOTHING
		`, postID, userID, time.Now().UTC())
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		code, constraint := pgCode(err)
		switch {
		case isBadID(err):
			return nil, post.ErrNotFound
		case code == codeForeignKeyViolation && constraint == "post_likes_post_id_fkey":
			return nil, post.ErrNotFound
		case code == codeForeignKeyViolation:
			return nil, user.ErrNotFound
		}
		return nil, err
	}

	if affected == 0 {
		return nil, post.ErrAlreadyLiked
	}

	return r.likes(ctx, postID)
}

func (r *PostsRepo) Unlike(ctx context.Context, postID, userID string) ([]post.Like, error) {
	var affected int64

	err := r.prom.ObserveDB("posts.unlike", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		if isBadID(err) {
			return nil, post.ErrNotFound
		}
		return nil, err
	}

	if affected == 0 {
		exists, err := r.exists(ctx, postID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, post.ErrNotFound
		}
		return nil, post.ErrNotLiked
	}

	return r.likes(ctx, postID)
}

func (r *PostsRepo) AddComment(ctx context.Context, postID string, c post.Comment) ([]post.Comment, error) {
	err := r.prom.ObserveDB("posts.comment.add", func() error {
		_, e := r.pool.Exec(ctx, `
			INSERT INTO post_comments (id, post_id, user_id, text, name, avatar, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, c.ID, postID, c.UserID, c.Text, c.Name, c.Avatar, c.CreatedAt)
		return e
	})

	if err != nil {
		code, constraint := pgCode(err)
		switch {
		case isBadID(err):
			return nil, post.ErrNotFound
		case code == codeForeignKeyViolation && constraint == "post_comments_post_id_fkey":
			return nil, post.ErrNotFound
		case code == codeForeignKeyViolation:
			return nil, user.ErrNotFound
		}
		return nil, err
	}

	return r.comments(ctx, postID)
}

func (r *PostsRepo) DeleteComment(ctx context.Context, postID, commentID string) ([]post.Comment, error) {
	var affected int64

	err := r.prom.ObserveDB("posts.comment.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM post_comments WHERE id = $1 AND post_id = $2`, commentID, postID)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		if isBadID(err) {
			return nil, post.ErrCommentNotFound
		}
		return nil, err
	}

	if affected == 0 {
		return nil, post.ErrCommentNotFound
	}

	return r.comments(ctx, postID)
}

func (r *PostsRepo) exists(ctx context.Context, postID string) (bool, error) {
	var exists bool

	err := r.prom.ObserveDB("posts.exists", func() error {
		return r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists)
	})

	return exists, err
}

func (r *PostsRepo) likes(ctx context.Context, postID string) ([]post.Like, error) {
	out := []post.Post{{ID: postID, Likes: []post.Like{}}}

	if err := r.attachLikes(ctx, out, map[string]int{postID: 0}, []string{postID}); err != nil {
		return nil, err
	}

	return out[0].Likes, nil
}

func (r *PostsRepo) comments(ctx context.Context, postID string) ([]post.Comment, error) {
	out := []post.Post{{ID: postID, Comments: []post.Comment{}}}

	if err := r.attachComments(ctx, out, map[string]int{postID: 0}, []string{postID}); err != nil {
		return nil, err
	}

	return out[0].Comments, nil
}

func (r *PostsRepo) attachChildren(ctx context.Context, posts []post.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, len(posts))
	index := make(map[string]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		index[p.ID] = i
	}

	if err := r.attachLikes(ctx, posts, index, ids); err != nil {
		return err
	}

	return r.attachComments(ctx, posts, index, ids)
}

func (r *PostsRepo) attachLikes(ctx context.Context, posts []post.Post, index map[string]int, ids []string) error {
	err := r.prom.ObserveDB("posts.likes.list", func() error {
		rows, e := r.pool.Query(ctx, `
			SELECT post_id, user_id
			FROM post_likes
			WHERE post_id = ANY($1::text[]::uuid[])
			ORDER BY created_at DESC, user_id DESC
		`, ids)
		if e != nil {
			return e
		}
		defer rows.Close()

		for rows.Next() {
			var postID string
			var l post.Like
			if e := rows.Scan(&postID, &l.UserID); e != nil {
				return e
			}
			i := index[postID]
			posts[i].Likes = append(posts[i].Likes, l)
		}

		return rows.Err()
	})

	if err != nil {
		return fmt.Errorf("load likes: %w", err)
	}

	return nil
}

func (r *PostsRepo) attachComments(ctx context.Context, posts []post.Post, index map[string]int, ids []string) error {
	err := r.prom.ObserveDB("posts.comments.list", func() error {
		rows, e := r.pool.Query(ctx, `
			SELECT id, post_id, user_id, text, name, avatar, created_at
			FROM post_comments
			WHERE post_id = ANY($1::text[]::uuid[])
			ORDER BY created_at DESC, id DESC
		`, ids)
		if e != nil {
			return e
		}
		defer rows.Close()

		for rows.Next() {
			var postID string
			var c post.Comment
			if e := rows.Scan(&c.ID, &postID, &c.UserID, &c.Text, &c.Name, &c.Avatar, &c.CreatedAt); e != nil {
				return e
			}
			i := index[postID]
			posts[i].Comments = append(posts[i].Comments, c)
		}

		return rows.Err()
	})

	if err != nil {
		return fmt.Errorf("load comments: %w", err)
	}

	return nil
}
