// Package postgres is the relational backend: a users table with a
// surrogate key and a posts table referencing it.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jenkass/reddit-parser/internal/model"
)

const uniqueViolation = "23505"

var _ model.PostStore = (*PostRepository)(nil)

type PostRepository struct {
	db *Connection
}

func NewPostRepository(db *Connection) *PostRepository {
	return &PostRepository{
		db: db,
	}
}

// Insert looks up or creates the user row, then inserts the post
// referencing it, all in one transaction so a rejected post never leaves
// a new user behind. It returns the number of posts.
func (r *PostRepository) Insert(ctx context.Context, record model.Record) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var taken bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, record.ID).Scan(&taken)
	if err != nil {
		return 0, fmt.Errorf("failed to check post id: %w", err)
	}
	if taken {
		return 0, model.ErrDuplicateID
	}

	u := record.User()

	var userID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username = $1`, u.Username).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO users (username, user_karma, user_cake_day, post_karma, comment_karma)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			u.Username, u.Karma, u.CakeDay, u.PostKarma, u.CommentKarma,
		).Scan(&userID)
		if err != nil {
			return 0, fmt.Errorf("failed to insert user: %w", err)
		}
	} else if err != nil {
		return 0, fmt.Errorf("failed to find user: %w", err)
	}

	p := record.Post()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO posts (id, post_url, post_date, number_of_comments, number_of_votes, post_category, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.URL, p.Date, p.Comments, p.Votes, p.Category, userID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, model.ErrDuplicateID
		}
		return 0, fmt.Errorf("failed to insert post: %w", err)
	}

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit post: %w", err)
	}

	return n, nil
}

// GetAll returns all posts joined with their users, ordered by post id.
func (r *PostRepository) GetAll(ctx context.Context) ([]model.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.post_url, u.username, u.user_karma, u.user_cake_day, u.post_karma,
		       u.comment_karma, p.post_date, p.number_of_comments, p.number_of_votes, p.post_category
		FROM posts p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query posts: %w", model.ErrNoRecords, err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var rec model.Record
		var karma, cakeDay, postKarma, commentKarma sql.NullString
		var url, date, comments, votes, category sql.NullString
		if err := rows.Scan(
			&rec.ID, &url, &rec.Username, &karma, &cakeDay, &postKarma,
			&commentKarma, &date, &comments, &votes, &category,
		); err != nil {
			return nil, fmt.Errorf("%w: failed to scan post: %w", model.ErrNoRecords, err)
		}
		rec.URL = url.String
		rec.UserKarma = karma.String
		rec.UserCakeDay = cakeDay.String
		rec.PostKarma = postKarma.String
		rec.CommentKarma = commentKarma.String
		rec.PostDate = date.String
		rec.Comments = comments.String
		rec.Votes = votes.String
		rec.Category = category.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrNoRecords, err)
	}

	if len(records) == 0 {
		return nil, model.ErrNoRecords
	}

	return records, nil
}

// Update resolves the user by username, re-points and rewrites the post,
// then rewrites the user's attributes.
func (r *PostRepository) Update(ctx context.Context, id string, record model.Record) error {
	u := record.User()

	var userID int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM users WHERE username = $1`, u.Username).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	p := record.Post()
	res, err := r.db.ExecContext(ctx, `
		UPDATE posts
		SET post_url = $1, post_date = $2, number_of_comments = $3, number_of_votes = $4,
		    post_category = $5, user_id = $6
		WHERE id = $7`,
		p.URL, p.Date, p.Comments, p.Votes, p.Category, userID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE users
		SET user_karma = $1, user_cake_day = $2, post_karma = $3, comment_karma = $4
		WHERE id = $5`,
		u.Karma, u.CakeDay, u.PostKarma, u.CommentKarma, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// Delete removes the post and then its user when no other post references it.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	var userID int64
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM posts WHERE id = $1`, id).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to find post: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	var referenced bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE user_id = $1)`, userID).Scan(&referenced)
	if err != nil {
		return fmt.Errorf("failed to check remaining posts: %w", err)
	}
	if referenced {
		return nil
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete orphaned user: %w", err)
	}

	return nil
}
