package service

import (
	"context"
	"fmt"

	"github.com/jenkass/reddit-parser/internal/logger"
	"github.com/jenkass/reddit-parser/internal/model"
)

// Post runs post operations against the configured backend. Failures are
// logged here with full detail; callers only learn which sentinel, if
// any, the failure carries.
type Post struct {
	store  model.PostStore
	ctxMgr model.ContextManager
	logger *logger.Logger
}

func NewPost(
	store model.PostStore,
	ctxMgr model.ContextManager,
	logger *logger.Logger,
) *Post {
	return &Post{
		store:  store,
		ctxMgr: ctxMgr,
		logger: logger,
	}
}

// Create stores a new post and returns the backend's post count.
func (s *Post) Create(ctx context.Context, record model.Record) (int, error) {
	l := s.log(ctx)

	n, err := s.store.Insert(ctx, record)
	if err != nil {
		l.Error("failed to add post", "id", record.ID, "username", record.Username, "error", err)
		return 0, fmt.Errorf("failed to add post: %w", err)
	}

	l.Info("post added", "id", record.ID, "count", n)
	return n, nil
}

// List returns every stored post.
func (s *Post) List(ctx context.Context) ([]model.Record, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		s.log(ctx).Warn("failed to list posts", "error", err)
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return records, nil
}

// Get returns the post with id. It reads the whole store, so an empty or
// unreadable store yields ErrNoRecords rather than ErrNotFound.
func (s *Post) Get(ctx context.Context, id string) (model.Record, error) {
	records, err := s.List(ctx)
	if err != nil {
		return model.Record{}, fmt.Errorf("%w: %v", model.ErrNoRecords, err)
	}

	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}

	return model.Record{}, model.ErrNotFound
}

// Update overwrites the post with id and its author's attributes.
func (s *Post) Update(ctx context.Context, id string, record model.Record) error {
	l := s.log(ctx)

	if err := s.store.Update(ctx, id, record); err != nil {
		l.Error("failed to update post", "id", id, "username", record.Username, "error", err)
		return fmt.Errorf("failed to update post: %w", err)
	}

	l.Info("post updated", "id", id)
	return nil
}

// Delete removes the post with id.
func (s *Post) Delete(ctx context.Context, id string) error {
	l := s.log(ctx)

	if err := s.store.Delete(ctx, id); err != nil {
		l.Error("failed to delete post", "id", id, "error", err)
		return fmt.Errorf("failed to delete post: %w", err)
	}

	l.Info("post deleted", "id", id)
	return nil
}

func (s *Post) log(ctx context.Context) *logger.Logger {
	if id, ok := s.ctxMgr.GetRequestIDFromContext(ctx); ok {
		return s.logger.With("request_id", id.String())
	}
	return s.logger
}
