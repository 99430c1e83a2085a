// Package mongo is the document backend: users and posts live in two
// collections keyed by username and post id.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jenkass/reddit-parser/internal/model"
)

var _ model.PostStore = (*PostRepository)(nil)

type userDocument struct {
	Username     string `bson:"_id"`
	Karma        string `bson:"user karma"`
	CakeDay      string `bson:"user cake day"`
	PostKarma    string `bson:"post karma"`
	CommentKarma string `bson:"comment karma"`
}

type postDocument struct {
	ID       string `bson:"_id"`
	URL      string `bson:"post URL"`
	Username string `bson:"username"`
	Date     string `bson:"post date"`
	Comments string `bson:"number of comments"`
	Votes    string `bson:"number of votes"`
	Category string `bson:"post category"`
}

func newUserDocument(u model.User) userDocument {
	return userDocument{
		Username:     u.Username,
		Karma:        u.Karma,
		CakeDay:      u.CakeDay,
		PostKarma:    u.PostKarma,
		CommentKarma: u.CommentKarma,
	}
}

func newPostDocument(p model.Post) postDocument {
	return postDocument{
		ID:       p.ID,
		URL:      p.URL,
		Username: p.Username,
		Date:     p.Date,
		Comments: p.Comments,
		Votes:    p.Votes,
		Category: p.Category,
	}
}

func (d userDocument) user() model.User {
	return model.User{
		Username:     d.Username,
		Karma:        d.Karma,
		CakeDay:      d.CakeDay,
		PostKarma:    d.PostKarma,
		CommentKarma: d.CommentKarma,
	}
}

func (d postDocument) post() model.Post {
	return model.Post{
		ID:       d.ID,
		URL:      d.URL,
		Username: d.Username,
		Date:     d.Date,
		Comments: d.Comments,
		Votes:    d.Votes,
		Category: d.Category,
	}
}

// PostRepository is the document backend.
type PostRepository struct {
	users collectionAPI
	posts collectionAPI
}

// NewPostRepository creates a repository over the connection's database.
func NewPostRepository(conn *Connection) *PostRepository {
	return NewPostRepositoryWithAPI(
		collectionWrapper{c: conn.db.Collection(usersCollection)},
		collectionWrapper{c: conn.db.Collection(postsCollection)},
	)
}

// NewPostRepositoryWithAPI allows injecting fake collections.
func NewPostRepositoryWithAPI(users, posts collectionAPI) *PostRepository {
	return &PostRepository{
		users: users,
		posts: posts,
	}
}

// Insert creates the user document when the username is new, then the
// post document, and returns the number of posts. A rejected post leaves
// no user document behind.
func (r *PostRepository) Insert(ctx context.Context, record model.Record) (int, error) {
	_, err := r.posts.FindOne(ctx, bson.M{"_id": record.ID})
	switch {
	case err == nil:
		return 0, model.ErrDuplicateID
	case !errors.Is(err, mongo.ErrNoDocuments):
		return 0, fmt.Errorf("failed to check post id: %w", err)
	}

	createdUser := false
	_, err = r.users.FindOne(ctx, bson.M{"_id": record.Username})
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		if err := r.users.InsertOne(ctx, newUserDocument(record.User())); err != nil {
			return 0, fmt.Errorf("failed to insert user: %w", err)
		}
		createdUser = true
	case err != nil:
		return 0, fmt.Errorf("failed to find user: %w", err)
	}

	if err := r.posts.InsertOne(ctx, newPostDocument(record.Post())); err != nil {
		// Another writer may have taken the id since the check above.
		if createdUser {
			if _, delErr := r.users.DeleteOne(ctx, bson.M{"_id": record.Username}); delErr != nil {
				return 0, fmt.Errorf("failed to remove user after rejected post: %w", errors.Join(err, delErr))
			}
		}
		if mongo.IsDuplicateKeyError(err) {
			return 0, model.ErrDuplicateID
		}
		return 0, fmt.Errorf("failed to insert post: %w", err)
	}

	n, err := r.posts.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}

	return int(n), nil
}

// GetAll joins every post with its user by one lookup per post. A post
// whose user document is missing comes back with empty user attributes.
func (r *PostRepository) GetAll(ctx context.Context) ([]model.Record, error) {
	raws, err := r.posts.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to find posts: %w", model.ErrNoRecords, err)
	}
	if len(raws) == 0 {
		return nil, model.ErrNoRecords
	}

	records := make([]model.Record, 0, len(raws))
	for _, raw := range raws {
		var pd postDocument
		if err := bson.Unmarshal(raw, &pd); err != nil {
			return nil, fmt.Errorf("%w: failed to decode post: %w", model.ErrNoRecords, err)
		}

		ud := userDocument{Username: pd.Username}
		userRaw, err := r.users.FindOne(ctx, bson.M{"_id": pd.Username})
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
		case err != nil:
			return nil, fmt.Errorf("%w: failed to find user: %w", model.ErrNoRecords, err)
		default:
			if err := bson.Unmarshal(userRaw, &ud); err != nil {
				return nil, fmt.Errorf("%w: failed to decode user: %w", model.ErrNoRecords, err)
			}
		}

		records = append(records, model.Join(pd.post(), ud.user()))
	}

	return records, nil
}

// Update overwrites the post and then the user it points to. The user
// must exist beforehand; nothing is written when it does not.
func (r *PostRepository) Update(ctx context.Context, id string, record model.Record) error {
	_, err := r.users.FindOne(ctx, bson.M{"_id": record.Username})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	p := record.Post()
	matched, err := r.posts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"post URL":           p.URL,
		"username":           p.Username,
		"post date":          p.Date,
		"number of comments": p.Comments,
		"number of votes":    p.Votes,
		"post category":      p.Category,
	}})
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if matched == 0 {
		return model.ErrNotFound
	}

	u := record.User()
	matched, err = r.users.UpdateOne(ctx, bson.M{"_id": u.Username}, bson.M{"$set": bson.M{
		"user karma":    u.Karma,
		"user cake day": u.CakeDay,
		"post karma":    u.PostKarma,
		"comment karma": u.CommentKarma,
	}})
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if matched == 0 {
		return model.ErrUserNotFound
	}

	return nil
}

// Delete removes the post, then the user if no post references it any more.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	raw, err := r.posts.FindOne(ctx, bson.M{"_id": id})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to find post: %w", err)
	}

	var pd postDocument
	if err := bson.Unmarshal(raw, &pd); err != nil {
		return fmt.Errorf("failed to decode post: %w", err)
	}

	deleted, err := r.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if deleted == 0 {
		return model.ErrNotFound
	}

	// The existence check runs after the post is gone so a user with
	// other posts is never removed.
	_, err = r.posts.FindOne(ctx, bson.M{"username": pd.Username})
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		if _, err := r.users.DeleteOne(ctx, bson.M{"_id": pd.Username}); err != nil {
			return fmt.Errorf("failed to delete orphaned user: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to check remaining posts: %w", err)
	}

	return nil
}
