package model

import "context"

// PostStore is the storage backend contract shared by the document,
// relational and flat-file implementations.
type PostStore interface {
	// Insert creates the user if its username is new, then the post.
	// It returns the total number of posts after the insert.
	Insert(ctx context.Context, record Record) (int, error)
	// GetAll returns every post joined with its user. An empty store
	// and an unreadable store both yield ErrNoRecords.
	GetAll(ctx context.Context) ([]Record, error)
	// Update overwrites the post identified by id and the attributes of
	// the user the record names. The user must already exist.
	Update(ctx context.Context, id string, record Record) error
	// Delete removes the post and, when it was the last one referencing
	// its user, the user as well.
	Delete(ctx context.Context, id string) error
}

// Field names of a post record, in wire order.
const (
	FieldID           = "unique id"
	FieldURL          = "post URL"
	FieldUsername     = "username"
	FieldUserKarma    = "user karma"
	FieldUserCakeDay  = "user cake day"
	FieldPostKarma    = "post karma"
	FieldCommentKarma = "comment karma"
	FieldPostDate     = "post date"
	FieldComments     = "number of comments"
	FieldVotes        = "number of votes"
	FieldCategory     = "post category"
)

// RecordFields lists the record fields in wire and file order.
var RecordFields = []string{
	FieldID, FieldURL, FieldUsername, FieldUserKarma, FieldUserCakeDay, FieldPostKarma,
	FieldCommentKarma, FieldPostDate, FieldComments, FieldVotes, FieldCategory,
}

// Record is one post joined with the attributes of its user. It is the
// only shape callers ever see.
type Record struct {
	ID           string `json:"unique id"`
	URL          string `json:"post URL"`
	Username     string `json:"username"`
	UserKarma    string `json:"user karma"`
	UserCakeDay  string `json:"user cake day"`
	PostKarma    string `json:"post karma"`
	CommentKarma string `json:"comment karma"`
	PostDate     string `json:"post date"`
	Comments     string `json:"number of comments"`
	Votes        string `json:"number of votes"`
	Category     string `json:"post category"`
}

// User holds the profile attributes shared by every post of one author.
type User struct {
	Username     string
	Karma        string
	CakeDay      string
	PostKarma    string
	CommentKarma string
}

// Post holds the post-only attributes and the username it references.
type Post struct {
	ID       string
	URL      string
	Username string
	Date     string
	Comments string
	Votes    string
	Category string
}

// User extracts the user half of the record.
func (r Record) User() User {
	return User{
		Username:     r.Username,
		Karma:        r.UserKarma,
		CakeDay:      r.UserCakeDay,
		PostKarma:    r.PostKarma,
		CommentKarma: r.CommentKarma,
	}
}

// Post extracts the post half of the record.
func (r Record) Post() Post {
	return Post{
		ID:       r.ID,
		URL:      r.URL,
		Username: r.Username,
		Date:     r.PostDate,
		Comments: r.Comments,
		Votes:    r.Votes,
		Category: r.Category,
	}
}

// Values returns the field values in RecordFields order.
func (r Record) Values() []string {
	return []string{
		r.ID, r.URL, r.Username, r.UserKarma, r.UserCakeDay, r.PostKarma,
		r.CommentKarma, r.PostDate, r.Comments, r.Votes, r.Category,
	}
}

// WithUser returns a copy of the record carrying u's attributes.
func (r Record) WithUser(u User) Record {
	r.Username = u.Username
	r.UserKarma = u.Karma
	r.UserCakeDay = u.CakeDay
	r.PostKarma = u.PostKarma
	r.CommentKarma = u.CommentKarma
	return r
}

// Join builds the flat record for a post and its user.
func Join(p Post, u User) Record {
	return Record{
		ID:           p.ID,
		URL:          p.URL,
		Username:     p.Username,
		UserKarma:    u.Karma,
		UserCakeDay:  u.CakeDay,
		PostKarma:    u.PostKarma,
		CommentKarma: u.CommentKarma,
		PostDate:     p.Date,
		Comments:     p.Comments,
		Votes:        p.Votes,
		Category:     p.Category,
	}
}

// RecordFromValues is the inverse of Record.Values.
func RecordFromValues(values []string) (Record, error) {
	if len(values) != len(RecordFields) {
		return Record{}, ErrMalformedRecord
	}
	return Record{
		ID:           values[0],
		URL:          values[1],
		Username:     values[2],
		UserKarma:    values[3],
		UserCakeDay:  values[4],
		PostKarma:    values[5],
		CommentKarma: values[6],
		PostDate:     values[7],
		Comments:     values[8],
		Votes:        values[9],
		Category:     values[10],
	}, nil
}
