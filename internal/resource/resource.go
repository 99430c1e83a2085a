// Package resource resolves request paths to the post collection or to a
// single post addressed by its unique id.
package resource

import (
	"errors"
	"regexp"
	"strings"
)

// IDPattern matches a post id: 32 lower-case hex characters with a literal
// 1 as the 13th character, the hex form of a version 1 UUID.
const IDPattern = `[0-9a-f]{12}1[0-9a-f]{19}`

// CollectionPath is the path of the post collection.
const CollectionPath = "/posts/"

// ErrUnknownRoute is returned for paths that address neither form.
var ErrUnknownRoute = errors.New("unknown route")

var (
	idRe   = regexp.MustCompile(`^` + IDPattern + `$`)
	itemRe = regexp.MustCompile(`^/posts/(` + IDPattern + `)/$`)
)

// Kind tells collection and item resources apart.
type Kind int

const (
	// Collection is all posts.
	Collection Kind = iota + 1
	// Item is one post.
	Item
)

// Resource is a parsed request target. ID is set for Item only.
type Resource struct {
	Kind Kind
	ID   string
}

// Parse resolves path. The query string, if any, must already be stripped.
func Parse(path string) (Resource, error) {
	if path == CollectionPath {
		return Resource{Kind: Collection}, nil
	}

	m := itemRe.FindStringSubmatch(path)
	if m == nil {
		return Resource{}, ErrUnknownRoute
	}

	return Resource{Kind: Item, ID: m[1]}, nil
}

// ValidID reports whether id has the post id format.
func ValidID(id string) bool {
	return idRe.MatchString(id)
}

// ItemRoute returns the gorilla/mux template for a single post.
func ItemRoute() string {
	return CollectionPath + "{id:" + IDPattern + "}/"
}

// ItemPath returns the path of the post with the given id.
func ItemPath(id string) string {
	return CollectionPath + strings.ToLower(id) + "/"
}
