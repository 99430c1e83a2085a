// Package file stores posts as lines of a single flat file.
//
// Each line holds one full record, fields joined by ';' in wire order and
// terminated by a trailing ';'. Users are not materialized: their
// attributes are repeated on every line they authored. Updates and deletes
// rewrite the whole file, so a crash mid-rewrite can corrupt it.
package file

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jenkass/reddit-parser/internal/model"
)

const delimiter = ";"

var _ model.PostStore = (*PostRepository)(nil)

// PostRepository is the flat-file backend. The file lives under key on
// the given storage medium.
type PostRepository struct {
	storage model.Storage
	key     string

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewPostRepository creates a repository over storage.
func NewPostRepository(storage model.Storage, key string) *PostRepository {
	return &PostRepository{
		storage: storage,
		key:     key,
	}
}

// Insert appends the record unless a line with the same id exists and
// returns the number of lines afterwards.
func (r *PostRepository) Insert(ctx context.Context, record model.Record) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line, err := encodeLine(record)
	if err != nil {
		return 0, err
	}

	records, err := r.read(ctx)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return 0, err
	}

	for _, rec := range records {
		if rec.ID == record.ID {
			return 0, model.ErrDuplicateID
		}
	}

	if appender, ok := r.storage.(model.Appender); ok {
		err = appender.Append(ctx, r.key, strings.NewReader(line))
	} else {
		var buf bytes.Buffer
		for _, rec := range records {
			l, _ := encodeLine(rec)
			buf.WriteString(l)
		}
		buf.WriteString(line)
		err = r.storage.Upload(ctx, r.key, &buf)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to append post: %w", err)
	}

	return len(records) + 1, nil
}

// GetAll returns every line as a record in file order.
func (r *PostRepository) GetAll(ctx context.Context) ([]model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.read(ctx)
	if errors.Is(err, model.ErrNotFound) {
		// A file that was never written is an empty store, not a lookup miss.
		return nil, model.ErrNoRecords
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrNoRecords, err)
	}
	if len(records) == 0 {
		return nil, model.ErrNoRecords
	}

	return records, nil
}

// Update rewrites the line of post id. The username must already appear
// in the file. The new user attributes are written onto every line of
// that username so all its posts stay consistent.
func (r *PostRepository) Update(ctx context.Context, id string, record model.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record.ID = id
	if _, err := encodeLine(record); err != nil {
		return err
	}

	records, err := r.read(ctx)
	if err != nil {
		return err
	}

	idx := indexOf(records, id)
	if idx < 0 {
		return model.ErrNotFound
	}

	userExists := false
	for _, rec := range records {
		if rec.Username == record.Username {
			userExists = true
			break
		}
	}
	if !userExists {
		return model.ErrUserNotFound
	}

	records[idx] = record
	user := record.User()
	for i, rec := range records {
		if rec.Username == user.Username {
			records[i] = rec.WithUser(user)
		}
	}

	return r.write(ctx, records)
}

// Delete drops the line of post id. The author disappears with its last line.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.read(ctx)
	if err != nil {
		return err
	}

	idx := indexOf(records, id)
	if idx < 0 {
		return model.ErrNotFound
	}

	records = append(records[:idx], records[idx+1:]...)

	return r.write(ctx, records)
}

func (r *PostRepository) read(ctx context.Context) ([]model.Record, error) {
	rc, err := r.storage.Download(ctx, r.key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open posts file: %w", err)
	}
	defer rc.Close()

	return decodeLines(rc)
}

func (r *PostRepository) write(ctx context.Context, records []model.Record) error {
	var buf bytes.Buffer
	for _, rec := range records {
		line, err := encodeLine(rec)
		if err != nil {
			return err
		}
		buf.WriteString(line)
	}

	if err := r.storage.Upload(ctx, r.key, &buf); err != nil {
		return fmt.Errorf("failed to rewrite posts file: %w", err)
	}
	return nil
}

func indexOf(records []model.Record, id string) int {
	for i, rec := range records {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func encodeLine(record model.Record) (string, error) {
	values := record.Values()
	for i, v := range values {
		if strings.ContainsAny(v, delimiter+"\r\n") {
			return "", fmt.Errorf("%w: field %q contains a delimiter or line break", model.ErrMalformedRecord, model.RecordFields[i])
		}
	}
	return strings.Join(values, delimiter) + delimiter + "\n", nil
}

func decodeLines(r io.Reader) ([]model.Record, error) {
	var records []model.Record

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}

		parts := strings.Split(line, delimiter)
		if parts[len(parts)-1] != "" {
			return nil, fmt.Errorf("%w: line %d has no trailing delimiter", model.ErrMalformedRecord, n)
		}

		rec, err := model.RecordFromValues(parts[:len(parts)-1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read posts file: %w", err)
	}

	return records, nil
}
