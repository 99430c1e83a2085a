package testutil

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/jenkass/reddit-parser/internal/model"
)

// NewPostID returns a fresh post id: the hex form of a version 1 UUID.
func NewPostID() string {
	u, err := uuid.NewUUID()
	if err != nil {
		panic(err)
	}
	return strings.ReplaceAll(u.String(), "-", "")
}

// MakeRecord returns a complete record for id written by username.
func MakeRecord(id, username string) model.Record {
	return model.Record{
		ID:           id,
		URL:          fmt.Sprintf("https://reddit.com/r/golang/comments/%s/", id[:6]),
		Username:     username,
		UserKarma:    "1500",
		UserCakeDay:  "March 3, 2016",
		PostKarma:    "900",
		CommentKarma: "600",
		PostDate:     "2021-06-01",
		Comments:     "12",
		Votes:        "340",
		Category:     "golang",
	}
}

// InsertBody returns the post input JSON for rec, keys in wire order.
func InsertBody(rec model.Record) []byte {
	return encodeOrdered(model.RecordFields, rec.Values())
}

// UpdateBody returns the replacement JSON for rec: every key but the id.
func UpdateBody(rec model.Record) []byte {
	return encodeOrdered(model.RecordFields[1:], rec.Values()[1:])
}

func encodeOrdered(keys, values []string) []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(values[i])
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}
