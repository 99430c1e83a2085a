package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jenkass/reddit-parser/internal/model"
)

// memoryBucket implements minioAPI over an in-memory object map.
type memoryBucket struct {
	exists  bool
	objects map[string][]byte

	bucketExistsErr error
	makeBucketErr   error
	putErr          error
	getErr          error
	statErr         error

	madeBucket bool
	lastPut    minioLib.PutObjectOptions
	lastSize   int64
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{exists: true, objects: map[string][]byte{}}
}

func (m *memoryBucket) BucketExists(_ context.Context, _ string) (bool, error) {
	return m.exists, m.bucketExistsErr
}

func (m *memoryBucket) MakeBucket(_ context.Context, _ string, _ minioLib.MakeBucketOptions) error {
	if m.makeBucketErr != nil {
		return m.makeBucketErr
	}
	m.madeBucket = true
	m.exists = true
	return nil
}

func (m *memoryBucket) PutObject(_ context.Context, _ string, key string, reader io.Reader, size int64, opts minioLib.PutObjectOptions) (minioLib.UploadInfo, error) {
	if m.putErr != nil {
		return minioLib.UploadInfo{}, m.putErr
	}
	b, err := io.ReadAll(reader)
	if err != nil {
		return minioLib.UploadInfo{}, err
	}
	m.objects[key] = b
	m.lastPut = opts
	m.lastSize = size
	return minioLib.UploadInfo{Key: key, Size: int64(len(b))}, nil
}

func (m *memoryBucket) GetObject(_ context.Context, _ string, key string, _ minioLib.GetObjectOptions) (io.ReadCloser, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return io.NopCloser(bytes.NewReader(m.objects[key])), nil
}

func (m *memoryBucket) StatObject(_ context.Context, _ string, key string, _ minioLib.StatObjectOptions) (minioLib.ObjectInfo, error) {
	if m.statErr != nil {
		return minioLib.ObjectInfo{}, m.statErr
	}
	b, ok := m.objects[key]
	if !ok {
		return minioLib.ObjectInfo{}, minioLib.ErrorResponse{Code: "NoSuchKey"}
	}
	return minioLib.ObjectInfo{Key: key, Size: int64(len(b))}, nil
}

func TestNewClientWithAPI(t *testing.T) {
	ctx := context.Background()

	t.Run("bucket exists", func(t *testing.T) {
		api := newMemoryBucket()
		c, err := NewClientWithAPI(ctx, api, "posts")
		require.NoError(t, err)
		assert.Equal(t, "posts", c.bucket)
		assert.False(t, api.madeBucket)
	})

	t.Run("bucket created", func(t *testing.T) {
		api := newMemoryBucket()
		api.exists = false
		_, err := NewClientWithAPI(ctx, api, "posts")
		require.NoError(t, err)
		assert.True(t, api.madeBucket)
	})

	t.Run("bucket check fails", func(t *testing.T) {
		api := newMemoryBucket()
		api.bucketExistsErr = errors.New("boom")
		c, err := NewClientWithAPI(ctx, api, "posts")
		assert.Nil(t, c)
		assert.ErrorContains(t, err, "failed to ensure bucket exists")
	})

	t.Run("bucket creation fails", func(t *testing.T) {
		api := newMemoryBucket()
		api.exists = false
		api.makeBucketErr = errors.New("fail")
		c, err := NewClientWithAPI(ctx, api, "posts")
		assert.Nil(t, c)
		assert.ErrorContains(t, err, "failed to create bucket")
	})
}

func TestClient_UploadDownload(t *testing.T) {
	ctx := context.Background()
	api := newMemoryBucket()
	c := &Client{api: api, bucket: "posts"}

	require.NoError(t, c.Upload(ctx, "reddit.txt", strings.NewReader("a;b;\n")))
	assert.Equal(t, int64(5), api.lastSize)
	assert.Equal(t, contentType, api.lastPut.ContentType)

	rc, err := c.Download(ctx, "reddit.txt")
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a;b;\n", string(b))
}

func TestClient_Upload_Error(t *testing.T) {
	api := newMemoryBucket()
	api.putErr = errors.New("put-fail")
	c := &Client{api: api, bucket: "posts"}

	err := c.Upload(context.Background(), "k", strings.NewReader("data"))
	assert.ErrorContains(t, err, "failed to upload object")
}

func TestClient_Download_Missing(t *testing.T) {
	c := &Client{api: newMemoryBucket(), bucket: "posts"}

	rc, err := c.Download(context.Background(), "absent")
	assert.Nil(t, rc)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestClient_Download_GetError(t *testing.T) {
	api := newMemoryBucket()
	api.objects["k"] = []byte("x")
	api.getErr = errors.New("get-fail")
	c := &Client{api: api, bucket: "posts"}

	rc, err := c.Download(context.Background(), "k")
	assert.Nil(t, rc)
	assert.ErrorContains(t, err, "failed to get object")
}

func TestClient_Exists(t *testing.T) {
	ctx := context.Background()

	t.Run("exists", func(t *testing.T) {
		api := newMemoryBucket()
		api.objects["k"] = nil
		c := &Client{api: api, bucket: "posts"}
		ok, err := c.Exists(ctx, "k")
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("not found", func(t *testing.T) {
		c := &Client{api: newMemoryBucket(), bucket: "posts"}
		ok, err := c.Exists(ctx, "absent")
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("other error", func(t *testing.T) {
		api := newMemoryBucket()
		api.statErr = errors.New("stat-fail")
		c := &Client{api: api, bucket: "posts"}
		ok, err := c.Exists(ctx, "k")
		assert.False(t, ok)
		assert.ErrorContains(t, err, "failed to stat object")
	})
}
