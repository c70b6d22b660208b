package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/noteboard/internal/model"
)

// fakeMinio implements minioAPI without network.
type fakeMinio struct {
	bucketExists    bool
	bucketExistsErr error
	makeBucketErr   error
	madeBucket      bool

	putErr     error
	putSize    int64
	putOptions minioLib.PutObjectOptions

	getRC  io.ReadCloser
	getErr error

	removeErr error

	statInfo minioLib.ObjectInfo
	statErr  error
}

func (f *fakeMinio) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, f.bucketExistsErr
}

func (f *fakeMinio) MakeBucket(_ context.Context, _ string, _ minioLib.MakeBucketOptions) error {
	f.madeBucket = true
	return f.makeBucketErr
}

func (f *fakeMinio) PutObject(_ context.Context, _ string, _ string, _ io.Reader, size int64, opts minioLib.PutObjectOptions) (minioLib.UploadInfo, error) {
	f.putSize = size
	f.putOptions = opts
	return minioLib.UploadInfo{}, f.putErr
}

func (f *fakeMinio) GetObject(_ context.Context, _ string, _ string, _ minioLib.GetObjectOptions) (io.ReadCloser, error) {
	return f.getRC, f.getErr
}

func (f *fakeMinio) RemoveObject(_ context.Context, _ string, _ string, _ minioLib.RemoveObjectOptions) error {
	return f.removeErr
}

func (f *fakeMinio) StatObject(_ context.Context, _ string, _ string, _ minioLib.StatObjectOptions) (minioLib.ObjectInfo, error) {
	return f.statInfo, f.statErr
}

func TestNewClientWithAPI(t *testing.T) {
	ctx := context.Background()

	t.Run("bucket exists", func(t *testing.T) {
		api := &fakeMinio{bucketExists: true}
		c, err := NewClientWithAPI(ctx, api, "pictures")
		require.NoError(t, err)
		assert.Equal(t, "pictures", c.bucket)
		assert.False(t, api.madeBucket)
	})

	t.Run("bucket created", func(t *testing.T) {
		api := &fakeMinio{}
		_, err := NewClientWithAPI(ctx, api, "pictures")
		require.NoError(t, err)
		assert.True(t, api.madeBucket)
	})

	t.Run("exists check fails", func(t *testing.T) {
		api := &fakeMinio{bucketExistsErr: errors.New("boom")}
		c, err := NewClientWithAPI(ctx, api, "pictures")
		assert.Nil(t, c)
		assert.ErrorContains(t, err, "failed to ensure bucket exists")
	})

	t.Run("create fails", func(t *testing.T) {
		api := &fakeMinio{makeBucketErr: errors.New("fail")}
		c, err := NewClientWithAPI(ctx, api, "pictures")
		assert.Nil(t, c)
		assert.ErrorContains(t, err, "failed to create bucket")
	})
}

func TestClient_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		api := &fakeMinio{}
		c := &Client{api: api, bucket: "b"}
		err := c.Upload(ctx, "u/p.png", bytes.NewReader([]byte("data")), 4, "image/png")
		require.NoError(t, err)
		assert.Equal(t, int64(4), api.putSize)
		assert.Equal(t, "image/png", api.putOptions.ContentType)
	})

	t.Run("error", func(t *testing.T) {
		api := &fakeMinio{putErr: errors.New("put-fail")}
		c := &Client{api: api, bucket: "b"}
		err := c.Upload(ctx, "k", bytes.NewReader([]byte("data")), 4, "image/png")
		assert.ErrorContains(t, err, "failed to upload object")
	})
}

func TestClient_Download(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		api := &fakeMinio{
			getRC:    io.NopCloser(bytes.NewReader([]byte("abc"))),
			statInfo: minioLib.ObjectInfo{ContentType: "image/jpeg", Size: 3},
		}
		c := &Client{api: api, bucket: "b"}

		obj, err := c.Download(ctx, "k")
		require.NoError(t, err)
		defer obj.Close()

		data, err := io.ReadAll(obj)
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), data)
		assert.Equal(t, "image/jpeg", obj.ContentType)
		assert.Equal(t, int64(3), obj.Size)
	})

	t.Run("missing", func(t *testing.T) {
		api := &fakeMinio{statErr: minioLib.ErrorResponse{Code: "NoSuchKey"}}
		c := &Client{api: api, bucket: "b"}
		_, err := c.Download(ctx, "absent")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("get error", func(t *testing.T) {
		api := &fakeMinio{getErr: errors.New("get-fail")}
		c := &Client{api: api, bucket: "b"}
		_, err := c.Download(ctx, "k")
		assert.ErrorContains(t, err, "failed to get object")
	})
}

func TestClient_Delete(t *testing.T) {
	ctx := context.Background()

	api := &fakeMinio{}
	c := &Client{api: api, bucket: "b"}
	assert.NoError(t, c.Delete(ctx, "k"))

	api.removeErr = errors.New("remove-fail")
	assert.ErrorContains(t, c.Delete(ctx, "k"), "failed to delete object")
}

func TestClient_Exists(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		statErr error
		want    bool
		wantErr bool
	}{
		{name: "exists", want: true},
		{name: "not found", statErr: minioLib.ErrorResponse{Code: "NoSuchKey"}},
		{name: "other error", statErr: errors.New("stat-fail"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{api: &fakeMinio{statErr: tt.statErr}, bucket: "b"}
			ok, err := c.Exists(ctx, "k")
			if tt.wantErr {
				assert.ErrorContains(t, err, "failed to stat object")
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, ok)
		})
	}
}
