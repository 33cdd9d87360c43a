package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	inputs  []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
	err     error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakePutter) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, params)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.DeleteObjectOutput{}, nil
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("avatars", "Me.PNG")
	assert.True(t, strings.HasPrefix(key, "avatars/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, ObjectKey("avatars", "Me.PNG"))
}

func TestS3StorePut(t *testing.T) {
	putter := &fakePutter{}
	store := newS3StoreWithClient(putter, "media-bucket")

	key, err := store.Put(context.Background(), "events", &Upload{
		Filename:    "flyer.jpg",
		ContentType: "image/jpeg",
		Size:        4,
		Body:        strings.NewReader("data"),
	})
	require.NoError(t, err)
	require.Len(t, putter.inputs, 1)

	in := putter.inputs[0]
	assert.Equal(t, "media-bucket", aws.ToString(in.Bucket))
	assert.Equal(t, key, aws.ToString(in.Key))
	assert.Equal(t, "image/jpeg", aws.ToString(in.ContentType))
	assert.Equal(t, int64(4), aws.ToInt64(in.ContentLength))
}

func TestS3StorePutError(t *testing.T) {
	store := newS3StoreWithClient(&fakePutter{err: errors.New("denied")}, "b")
	_, err := store.Put(context.Background(), "avatars", &Upload{Filename: "a.png", Body: strings.NewReader("")})
	assert.Error(t, err)
}

func TestS3StoreDelete(t *testing.T) {
	putter := &fakePutter{}
	store := newS3StoreWithClient(putter, "media-bucket")

	require.NoError(t, store.Delete(context.Background(), "avatars/abc.png"))
	require.Len(t, putter.deletes, 1)
	assert.Equal(t, "media-bucket", aws.ToString(putter.deletes[0].Bucket))
	assert.Equal(t, "avatars/abc.png", aws.ToString(putter.deletes[0].Key))

	failing := newS3StoreWithClient(&fakePutter{err: errors.New("denied")}, "b")
	assert.Error(t, failing.Delete(context.Background(), "avatars/abc.png"))
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Put(context.Background(), "avatars", &Upload{})
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, Disabled{}.Delete(context.Background(), "avatars/a.png"), ErrDisabled)
}
