package s3store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pavel-fokin/files-manager/internal/files"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	objects      map[string][]byte
	contentTypes map[string]string
	putErr       error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.contentTypes[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjects) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestStorage_WriteRead(t *testing.T) {
	ctx := context.Background()
	client := newFakeObjects()
	storage := NewWithClient(client, "bucket", "files")

	key, err := storage.Write(ctx, []byte("hello"), "a.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "files/"))
	assert.NotContains(t, key, "a.txt")
	assert.Equal(t, "text/plain; charset=utf-8", client.contentTypes["bucket/"+key])

	data, err := storage.Read(ctx, key, "")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestStorage_ReadVariant(t *testing.T) {
	ctx := context.Background()
	client := newFakeObjects()
	storage := NewWithClient(client, "bucket", "")

	key, err := storage.Write(ctx, []byte("original"), "img.png")
	require.NoError(t, err)

	_, err = storage.Read(ctx, key, "100")
	assert.ErrorIs(t, err, files.ErrContentNotFound)

	client.objects["bucket/"+key+"_100"] = []byte("thumb")

	data, err := storage.Read(ctx, key, "100")
	require.NoError(t, err)
	assert.Equal(t, []byte("thumb"), data)
}

func TestStorage_Delete(t *testing.T) {
	ctx := context.Background()
	storage := NewWithClient(newFakeObjects(), "bucket", "")

	key, err := storage.Write(ctx, []byte("bye"), "bye.txt")
	require.NoError(t, err)

	require.NoError(t, storage.Delete(ctx, key))

	_, err = storage.Read(ctx, key, "")
	assert.ErrorIs(t, err, files.ErrContentNotFound)
}

func TestStorage_WriteError(t *testing.T) {
	client := newFakeObjects()
	client.putErr = errors.New("access denied")
	storage := NewWithClient(client, "bucket", "")

	_, err := storage.Write(context.Background(), []byte("x"), "x.txt")
	assert.ErrorIs(t, err, files.ErrStorage)
}
