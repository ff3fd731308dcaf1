package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadExists(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewLocalStorage(base)
	require.NoError(t, err)

	key, err := s.Upload(ctx, strings.NewReader("a;b\n"), "2024/03-Março/04.csv", "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "2024/03-Março/04.csv", key)
	assert.FileExists(t, filepath.Join(base, "2024", "03-Março", "04.csv"))

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(filepath.Join(base, "2024", "03-Março", "04.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a;b\n", string(data))

	ok, err = s.Exists(ctx, "2024/03-Março/05.csv")
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := os.ReadDir(filepath.Join(base, "2024", "03-Março"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), strings.NewReader("x"), "../../etc/passwd", "text/plain")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[*in.Bucket+"/"+*in.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3Storage(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	s := NewS3Storage(fake, "reports", "/hours/")

	key, err := s.Upload(ctx, strings.NewReader("csv"), "/2024/03-Março/04.csv", "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "hours/2024/03-Março/04.csv", key)
	assert.Equal(t, []byte("csv"), fake.objects["reports/hours/2024/03-Março/04.csv"])

	ok, err := s.Exists(ctx, "2024/03-Março/04.csv")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "2024/03-Março/05.csv")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Exists(ctx, "/")
	assert.ErrorIs(t, err, ErrInvalidPath)
}
