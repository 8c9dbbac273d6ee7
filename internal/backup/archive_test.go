package backup

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/salon-scheduler/internal/config"
	"github.com/BruksfildServices01/salon-scheduler/internal/logging"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
	"github.com/BruksfildServices01/salon-scheduler/internal/storage"
)

// fakeS3 keeps objects in memory and pages listings two at a time.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		for i, k := range keys {
			if k == *in.ContinuationToken {
				start = i
			}
		}
	}
	end := start + 2
	out := &s3.ListObjectsV2Output{}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[end])
	} else {
		end = len(keys)
	}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "salon-backup-v1-2026-10-19.json", FileName(time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC)))
}

func TestS3Archive_PutGetLatest(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	a := NewS3Archive(api, "salon")

	clock := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return clock }

	var keys []string
	for i := 0; i < 3; i++ {
		key, err := a.Put(ctx, models.BackupV1{Version: 1, ExportedAt: clock})
		require.NoError(t, err)
		keys = append(keys, key)
		clock = clock.Add(time.Hour)
	}
	api.objects["backups/notes.txt"] = []byte("ignored")

	listed, err := a.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{keys[2], keys[1], keys[0]}, listed)

	latest, err := a.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "backups/salon-backup-v1-20261019T100000Z.json", latest)

	_, err = a.Get(ctx, "backups/missing.json")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestS3Archive_RoundTripThroughLocalStore(t *testing.T) {
	ctx := context.Background()
	a := NewS3Archive(newFakeS3(), "salon")

	src := repo.NewLocalStore(storage.NewMemoryKV(), repo.WithLogger(logging.Discard()))
	exported, err := src.ExportBackup(ctx)
	require.NoError(t, err)

	key, err := a.Put(ctx, exported)
	require.NoError(t, err)

	data, err := a.Get(ctx, key)
	require.NoError(t, err)

	dst := repo.NewLocalStore(storage.NewMemoryKV(), repo.WithSeed(repo.NoSeed), repo.WithLogger(logging.Discard()))
	require.NoError(t, dst.ImportBackup(ctx, data, repo.ImportOptions{}))

	clients, err := dst.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, len(exported.Clients))
}

func TestS3Archive_LatestEmpty(t *testing.T) {
	_, err := NewS3Archive(newFakeS3(), "salon").Latest(context.Background())
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestNewS3Client(t *testing.T) {
	client := NewS3Client(&config.Config{
		S3Region:          "us-east-1",
		S3Endpoint:        "http://localhost:9000",
		S3AccessKeyID:     "key",
		S3SecretAccessKey: "secret",
	})
	require.NotNil(t, client)
	assert.Equal(t, "us-east-1", client.Options().Region)
	assert.True(t, client.Options().UsePathStyle)
}
