package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, found, err := kv.Get(ctx, "salon:v1:clients")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Set(ctx, "salon:v1:clients", []byte(`[]`)))
	v, found, err := kv.Get(ctx, "salon:v1:clients")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[]`, string(v))

	require.NoError(t, kv.Set(ctx, "salon:v1:clients", []byte(`[{"id":"c1"}]`)))
	require.NoError(t, kv.Set(ctx, "salon:v1:formulas", []byte(`[]`)))
	v, _, err = kv.Get(ctx, "salon:v1:clients")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"c1"}]`, string(v))

	require.NoError(t, kv.Delete(ctx, "salon:v1:clients", "salon:v1:formulas", "missing"))
	_, found, err = kv.Get(ctx, "salon:v1:formulas")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestMemoryKV_CopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	buf := []byte("abc")
	require.NoError(t, kv.Set(context.Background(), "k", buf))
	buf[0] = 'x'

	v, _, _ := kv.Get(context.Background(), "k")
	assert.Equal(t, "abc", string(v))
}

func TestRedisKV(t *testing.T) {
	s := miniredis.RunT(t)

	kv, err := NewRedisKV("redis://" + s.Addr())
	require.NoError(t, err)
	defer kv.Close()

	exerciseKV(t, kv)
}

func TestRedisKV_NoExpiry(t *testing.T) {
	s := miniredis.RunT(t)

	kv, err := NewRedisKV("redis://" + s.Addr())
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Set(context.Background(), "salon:v1:tasks", []byte(`[]`)))
	assert.Equal(t, int64(0), int64(s.TTL("salon:v1:tasks")))
}

func TestNewRedisKV_BadURL(t *testing.T) {
	_, err := NewRedisKV("not a url")
	assert.Error(t, err)
}

func TestFileKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "local.json")
	kv, err := NewFileKV(path)
	require.NoError(t, err)

	exerciseKV(t, kv)
}

func TestFileKV_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")
	first, err := NewFileKV(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(context.Background(), "salon:v1:appointments", []byte(`[{"id":"a1"}]`)))

	second, err := NewFileKV(path)
	require.NoError(t, err)
	v, found, err := second.Get(context.Background(), "salon:v1:appointments")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"a1"}]`, string(v))
}
