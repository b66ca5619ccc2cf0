package storage

import (
	"bytes"
	"context"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore is a read-through LRU over an ObjectStorage so repeated
// artifact restores don't hit the bucket. Writes and deletes evict.
type CachedStore struct {
	inner ObjectStorage
	cache *lru.Cache[string, []byte]
}

func NewCachedStore(inner ObjectStorage, size int) (*CachedStore, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{inner: inner, cache: cache}, nil
}

func (c *CachedStore) PutObject(ctx context.Context, bucket, key string, body io.Reader) error {
	c.cache.Remove(bucket + "/" + key)
	return c.inner.PutObject(ctx, bucket, key, body)
}

func (c *CachedStore) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	cacheKey := bucket + "/" + key
	if data, ok := c.cache.Get(cacheKey); ok {
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	reader, err := c.inner.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	c.cache.Add(cacheKey, data)
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (c *CachedStore) DeleteObject(ctx context.Context, bucket, key string) error {
	c.cache.Remove(bucket + "/" + key)
	return c.inner.DeleteObject(ctx, bucket, key)
}

func (c *CachedStore) IsObjectExist(ctx context.Context, bucket, key string) (bool, error) {
	if c.cache.Contains(bucket + "/" + key) {
		return true, nil
	}
	return c.inner.IsObjectExist(ctx, bucket, key)
}
