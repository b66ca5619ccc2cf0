package storage

import (
	"bytes"
	"context"
	"io"
	"testing"
)

func TestMemoryPutGetDelete(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.PutObject(ctx, "bucket", "models/1/record.gob", bytes.NewReader([]byte("payload"))); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	exists, err := store.IsObjectExist(ctx, "bucket", "models/1/record.gob")
	if err != nil || !exists {
		t.Fatalf("expected object to exist, got exists=%v err=%v", exists, err)
	}

	reader, err := store.GetObject(ctx, "bucket", "models/1/record.gob")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	data, _ := io.ReadAll(reader)
	reader.Close()
	if string(data) != "payload" {
		t.Fatalf("got %q want %q", data, "payload")
	}

	if err := store.DeleteObject(ctx, "bucket", "models/1/record.gob"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.GetObject(ctx, "bucket", "models/1/record.gob"); err != ErrObjectNotFound {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

type countingStore struct {
	*Memory
	gets int
}

func (c *countingStore) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	c.gets++
	return c.Memory.GetObject(ctx, bucket, key)
}

func TestCachedStoreReadThrough(t *testing.T) {
	inner := &countingStore{Memory: NewMemory()}
	cached, err := NewCachedStore(inner, 4)
	if err != nil {
		t.Fatalf("new cache failed: %v", err)
	}
	ctx := context.Background()

	if err := cached.PutObject(ctx, "b", "k", bytes.NewReader([]byte("v1"))); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		reader, err := cached.GetObject(ctx, "b", "k")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		data, _ := io.ReadAll(reader)
		reader.Close()
		if string(data) != "v1" {
			t.Fatalf("got %q want v1", data)
		}
	}
	if inner.gets != 1 {
		t.Fatalf("expected 1 backing read, got %d", inner.gets)
	}

	// A write must evict the cached entry.
	if err := cached.PutObject(ctx, "b", "k", bytes.NewReader([]byte("v2"))); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	reader, err := cached.GetObject(ctx, "b", "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	data, _ := io.ReadAll(reader)
	reader.Close()
	if string(data) != "v2" {
		t.Fatalf("got %q want v2", data)
	}
	if inner.gets != 2 {
		t.Fatalf("expected 2 backing reads, got %d", inner.gets)
	}
}

func TestGobRoundTrip(t *testing.T) {
	type record struct {
		ID   int
		Name string
	}
	encoded, err := EncodeGob(record{ID: 7, Name: "Ridge"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	var decoded record
	if err := DecodeGob(encoded, &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.ID != 7 || decoded.Name != "Ridge" {
		t.Fatalf("unexpected round trip result: %+v", decoded)
	}
}
