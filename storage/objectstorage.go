// Package storage 提供模型制品的对象存储访问
package storage

import (
	"bytes"
	"context"
	"encoding/gob"
	"io"
)

// ObjectStorage is the bucket-and-key store the registry persists
// records and fitted estimators into.
type ObjectStorage interface {
	// PutObject stores the object under bucket/key.
	PutObject(ctx context.Context, bucket, key string, body io.Reader) error

	// GetObject returns the object content.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// DeleteObject removes the object.
	DeleteObject(ctx context.Context, bucket, key string) error

	// IsObjectExist reports whether the object exists.
	IsObjectExist(ctx context.Context, bucket, key string) (bool, error)
}

// EncodeGob serializes v for storage.
func EncodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeGob deserializes stored bytes into v.
func DecodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
