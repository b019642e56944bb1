package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

type memoryObject struct {
	data []byte
	info ObjectInfo
}

// memoryStorage keeps objects in a map. It backs local development and tests.
type memoryStorage struct {
	mu        sync.RWMutex
	objects   map[string]memoryObject
	bucket    string
	publicURL string
}

// NewMemory returns an in-process Storage whose public URLs are built from publicURL and bucket.
func NewMemory(publicURL, bucket string) Storage {
	return &memoryStorage{
		objects:   make(map[string]memoryObject),
		bucket:    bucket,
		publicURL: publicURL,
	}
}

func (s *memoryStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ObjectInfo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[key]; exists {
		return ObjectInfo{}, fmt.Errorf("%w: %s", ErrObjectExists, key)
	}
	info := ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  opt.ContentType,
		LastModified: time.Now(),
		Metadata:     opt.Metadata,
	}
	s.objects[key] = memoryObject{data: data, info: info}
	return info, nil
}

func (s *memoryStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, ObjectInfo{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.info, nil
}

func (s *memoryStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

func (s *memoryStorage) List(ctx context.Context) ([]ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ObjectInfo, 0, len(s.objects))
	for _, obj := range s.objects {
		out = append(out, obj.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *memoryStorage) PublicURL(key string) string {
	return objectURL(s.publicURL, s.bucket, key)
}
