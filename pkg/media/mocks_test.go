package media

import (
	"bytes"
	"context"
	"io"
	"time"
)

// --- Mocks ---

type mockHTTPClient struct {
	data  []byte
	err   error
	calls int
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.calls++
	return m.data, m.err
}

type mockReader struct {
	data    []byte
	err     error
	readErr error
	opened  []string
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	m.opened = append(m.opened, uri)
	if m.err != nil {
		return nil, m.err
	}
	if m.readErr != nil {
		return io.NopCloser(errReader{err: m.readErr}), nil
	}
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

func (m *mockReader) List(ctx context.Context, uri string, fn func(string) error) error {
	return nil
}

type mockCache struct {
	data map[string]any
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string]any)}
}

func (m *mockCache) Get(key string) (any, bool) {
	val, ok := m.data[key]
	return val, ok
}

func (m *mockCache) Set(key string, value any, d time.Duration) {
	m.data[key] = value
}

// errReader は常に読み込みエラーを返すのだ。
type errReader struct{ err error }

func (r errReader) Read(p []byte) (int, error) { return 0, r.err }
