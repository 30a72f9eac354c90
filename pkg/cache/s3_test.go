package cache

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
)

// mockS3 is an in-memory S3API backed by a map of object bodies.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

func newMockS3() *mockS3 {
	return &mockS3{objects: make(map[string][]byte)}
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[*params.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*params.Key] = data
	m.puts++
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, *params.Prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newMockS3()
	store := NewS3Store(client, "renders")

	entry := &Entry{
		Markup:      "<html>feed</html>",
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Stale:       true,
	}
	if err := store.Set(ctx, "/feed", entry); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if client.puts != 1 {
		t.Errorf("puts = %d, want 1", client.puts)
	}

	got, err := store.Get(ctx, "/feed")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("entry missing after Set")
	}
	if got.Markup != entry.Markup || got.Stale != entry.Stale || !got.GeneratedAt.Equal(entry.GeneratedAt) {
		t.Errorf("round trip mismatch: %+v vs %+v", got, entry)
	}
}

func TestS3StoreMissingKey(t *testing.T) {
	store := NewS3Store(newMockS3(), "renders")

	got, err := store.Get(context.Background(), "/nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("missing key returned entry: %+v", got)
	}
}

func TestS3StorePrefix(t *testing.T) {
	ctx := context.Background()
	client := newMockS3()
	store := NewS3Store(client, "renders", WithS3Prefix("custom/"))

	store.Set(ctx, "/feed", &Entry{Markup: "x", GeneratedAt: time.Now()})
	if _, ok := client.objects["custom//feed"]; !ok {
		t.Errorf("object keys = %v, want custom//feed", client.objects)
	}
}

func TestS3StoreClear(t *testing.T) {
	ctx := context.Background()
	client := newMockS3()
	store := NewS3Store(client, "renders")

	now := time.Now()
	store.Set(ctx, "/a", &Entry{Markup: "a", GeneratedAt: now})
	store.Set(ctx, "/b", &Entry{Markup: "b", GeneratedAt: now})
	client.objects["other/unrelated"] = []byte("keep")

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if got, _ := store.Get(ctx, "/a"); got != nil {
		t.Error("entry /a survived Clear")
	}
	if _, ok := client.objects["other/unrelated"]; !ok {
		t.Error("Clear removed objects outside the prefix")
	}
}

func TestS3StoreClosed(t *testing.T) {
	store := NewS3Store(newMockS3(), "renders")
	store.Close()

	if _, err := store.Get(context.Background(), "/a"); err == nil {
		t.Error("Get on closed store succeeded")
	}
	if err := store.Set(context.Background(), "/a", &Entry{}); err == nil {
		t.Error("Set on closed store succeeded")
	}
}
