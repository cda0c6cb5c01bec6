package tracking

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	value := []byte(`[1]`)
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1]`), got, "stored value must not alias the caller's slice")

	require.NoError(t, store.Remove(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorageRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStorage(client, time.Hour)
	ctx := context.Background()

	_, err := store.Get(ctx, "events")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "events", []byte(`[]`)))
	got, err := store.Get(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
	assert.Equal(t, time.Hour, mr.TTL("events"))

	require.NoError(t, store.Remove(ctx, "events"))
	assert.False(t, mr.Exists("events"))
}

func TestRedisStorageBacksTracker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	first := New(Config{Storage: NewRedisStorage(client, 0), Logger: logging.Discard()})
	first.Track(ctx, MethodWhatsApp, SourceCourseCard, WithCourse("Barbering 101"))

	second := New(Config{Storage: NewRedisStorage(client, 0), Logger: logging.Discard()})
	events := second.StoredEvents(ctx)
	require.Len(t, events, 1)
	assert.Equal(t, "Barbering 101", events[0].CourseName)
}

func TestRedisStorageUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	tracker := New(Config{Storage: NewRedisStorage(client, 0), Logger: logging.Discard()})
	mr.Close()

	ctx := context.Background()
	assert.NotPanics(t, func() { tracker.Track(ctx, MethodPhone, SourceContactPage) })
	assert.Empty(t, tracker.StoredEvents(ctx))
}

func TestNewRedisStoragePanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewRedisStorage(nil, 0) })
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	f.mu.Unlock()
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store, err := NewS3Storage(fake, "academy-analytics", "enrollment/")
	require.NoError(t, err)

	_, err = store.Get(ctx, "events")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "events", []byte(`[{"method":"phone"}]`)))
	assert.Contains(t, fake.objects, "academy-analytics/enrollment/events.json")

	got, err := store.Get(ctx, "events")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"method":"phone"}]`, string(got))

	require.NoError(t, store.Remove(ctx, "events"))
	_, err = store.Get(ctx, "events")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3StorageWriteFailureIsAbsorbed(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("AccessDenied")
	store, err := NewS3Storage(fake, "bucket", "")
	require.NoError(t, err)
	tracker := New(Config{Storage: store, Logger: logging.Discard()})

	ctx := context.Background()
	assert.NotPanics(t, func() { tracker.Track(ctx, MethodForm, SourceCoursePage) })
	assert.Empty(t, tracker.StoredEvents(ctx))
}

func TestNewS3StorageValidation(t *testing.T) {
	_, err := NewS3Storage(nil, "bucket", "")
	assert.Error(t, err)
	_, err = NewS3Storage(newFakeS3(), " ", "")
	assert.Error(t, err)
}
