package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"speak_score/internal/common"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeObjectStore struct {
	putKeys    []string
	putErr     error
	presignErr error
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.putKeys = append(f.putKeys, key)
	return nil
}

func (f *fakeObjectStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://example.invalid/" + key, nil
}

func TestParseAttemptFilename(t *testing.T) {
	cases := []struct {
		filename      string
		wantProblemID string
		wantUserID    string
		wantExt       string
		wantErr       bool
	}{
		{"12_34.mp3", "12", "34", ".mp3", false},
		{"12_34.wav", "12", "34", ".wav", false},
		{"12_34", "12", "34", ".mp3", false}, // extension defaults to mp3
		{"12-34.mp3", "", "", "", true},      // no underscore
		{"1_2_3.mp3", "", "", "", true},      // extra underscore
		{"_34.mp3", "", "", "", true},        // empty problem id
		{"12_.mp3", "", "", "", true},        // empty user id
		{".mp3", "", "", "", true},
	}
	for _, c := range cases {
		problemID, userID, ext, err := ParseAttemptFilename(c.filename)
		if c.wantErr {
			if !errors.Is(err, common.ErrBadRequest) {
				t.Errorf("ParseAttemptFilename(%q): got err %v, want ErrBadRequest", c.filename, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAttemptFilename(%q): %v", c.filename, err)
			continue
		}
		if problemID != c.wantProblemID || userID != c.wantUserID || ext != c.wantExt {
			t.Errorf("ParseAttemptFilename(%q) = (%s, %s, %s), want (%s, %s, %s)",
				c.filename, problemID, userID, ext, c.wantProblemID, c.wantUserID, c.wantExt)
		}
	}
}

func TestUploadStoresObjectAndEnqueuesKey(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := &fakeObjectStore{}
	svc := NewUploadService(store, rdb, "scoring_test_queue")

	fileID, err := svc.Upload(context.Background(), "12_34.mp3", strings.NewReader("audio-bytes"), 11)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if fileID == "" {
		t.Fatal("expected a file id")
	}

	if len(store.putKeys) != 1 {
		t.Fatalf("got %d object writes, want 1", len(store.putKeys))
	}
	wantKey := fmt.Sprintf("problems/12/users/34/%s.mp3", fileID)
	if store.putKeys[0] != wantKey {
		t.Fatalf("object key %q, want %q", store.putKeys[0], wantKey)
	}

	queued, err := rdb.LRange(context.Background(), "scoring_test_queue", 0, -1).Result()
	if err != nil {
		t.Fatalf("read queue: %v", err)
	}
	if len(queued) != 1 || queued[0] != wantKey {
		t.Fatalf("queue contents %v, want [%s]", queued, wantKey)
	}
}

func TestUploadRejectsMalformedFilenameBeforeStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := &fakeObjectStore{}
	svc := NewUploadService(store, rdb, "scoring_test_queue")

	_, err := svc.Upload(context.Background(), "12-34.mp3", strings.NewReader("x"), 1)
	if !errors.Is(err, common.ErrBadRequest) {
		t.Fatalf("got %v, want ErrBadRequest", err)
	}
	if len(store.putKeys) != 0 {
		t.Fatal("malformed filename must not reach object storage")
	}
}

func TestUploadSurfacesStorageFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := &fakeObjectStore{putErr: errors.New("connection refused")}
	svc := NewUploadService(store, rdb, "scoring_test_queue")

	_, err := svc.Upload(context.Background(), "12_34.mp3", strings.NewReader("x"), 1)
	if !errors.Is(err, common.ErrDependency) {
		t.Fatalf("got %v, want ErrDependency", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("error %q must include the underlying cause", err.Error())
	}

	queued, _ := rdb.LRange(context.Background(), "scoring_test_queue", 0, -1).Result()
	if len(queued) != 0 {
		t.Fatal("a failed upload must not enqueue a scoring job")
	}
}
