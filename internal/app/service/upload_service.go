package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"speak_score/internal/common"
	"speak_score/internal/platform/objectstore"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// UploadService is the upload relay: one PUT of the raw audio bytes to
// object storage, keyed from the uploaded filename, then a queue push so
// the scoring worker picks the attempt up.
type UploadService struct {
	store     objectstore.ObjectStore
	rdb       *redis.Client
	queueName string
}

func NewUploadService(store objectstore.ObjectStore, rdb *redis.Client, queueName string) *UploadService {
	return &UploadService{store: store, rdb: rdb, queueName: queueName}
}

type UploadResponse struct {
	Status string `json:"status"`
	FileID string `json:"file_id"`
}

// Upload stores one attempt recording. The filename stem must be
// "{problem_id}_{user_id}"; anything else fails the request rather than
// silently truncating.
func (s *UploadService) Upload(ctx context.Context, filename string, r io.Reader, size int64) (string, error) {
	problemID, userID, ext, err := ParseAttemptFilename(filename)
	if err != nil {
		return "", err
	}

	fileID := uuid.NewString()
	key := fmt.Sprintf("problems/%s/users/%s/%s%s", problemID, userID, fileID, ext)

	if err := s.store.Put(ctx, key, r, size, contentTypeForExt(ext)); err != nil {
		return "", fmt.Errorf("object storage write failed: %v: %w", err, common.ErrDependency)
	}

	// The upload itself succeeded; a queue failure only delays scoring, so
	// it is logged rather than surfaced.
	if err := s.rdb.LPush(ctx, s.queueName, key).Err(); err != nil {
		log.Printf("ERROR: Failed to enqueue scoring job for %s: %v", key, err)
	}

	return fileID, nil
}

// ParseAttemptFilename splits the filename stem on a single underscore into
// (problemID, userID) and returns the extension (".mp3" when absent).
func ParseAttemptFilename(filename string) (problemID, userID, ext string, err error) {
	base := path.Base(filename)
	ext = path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = ".mp3"
	}

	parts := strings.Split(stem, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("filename %q must be problemID_userID.ext: %w", base, common.ErrBadRequest)
	}
	return parts[0], parts[1], ext, nil
}

func contentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	default:
		return "audio/mpeg"
	}
}
