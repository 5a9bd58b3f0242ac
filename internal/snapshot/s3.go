package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"linkvault/internal/domain"
)

const snapshotObjectName = "snapshot.json"

// S3Store keeps the snapshot as a single JSON object in an S3 bucket
// (or compatible API). Every save re-uploads the whole object.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	key      string
}

func NewS3Store(client *s3.Client, bucket, keyPrefix string) *S3Store {
	key := snapshotObjectName
	if prefix := strings.Trim(keyPrefix, "/"); prefix != "" {
		key = prefix + "/" + snapshotObjectName
	}
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		key:      key,
	}
}

func (s *S3Store) Load(ctx context.Context) (domain.Snapshot, error) {
	if s.bucket == "" {
		return domain.Snapshot{}, fmt.Errorf("storage bucket is required")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return domain.Snapshot{}, ErrNotExist
		}
		return domain.Snapshot{}, fmt.Errorf("get snapshot object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read snapshot object: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("parse snapshot object: %w", err)
	}
	return normalize(snap), nil
}

func (s *S3Store) Save(ctx context.Context, snap domain.Snapshot) error {
	if s.bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}
	return nil
}

var _ Store = (*S3Store)(nil)
