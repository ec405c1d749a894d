package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/neti77/anotequest-v1-sub000/core"
)

// s3Store keeps one object per collection at <board>/<key>.json.
type s3Store struct {
	s3Client *s3.Client
	bucket   string
}

// NewStore creates a new S3-based store.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	s3Client := s3.NewFromConfig(cfg)

	return &s3Store{
		s3Client: s3Client,
		bucket:   bucketName,
	}
}

func getCollectionKey(boardID, key string) (string, error) {
	for _, part := range []string{boardID, key} {
		// Both parts must be simple names, not paths.
		if path.Base(part) != part {
			return "", fmt.Errorf("invalid object name %q: must not be a path", part)
		}
		if !core.ValidKey(part) {
			return "", fmt.Errorf("invalid object name %q: must not be empty or a dot directory", part)
		}
	}
	return path.Join(boardID, key+".json"), nil
}

func (s *s3Store) LoadCollection(ctx context.Context, boardID, key string) ([]byte, error) {
	objKey, err := getCollectionKey(boardID, key)
	if err != nil {
		return nil, err
	}
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("collection %s of board %s: %w", key, boardID, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get collection %s: %w", objKey, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection data: %w", err)
	}
	return data, nil
}

func (s *s3Store) SaveCollection(ctx context.Context, boardID, key string, data []byte) error {
	objKey, err := getCollectionKey(boardID, key)
	if err != nil {
		return err
	}
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to save collection %s: %w", objKey, err)
	}
	return nil
}

func (s *s3Store) ListCollections(ctx context.Context, boardID string) ([]string, error) {
	if !core.ValidKey(boardID) {
		return nil, fmt.Errorf("invalid board id %q", boardID)
	}
	prefix := boardID + "/"
	keys := []string{}
	paginator := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list collections for board %s: %w", boardID, err)
		}
		for _, object := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(object.Key), prefix)
			if strings.HasSuffix(name, ".json") && !strings.Contains(name, "/") {
				keys = append(keys, strings.TrimSuffix(name, ".json"))
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}
