package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	sc "main/config"
	"main/middleware"
	"main/model"
	"main/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ImageStorage implements the tiering policy: encoded bytes at or below
// the inline threshold live in the metadata record, larger ones are
// content-addressed into the object store. Never both.
type ImageStorage struct {
	client *s3.Client
	bucket string
	// inline threshold in bytes
	threshold int
}

func NewImageStorage(cfg sc.StorageConfig) (*ImageStorage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &ImageStorage{client: client, bucket: cfg.Bucket, threshold: cfg.InlineThreshold}, nil
}

// ObjectKey is the content address of an image within an owner's space.
func ObjectKey(ownerID, hash string) string {
	return fmt.Sprintf("clips/%s/%s", ownerID, hash)
}

// StoreImage decides the tier for one encoded image and returns the
// payload to persist in the metadata record.
func (st *ImageStorage) StoreImage(ctx context.Context, ownerID string, data []byte, mime string) (*model.ImagePayload, error) {
	payload := &model.ImagePayload{
		Mime:     mime,
		ByteSize: len(data),
		Hash:     utils.ContentHash(data),
	}

	if len(data) <= st.threshold {
		payload.Data = data
		middleware.TrackImageTier("inline")
		return payload, nil
	}

	key := ObjectKey(ownerID, payload.Hash)
	exists, err := st.objectExists(ctx, key)
	if err != nil {
		return nil, err
	}
	// Re-uploading identical bytes is a no-op: the key is the content hash.
	if !exists {
		_, err = st.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(st.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(mime),
		})
		if err != nil {
			middleware.TrackError("storage")
			return nil, fmt.Errorf("failed to store image object: %v", err)
		}
	}

	payload.ObjectKey = key
	middleware.TrackImageTier("object")
	return payload, nil
}

// FetchImage returns the full image bytes regardless of tier.
func (st *ImageStorage) FetchImage(ctx context.Context, payload *model.ImagePayload) ([]byte, error) {
	if payload.Inline() {
		return payload.Data, nil
	}

	out, err := st.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(st.bucket),
		Key:    aws.String(payload.ObjectKey),
	})
	if err != nil {
		middleware.TrackError("storage")
		return nil, fmt.Errorf("failed to fetch image object: %v", err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (st *ImageStorage) objectExists(ctx context.Context, key string) (bool, error) {
	_, err := st.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(st.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check image object: %v", err)
}
