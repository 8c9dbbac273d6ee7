// Package backup stores exported backup files, locally or in an S3 bucket.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/BruksfildServices01/salon-scheduler/internal/config"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
)

const (
	DefaultPrefix = "backups/"
	maxObjectSize = 64 << 20
)

// FileName is the download name used for a backup exported on day t.
func FileName(t time.Time) string {
	return fmt.Sprintf("salon-backup-v1-%s.json", t.UTC().Format("2006-01-02"))
}

// Encode renders a backup the way it is written to disk.
func Encode(b models.BackupV1) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// ObjectAPI is the subset of the S3 client the archive uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type S3Archive struct {
	api    ObjectAPI
	bucket string
	prefix string
	now    func() time.Time
}

func NewS3Archive(api ObjectAPI, bucket string) *S3Archive {
	return &S3Archive{
		api:    api,
		bucket: bucket,
		prefix: DefaultPrefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// NewS3Client builds a client from static credentials. S3_ENDPOINT switches
// to path-style addressing for S3 compatible stores.
func NewS3Client(cfg *config.Config) *s3.Client {
	opts := s3.Options{
		Region: cfg.S3Region,
	}
	if cfg.S3AccessKeyID != "" {
		opts.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		)
	}
	if cfg.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

func (a *S3Archive) key(t time.Time) string {
	return a.prefix + "salon-backup-v1-" + t.UTC().Format("20060102T150405Z") + ".json"
}

// Put uploads the backup and returns its object key.
func (a *S3Archive) Put(ctx context.Context, b models.BackupV1) (string, error) {
	data, err := Encode(b)
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}

	key := a.key(a.now())
	_, err = a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// Get downloads the raw backup file stored under key.
func (a *S3Archive) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := a.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(io.LimitReader(out.Body, maxObjectSize))
}

// List returns the archived keys, newest first.
func (a *S3Archive) List(ctx context.Context) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := a.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(a.bucket),
			Prefix:            aws.String(a.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list backups: %w", err)
		}
		for _, obj := range out.Contents {
			if k := aws.ToString(obj.Key); strings.HasSuffix(k, ".json") {
				keys = append(keys, k)
			}
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

// Latest returns the newest archived key.
func (a *S3Archive) Latest(ctx context.Context) (string, error) {
	keys, err := a.List(ctx)
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", repo.ErrNotFound
	}
	return keys[0], nil
}
