// Package s3 implements kv.Store on an S3-compatible object store.
//
// Each value is one object. Every primary key also owns an index object that
// records first-insert order, so a bucket must only be written through a single
// Store at a time.
package s3

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/sagarc03/fragments/kv"
)

const indexObject = ".order"

// Config options for the S3 backend.
type Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"` // S3-compatible services such as MinIO
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	Prefix          string `mapstructure:"prefix"`
	CreateBucket    bool   `mapstructure:"create_bucket"`
}

// Client is the subset of the S3 API the store needs.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store is a kv.Store backed by S3 objects.
type Store struct {
	mu     sync.RWMutex
	client Client
	bucket string
	prefix string
}

// New builds an S3 client from cfg and returns a Store using it.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("new s3 store: bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("new s3 store: load aws config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	if cfg.CreateBucket {
		if err := createBucketIfNotExists(ctx, client, cfg.Bucket, cfg.Region); err != nil {
			return nil, fmt.Errorf("new s3 store: %w", err)
		}
	}

	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient returns a Store using an already configured client.
func NewWithClient(client Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func createBucketIfNotExists(ctx context.Context, client *s3.Client, bucket, region string) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("check bucket: %w", err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}

	if _, err := client.CreateBucket(ctx, input); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

func (s *Store) partition(primaryKey string) string {
	return path.Join(s.prefix, kv.EncodeKey(primaryKey))
}

func (s *Store) objectKey(primaryKey, secondaryKey string) string {
	return path.Join(s.partition(primaryKey), kv.EncodeKey(secondaryKey))
}

func (s *Store) Put(ctx context.Context, primaryKey, secondaryKey string, value []byte) error {
	if err := kv.ValidateKeys(primaryKey, secondaryKey); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.objectKey(primaryKey, secondaryKey)
	exists, err := s.exists(ctx, key)
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}

	if err := s.putObject(ctx, key, value); err != nil {
		return fmt.Errorf("put: %w", err)
	}

	if exists {
		return nil
	}

	dir := s.partition(primaryKey)
	order, err := s.readIndex(ctx, dir)
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	if err := s.writeIndex(ctx, dir, append(order, path.Base(key))); err != nil {
		return fmt.Errorf("put: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, primaryKey, secondaryKey string) ([]byte, bool, error) {
	if err := kv.ValidateKeys(primaryKey, secondaryKey); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, err := s.getObject(ctx, s.objectKey(primaryKey, secondaryKey))
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get: %w", err)
	}
	return value, true, nil
}

func (s *Store) Query(ctx context.Context, primaryKey string) ([][]byte, error) {
	if err := kv.ValidateKeys(primaryKey); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := s.partition(primaryKey)
	order, err := s.readIndex(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	values := make([][]byte, 0, len(order))
	for _, name := range order {
		value, getErr := s.getObject(ctx, path.Join(dir, name))
		if getErr != nil {
			if isNotFound(getErr) {
				continue
			}
			return nil, fmt.Errorf("query: %w", getErr)
		}
		values = append(values, value)
	}
	return values, nil
}

func (s *Store) Del(ctx context.Context, primaryKey, secondaryKey string) error {
	if err := kv.ValidateKeys(primaryKey, secondaryKey); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.objectKey(primaryKey, secondaryKey)
	exists, err := s.exists(ctx, key)
	if err != nil {
		return fmt.Errorf("del: %w", err)
	}
	if !exists {
		return fmt.Errorf("del %s/%s: %w", primaryKey, secondaryKey, kv.ErrNotFound)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("del: delete object: %w", err)
	}

	dir := s.partition(primaryKey)
	order, err := s.readIndex(ctx, dir)
	if err != nil {
		return fmt.Errorf("del: %w", err)
	}
	name := path.Base(key)
	order = slices.DeleteFunc(order, func(n string) bool { return n == name })
	if err := s.writeIndex(ctx, dir, order); err != nil {
		return fmt.Errorf("del: %w", err)
	}

	return nil
}

func (s *Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head object: %w", err)
	}
	return true, nil
}

func (s *Store) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = out.Body.Close() }()

	value, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return value, nil
}

func (s *Store) putObject(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(value),
		ContentLength: aws.Int64(int64(len(value))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (s *Store) readIndex(ctx context.Context, dir string) ([]string, error) {
	raw, err := s.getObject(ctx, path.Join(dir, indexObject))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}

	var order []string
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			order = append(order, line)
		}
	}
	return order, scanner.Err()
}

func (s *Store) writeIndex(ctx context.Context, dir string, order []string) error {
	var buf bytes.Buffer
	for _, name := range order {
		buf.WriteString(name)
		buf.WriteByte('\n')
	}
	if err := s.putObject(ctx, path.Join(dir, indexObject), buf.Bytes()); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
