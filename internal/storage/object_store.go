package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"lagimmo/api/internal/config"
)

type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	cfg.Endpoint = endpoint
	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

// EnsureBuckets creates missing buckets and makes them publicly readable.
func (s *ObjectStore) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range s.cfg.Buckets {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("bucket exists %s: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
		policy, err := PublicReadPolicy(bucket)
		if err != nil {
			return err
		}
		if err := s.client.SetBucketPolicy(ctx, bucket, policy); err != nil {
			return fmt.Errorf("set policy %s: %w", bucket, err)
		}
	}
	return nil
}

// Put stores size bytes from r under bucket/name.
func (s *ObjectStore) Put(ctx context.Context, bucket, name string, r io.Reader, size int64, contentType string) (int64, error) {
	info, err := s.client.PutObject(ctx, bucket, name, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return 0, fmt.Errorf("put object %s/%s: %w", bucket, name, err)
	}
	return info.Size, nil
}

// Get returns the object contents. The caller closes the reader.
func (s *ObjectStore) Get(ctx context.Context, bucket, name string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, name, err)
	}
	return obj, nil
}

func (s *ObjectStore) Remove(ctx context.Context, bucket, name string) error {
	if err := s.client.RemoveObject(ctx, bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s/%s: %w", bucket, name, err)
	}
	return nil
}

// PresignedURL returns a time-limited GET link for a private read.
func (s *ObjectStore) PresignedURL(ctx context.Context, bucket, name string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.cfg.PresignExpiry
	}
	u, err := s.client.PresignedGetObject(ctx, bucket, name, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", bucket, name, err)
	}
	return u.String(), nil
}

// PublicURL is the anonymous read URL of an object in a public bucket.
func (s *ObjectStore) PublicURL(bucket, name string) string {
	return PublicURL(s.cfg.PublicBaseURL, s.cfg.Endpoint, bucket, name)
}

func PublicURL(baseURL, endpoint, bucket, name string) string {
	base := strings.TrimSuffix(baseURL, "/")
	if base == "" {
		base = "https://" + strings.TrimSuffix(endpoint, "/")
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, name)
}

type policyStatement struct {
	Sid       string              `json:"Sid"`
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// PublicReadPolicy grants anonymous s3:GetObject on every object of bucket.
func PublicReadPolicy(bucket string) (string, error) {
	policy := bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Sid:       "PublicReadGetObject",
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  []string{"arn:aws:s3:::" + bucket + "/*"},
		}},
	}
	raw, err := json.Marshal(policy)
	if err != nil {
		return "", fmt.Errorf("encode bucket policy: %w", err)
	}
	return string(raw), nil
}
