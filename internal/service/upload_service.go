package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"lagimmo/api/internal/apperr"
	"lagimmo/api/internal/config"
	"lagimmo/api/internal/ids"
	"lagimmo/api/internal/media/sniffer"
	"lagimmo/api/internal/media/svg"
	"lagimmo/api/internal/models"
)

const (
	MaxUploadBytes    = 10 << 20
	uploadConcurrency = 4
)

var (
	ErrEmptyFile       = apperr.Validation("file is empty")
	ErrFileTooLarge    = apperr.Validation("file exceeds the 10 MiB limit")
	ErrUnsupportedFile = apperr.Validation("unsupported file type")
	ErrTypeMismatch    = apperr.Validation("declared content type does not match the file")
	ErrUnknownBucket   = apperr.Validation("unknown bucket")
	ErrImageRequired   = apperr.Validation("only images are accepted here")
)

// UploadService validates files and stores them in object storage. It never
// touches the database; callers persist the returned media rows.
type UploadService struct {
	store    ObjectStore
	buckets  map[string]bool
	maxBytes int64
	presign  time.Duration
	log      zerolog.Logger
}

func NewUploadService(store ObjectStore, cfg config.StorageConfig, maxBytes int64, log zerolog.Logger) *UploadService {
	if maxBytes <= 0 || maxBytes > MaxUploadBytes {
		maxBytes = MaxUploadBytes
	}
	buckets := make(map[string]bool, len(cfg.Buckets))
	for _, b := range cfg.Buckets {
		buckets[b] = true
	}
	presign := cfg.PresignExpiry
	if presign <= 0 {
		presign = 15 * time.Minute
	}
	return &UploadService{
		store:    store,
		buckets:  buckets,
		maxBytes: maxBytes,
		presign:  presign,
		log:      log,
	}
}

// UploadOptions narrows what an upload accepts.
type UploadOptions struct {
	ImagesOnly bool
}

func (s *UploadService) Upload(ctx context.Context, bucket string, header *multipart.FileHeader, opts UploadOptions) (models.Media, error) {
	if !s.buckets[bucket] {
		return models.Media{}, ErrUnknownBucket
	}
	if header == nil {
		return models.Media{}, ErrEmptyFile
	}
	if header.Size > s.maxBytes {
		return models.Media{}, ErrFileTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return models.Media{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxBytes+1))
	if err != nil {
		return models.Media{}, fmt.Errorf("read upload: %w", err)
	}
	return s.put(ctx, bucket, header.Filename, sniffer.MimeTypeFromHTTP(http.Header(header.Header)), data, opts)
}

func (s *UploadService) put(ctx context.Context, bucket, filename, declared string, data []byte, opts UploadOptions) (models.Media, error) {
	if len(data) == 0 {
		return models.Media{}, ErrEmptyFile
	}
	if int64(len(data)) > s.maxBytes {
		return models.Media{}, ErrFileTooLarge
	}

	result, err := sniffer.DetectHead(data[:min(len(data), 512)])
	if err != nil {
		return models.Media{}, ErrUnsupportedFile
	}
	if !sniffer.DeclaredMatches(declared, result) {
		return models.Media{}, ErrTypeMismatch
	}
	if opts.ImagesOnly && !result.IsImage() {
		return models.Media{}, ErrImageRequired
	}

	if result.Type == sniffer.TypeSVG {
		clean, err := svg.Sanitize(data)
		if err != nil {
			return models.Media{}, ErrUnsupportedFile
		}
		data = clean
	}

	name := ids.ObjectName(filename)
	if filepath.Ext(name) == "" {
		name += result.Extension()
	}

	size, err := s.store.Put(ctx, bucket, name, bytes.NewReader(data), int64(len(data)), result.MIME)
	if err != nil {
		return models.Media{}, apperr.Upstream("could not store file", err)
	}

	return models.Media{
		ID:           ids.New(),
		Bucket:       bucket,
		Name:         name,
		OriginalName: filepath.Base(filename),
		FullURL:      s.store.PublicURL(bucket, name),
		ContentType:  result.MIME,
		SizeBytes:    size,
	}, nil
}

// UploadMany stores files concurrently and keeps their order. When one file
// fails the files already stored are removed.
func (s *UploadService) UploadMany(ctx context.Context, bucket string, headers []*multipart.FileHeader, opts UploadOptions) ([]models.Media, error) {
	if len(headers) == 0 {
		return nil, nil
	}
	out := make([]models.Media, len(headers))
	var (
		mu     sync.Mutex
		stored []models.Media
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for i, header := range headers {
		i, header := i, header
		g.Go(func() error {
			m, err := s.Upload(gctx, bucket, header, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", header.Filename, err)
			}
			m.Position = i
			out[i] = m
			mu.Lock()
			stored = append(stored, m)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.Remove(context.WithoutCancel(ctx), stored)
		return nil, err
	}
	return out, nil
}

// Remove deletes objects best effort; failures are logged.
func (s *UploadService) Remove(ctx context.Context, files []models.Media) {
	for _, m := range files {
		if err := s.store.Remove(ctx, m.Bucket, m.Name); err != nil {
			s.log.Warn().Err(err).Str("bucket", m.Bucket).Str("object", m.Name).Msg("remove object failed")
		}
	}
}

func (s *UploadService) Open(ctx context.Context, m models.Media) (io.ReadCloser, error) {
	rc, err := s.store.Get(ctx, m.Bucket, m.Name)
	if err != nil {
		return nil, apperr.Upstream("could not read file", err)
	}
	return rc, nil
}

func (s *UploadService) PresignedURL(ctx context.Context, m models.Media) (string, error) {
	u, err := s.store.PresignedURL(ctx, m.Bucket, m.Name, s.presign)
	if err != nil {
		return "", apperr.Upstream("could not sign url", err)
	}
	return u, nil
}
