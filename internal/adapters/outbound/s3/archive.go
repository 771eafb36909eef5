// Package s3 archives solved auctions to AWS S3 as gzipped JSON.
package s3

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/archon-research/stl/vault-solver/internal/domain/entity"
	"github.com/archon-research/stl/vault-solver/internal/ports/outbound"
)

// putObjectAPI is the subset of the S3 client the archive uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ outbound.AuctionArchive = (*Archive)(nil)

// ArchiveConfig holds configuration for the auction archive.
type ArchiveConfig struct {
	Bucket string

	// Prefix is prepended to every key (default "auctions").
	Prefix string

	Logger *slog.Logger
}

// Archive implements outbound.AuctionArchive on S3. Objects are written with
// If-None-Match so an auction is never overwritten.
type Archive struct {
	client putObjectAPI
	config ArchiveConfig
	logger *slog.Logger
}

// NewArchive creates an archive using the given AWS config.
func NewArchive(cfg aws.Config, config ArchiveConfig, optFns ...func(*s3.Options)) (*Archive, error) {
	return newArchive(s3.NewFromConfig(cfg, optFns...), config)
}

func newArchive(client putObjectAPI, config ArchiveConfig) (*Archive, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket cannot be empty")
	}
	if config.Prefix == "" {
		config.Prefix = "auctions"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Archive{
		client: client,
		config: config,
		logger: config.Logger.With("component", "s3-archive"),
	}, nil
}

// Key returns the object key record is stored under.
func (a *Archive) Key(record *entity.AuctionRecord) string {
	environment := record.Environment
	if environment == "" {
		environment = "unknown"
	}
	return path.Join(a.config.Prefix, environment, record.Name()+".json.gz")
}

// Archive uploads record. An existing object for the same auction is left
// untouched and is not an error.
func (a *Archive) Archive(ctx context.Context, record *entity.AuctionRecord) error {
	body, err := encodeRecord(record)
	if err != nil {
		return err
	}

	key := a.Key(record)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(a.config.Bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(body),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String("gzip"),
		IfNoneMatch:     aws.String("*"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "PreconditionFailed" || apiErr.ErrorCode() == "412") {
			a.logger.Debug("auction already archived", "key", key)
			return nil
		}
		return fmt.Errorf("failed to write %s to S3: %w", key, err)
	}

	a.logger.Debug("archived auction", "bucket", a.config.Bucket, "key", key, "bytes", len(body))
	return nil
}

func encodeRecord(record *entity.AuctionRecord) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(record); err != nil {
		return nil, fmt.Errorf("failed to encode auction record: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}
