package filestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"

	"github.com/crreddy/polysis/core"
)

type s3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	baseURL  string
	logger   core.Logger
}

var _ core.FileStore = (*s3Store)(nil)

// NewS3Store returns a FileStore writing public-read objects to the configured bucket.
func NewS3Store(ctx context.Context, conf core.StorageConfig, logger core.Logger) (core.FileStore, error) {
	if conf.Bucket == "" {
		return nil, errors.New("storage bucket not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(conf.Region)}
	if conf.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AccessKeyID, conf.SecretAccessKey, ""),
		))
	}
	awsConf, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading aws config")
	}

	client := s3.NewFromConfig(awsConf, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := conf.PublicBaseURL
	if baseURL == "" {
		if conf.Endpoint != "" {
			baseURL = strings.TrimSuffix(conf.Endpoint, "/") + "/" + conf.Bucket
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", conf.Bucket, conf.Region)
		}
	}

	return &s3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   conf.Bucket,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		logger:   logger,
	}, nil
}

func (st *s3Store) Put(ctx context.Context, folder string, up core.Upload) (core.StoredFile, error) {
	key := objectKey(folder, up.Filename, time.Now())
	_, err := st.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(st.bucket),
		Key:         aws.String(key),
		Body:        up.Body,
		ContentType: aws.String(up.ContentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return core.StoredFile{}, errors.Wrapf(err, "uploading %s", key)
	}

	url := st.baseURL + "/" + key
	st.logger.Info("file uploaded: " + url)
	return core.StoredFile{Key: key, URL: url, Size: up.Size}, nil
}

// Delete removes the object; failures are logged, not returned, so that record deletion goes on.
func (st *s3Store) Delete(ctx context.Context, url string) error {
	key, ok := keyFromURL(st.baseURL, url)
	if !ok {
		return nil
	}
	_, err := st.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(st.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		st.logger.Error(fmt.Sprintf("deleting %s: %v", key, err), err)
		return nil
	}
	st.logger.Info("file deleted: " + url)
	return nil
}
