package raster

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/rotblauer/elevd/params"
)

// S3Opener reads rasters from s3://bucket/key locations with ranged GetObject calls.
type S3Opener struct {
	svc *s3.S3
}

func NewS3Opener(config params.S3Config) (*S3Opener, error) {
	awsConfig := &aws.Config{
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(config.PathStyle),
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, err
	}
	return &S3Opener{svc: s3.New(sess)}, nil
}

func parseS3Location(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("%w: %q is not s3://bucket/key", ErrUnsupportedScheme, location)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

func (o *S3Opener) OpenRange(ctx context.Context, location string) (RangeReader, error) {
	bucket, key, err := parseS3Location(location)
	if err != nil {
		return nil, err
	}
	head, err := o.svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			return nil, fmt.Errorf("s3 head %s: %s: %w", location, aerr.Code(), err)
		}
		return nil, err
	}
	return &s3Range{svc: o.svc, bucket: bucket, key: key, size: aws.Int64Value(head.ContentLength)}, nil
}

type s3Range struct {
	svc    *s3.S3
	bucket string
	key    string
	size   int64
}

func (r *s3Range) ReadRange(ctx context.Context, off int64, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	out, err := r.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, off+int64(len(p))-1)),
	})
	if err != nil {
		return 0, err
	}
	defer out.Body.Close()
	return io.ReadFull(out.Body, p)
}

func (r *s3Range) Size() int64  { return r.size }
func (r *s3Range) Close() error { return nil }
