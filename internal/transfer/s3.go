package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/ftpchat/internal/client/models"
	"github.com/dmitrijs2005/ftpchat/internal/common"
)

// s3API is the subset of *s3.Client used by s3Conn.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Test seams.
var (
	loadAWSConfig = config.LoadDefaultConfig
	newS3Client   = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Dialer connects to an S3-compatible object store (MinIO and friends).
// The credentials' host:port is the endpoint and username/password are the
// access key and secret. Objects live in Bucket under their remote path.
type S3Dialer struct {
	Bucket  string
	Region  string
	Secure  bool
	Timeout time.Duration
}

func (d S3Dialer) endpoint(creds models.ServerCredentials) string {
	scheme := "http"
	if d.Secure {
		scheme = "https"
	}
	return scheme + "://" + creds.Addr()
}

func (d S3Dialer) Dial(ctx context.Context, creds models.ServerCredentials) (Conn, error) {
	if d.Bucket == "" {
		return nil, errors.New("s3: bucket is not configured")
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = common.DefaultTimeout
	}
	hc := awshttp.NewBuildableClient().
		WithDialerOptions(func(nd *net.Dialer) { nd.Timeout = timeout }).
		WithTransportOptions(func(tr *http.Transport) { tr.ResponseHeaderTimeout = timeout })

	region := d.Region
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := loadAWSConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(creds.Username, creds.Password, "")),
		config.WithHTTPClient(hc),
	)
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	client := newS3Client(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(d.endpoint(creds))
		o.UsePathStyle = true
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(d.Bucket)}); err != nil {
		if isS3AuthError(err) {
			return nil, fmt.Errorf("head bucket %s: %w: %v", d.Bucket, ErrAuthRejected, err)
		}
		return nil, fmt.Errorf("head bucket %s: %w", d.Bucket, err)
	}

	return &s3Conn{client: client, bucket: d.Bucket}, nil
}

func isS3AuthError(err error) bool {
	var status interface{ HTTPStatusCode() int }
	if errors.As(err, &status) {
		if c := status.HTTPStatusCode(); c == http.StatusUnauthorized || c == http.StatusForbidden {
			return true
		}
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return true
		}
	}
	return false
}

// s3Error marks service-side error responses as refusals.
func s3Error(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s: %s", ErrRemoteRejected, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err
}

type s3Conn struct {
	client s3API
	bucket string
}

func objectKey(remotePath string) string {
	return strings.TrimPrefix(remotePath, "/")
}

func (c *s3Conn) Store(ctx context.Context, remotePath string, r io.Reader) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(objectKey(remotePath)),
		Body:        r,
		ContentType: aws.String("application/octet-stream"),
	})
	return s3Error(err)
}

func (c *s3Conn) Retrieve(ctx context.Context, remotePath string, w io.Writer) error {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(objectKey(remotePath)),
	})
	if err != nil {
		return s3Error(err)
	}
	defer out.Body.Close()

	_, err = io.Copy(w, out.Body)
	return err
}

// List returns the objects directly under remoteDir. Common prefixes play
// the role of directories and are skipped.
func (c *s3Conn) List(ctx context.Context, remoteDir string) ([]string, error) {
	prefix := strings.Trim(remoteDir, "/")
	if prefix != "" {
		prefix += "/"
	}

	p := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(c.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var names []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, s3Error(err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" || strings.HasSuffix(name, "/") {
				continue
			}
			names = append(names, name)
		}
	}
	return names, nil
}

func (c *s3Conn) Close() error { return nil }
