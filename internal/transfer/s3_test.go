package transfer

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ftpchat/internal/client/models"
	"github.com/dmitrijs2005/ftpchat/internal/logging"
)

type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	headErr  error
	endpoint string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	if strings.Contains(key, "denied") {
		return nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "write refused"}
	}
	f.mu.Lock()
	f.objects[key] = b
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	b, ok := f.objects[aws.ToString(in.Key)]
	f.mu.Unlock()
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "not found"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := aws.ToString(in.Prefix)
	out := &s3.ListObjectsV2Output{}
	for k := range f.objects {
		rest, ok := strings.CutPrefix(k, prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func withFakeS3(t *testing.T, f *fakeS3) {
	t.Helper()
	origLoad, origNew := loadAWSConfig, newS3Client
	t.Cleanup(func() { loadAWSConfig, newS3Client = origLoad, origNew })

	loadAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Region: "us-east-1"}, nil
	}
	newS3Client = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		var o s3.Options
		for _, fn := range optFns {
			fn(&o)
		}
		f.endpoint = aws.ToString(o.BaseEndpoint)
		return f
	}
}

func s3Creds() models.ServerCredentials {
	return models.ServerCredentials{Scheme: models.SchemeS3, Host: "minio", Port: 9000, Username: "key", Password: "secret"}
}

func TestS3Dialer_RequiresBucket(t *testing.T) {
	_, err := S3Dialer{}.Dial(context.Background(), s3Creds())
	require.Error(t, err)
}

func TestS3Dialer_AuthRejected(t *testing.T) {
	withFakeS3(t, &fakeS3{
		objects: map[string][]byte{},
		headErr: &smithy.GenericAPIError{Code: "InvalidAccessKeyId", Message: "bad key"},
	})

	s := NewSession(S3Dialer{Bucket: "chat"}, logging.Discard())
	err := s.Connect(context.Background(), s3Creds())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnect)
	assert.ErrorIs(t, err, ErrAuthRejected)
	assert.Equal(t, Disconnected, s.State())
}

func TestS3Session_RoundTrip(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{"FTP_SERVER_ROOT/old.txt": []byte("x")}}
	withFakeS3(t, fake)
	ctx := context.Background()

	s := NewSession(S3Dialer{Bucket: "chat"}, logging.Discard())
	require.NoError(t, s.Connect(ctx, s3Creds()))
	defer s.Disconnect(ctx)
	assert.Equal(t, "http://minio:9000", fake.endpoint)

	local := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(local, []byte("\x00video\xff"), 0o600))

	require.NoError(t, s.Upload(ctx, local, "/video_unknown.mp4"))
	assert.Equal(t, []byte("\x00video\xff"), fake.objects["video_unknown.mp4"])

	got, err := s.Download(ctx, "video_unknown.mp4", t.TempDir(), "clip.mp4")
	require.NoError(t, err)
	b, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x00video\xff"), b)

	names, err := s.List(ctx, "/FTP_SERVER_ROOT")
	require.NoError(t, err)
	assert.Equal(t, []string{"old.txt"}, names)

	err = s.Upload(ctx, local, "denied.mp4")
	assert.ErrorIs(t, err, ErrRemoteRejected)
	_, err = s.Download(ctx, "missing", t.TempDir(), "missing")
	assert.ErrorIs(t, err, ErrRemoteRejected)
	assert.Equal(t, Connected, s.State())
}

func TestNewDialer(t *testing.T) {
	d, err := NewDialer("", DialerOptions{})
	require.NoError(t, err)
	assert.IsType(t, FTPDialer{}, d)

	d, err = NewDialer("s3", DialerOptions{S3Bucket: "b"})
	require.NoError(t, err)
	assert.Equal(t, S3Dialer{Bucket: "b"}, d)

	_, err = NewDialer("gopher", DialerOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}
