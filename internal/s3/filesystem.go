package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/turbolytics/cleaner/internal"
	"go.uber.org/zap"
)

const Scheme = "s3"

var ErrObjectExists = errors.New("object already exists")

type Option func(*Filesystem)

func WithRegion(region string) Option {
	return func(f *Filesystem) {
		f.Region = region
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Filesystem) {
		f.logger = l
	}
}

func WithForcePathStyle(forcePathStyle bool) Option {
	return func(f *Filesystem) {
		f.ForcePathStyle = forcePathStyle
	}
}

func WithEndpoint(endpoint string) Option {
	return func(f *Filesystem) {
		f.Endpoint = endpoint
	}
}

// WithStaticCredentials skips the default credential chain.
func WithStaticCredentials(accessKeyID, secretAccessKey string) Option {
	return func(f *Filesystem) {
		f.AccessKeyID = accessKeyID
		f.SecretAccessKey = secretAccessKey
	}
}

// Filesystem addresses objects as s3://bucket/key. A key that is not an
// object is treated as a directory prefix.
type Filesystem struct {
	logger   *zap.Logger
	client   *awss3.S3
	uploader *s3manager.Uploader

	Endpoint        string
	Region          string
	ForcePathStyle  bool
	AccessKeyID     string
	SecretAccessKey string
}

func New(opts ...Option) (*Filesystem, error) {
	f := &Filesystem{
		logger: zap.NewNop(),
	}

	for _, o := range opts {
		o(f)
	}

	awsConfig := &aws.Config{
		Region:           aws.String(f.Region),
		S3ForcePathStyle: aws.Bool(f.ForcePathStyle),
	}

	if f.Endpoint != "" {
		awsConfig.Endpoint = aws.String(f.Endpoint)
	}

	if f.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(
			f.AccessKeyID,
			f.SecretAccessKey,
			"",
		)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, err
	}

	f.client = awss3.New(sess)
	f.uploader = s3manager.NewUploaderWithClient(f.client)

	return f, nil
}

// ParsePath splits s3://bucket/key into its bucket and key.
func ParsePath(p string) (bucket string, key string, err error) {
	u, err := url.Parse(p)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != Scheme {
		return "", "", fmt.Errorf("not an s3 path: %q", p)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("s3 path has no bucket: %q", p)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

func objectURL(bucket, key string) string {
	return fmt.Sprintf("%s://%s/%s", Scheme, bucket, key)
}

func dirPrefix(key string) string {
	if key == "" || strings.HasSuffix(key, "/") {
		return key
	}
	return key + "/"
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case "NotFound", awss3.ErrCodeNoSuchKey:
			return true
		}
	}
	return false
}

func (f *Filesystem) objectExists(ctx context.Context, bucket, key string) (bool, error) {
	if key == "" || strings.HasSuffix(key, "/") {
		return false, nil
	}

	_, err := f.client.HeadObjectWithContext(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (f *Filesystem) Exists(ctx context.Context, p string) (bool, error) {
	bucket, key, err := ParsePath(p)
	if err != nil {
		return false, err
	}

	ok, err := f.objectExists(ctx, bucket, key)
	if err != nil || ok {
		return ok, err
	}

	out, err := f.client.ListObjectsV2WithContext(ctx, &awss3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(dirPrefix(key)),
		MaxKeys: aws.Int64(1),
	})
	if err != nil {
		return false, err
	}
	return len(out.Contents) > 0, nil
}

func (f *Filesystem) List(ctx context.Context, p string) ([]string, error) {
	bucket, key, err := ParsePath(p)
	if err != nil {
		return nil, err
	}

	ok, err := f.objectExists(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	if ok {
		return []string{p}, nil
	}

	prefix := dirPrefix(key)
	var files []string
	err = f.client.ListObjectsV2PagesWithContext(ctx, &awss3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}, func(page *awss3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			k := aws.StringValue(obj.Key)
			if hiddenBelow(strings.TrimPrefix(k, prefix)) {
				continue
			}
			files = append(files, objectURL(bucket, k))
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no objects found under %q", p)
	}
	return files, nil
}

// hiddenBelow reports whether any element of a relative key is hidden.
func hiddenBelow(rel string) bool {
	if rel == "" {
		return true
	}
	for _, part := range strings.Split(rel, "/") {
		if internal.IsHidden(part) {
			return true
		}
	}
	return false
}

func (f *Filesystem) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	bucket, key, err := ParsePath(p)
	if err != nil {
		return nil, err
	}

	f.logger.Debug(
		"S3 open",
		zap.String("bucket", bucket),
		zap.String("key", key),
	)

	out, err := f.client.GetObjectWithContext(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// Create streams writes into a multipart upload. The upload completes
// when the returned writer is closed.
func (f *Filesystem) Create(ctx context.Context, p string) (io.WriteCloser, error) {
	bucket, key, err := ParsePath(p)
	if err != nil {
		return nil, err
	}

	ok, err := f.objectExists(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectExists, p)
	}

	f.logger.Debug(
		"S3 create",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.String("object_path", path.Join(bucket, key)),
	)

	pr, pw := io.Pipe()
	w := &objectWriter{
		pw:   pw,
		done: make(chan error, 1),
	}

	go func() {
		_, err := f.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   pr,
		})
		pr.CloseWithError(err)
		w.done <- err
	}()

	return w, nil
}

type objectWriter struct {
	pw     *io.PipeWriter
	done   chan error
	closed bool
	err    error
}

func (w *objectWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *objectWriter) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true

	if err := w.pw.Close(); err != nil {
		w.err = err
		return err
	}
	w.err = <-w.done
	return w.err
}
