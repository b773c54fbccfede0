package s3

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestParsePath(t *testing.T) {
	bucket, key, err := ParsePath("s3://petstore/raw/2024/part-00000")
	require.NoError(t, err)
	assert.Equal(t, "petstore", bucket)
	assert.Equal(t, "raw/2024/part-00000", key)

	bucket, key, err = ParsePath("s3://petstore")
	require.NoError(t, err)
	assert.Equal(t, "petstore", bucket)
	assert.Equal(t, "", key)

	_, _, err = ParsePath("/tmp/raw")
	assert.Error(t, err)

	_, _, err = ParsePath("s3:///raw")
	assert.Error(t, err)
}

func TestHiddenBelow(t *testing.T) {
	assert.False(t, hiddenBelow("part-00000.csv"))
	assert.False(t, hiddenBelow("2024/part-00000.csv"))
	assert.True(t, hiddenBelow("_SUCCESS"))
	assert.True(t, hiddenBelow("_logs/history"))
	assert.True(t, hiddenBelow(""))
}

func TestIntegrationS3Filesystem(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	minio, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			ExposedPorts: []string{"9000/tcp"},
			Cmd:          []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     "minioadmin",
				"MINIO_ROOT_PASSWORD": "minioadmin",
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").
				WithPort("9000/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := minio.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate minio: %s", err)
		}
	})

	host, err := minio.Host(ctx)
	require.NoError(t, err)
	port, err := minio.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	f, err := New(
		WithLogger(logger),
		WithRegion("us-east-1"),
		WithEndpoint(fmt.Sprintf("http://%s:%s", host, port.Port())),
		WithForcePathStyle(true),
		WithStaticCredentials("minioadmin", "minioadmin"),
	)
	require.NoError(t, err)

	_, err = f.client.CreateBucketWithContext(ctx, &awss3.CreateBucketInput{
		Bucket: aws.String("petstore"),
	})
	require.NoError(t, err)

	ok, err := f.Exists(ctx, "s3://petstore/out")
	require.NoError(t, err)
	assert.False(t, ok)

	w, err := f.Create(ctx, "s3://petstore/out/part-00000.csv")
	require.NoError(t, err)
	_, err = io.WriteString(w, "storeCode_OK,2,yang,jay,Mon Dec 15 23:33:49 EST 1969,69.56,flea collar\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = f.Create(ctx, "s3://petstore/out/_SUCCESS")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	ok, err = f.Exists(ctx, "s3://petstore/out")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Exists(ctx, "s3://petstore/out/part-00000.csv")
	require.NoError(t, err)
	assert.True(t, ok)

	files, err := f.List(ctx, "s3://petstore/out")
	require.NoError(t, err)
	assert.Equal(t, []string{"s3://petstore/out/part-00000.csv"}, files)

	r, err := f.Open(ctx, files[0])
	require.NoError(t, err)
	defer r.Close()
	bs, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(bs), "storeCode_OK,2,"))

	_, err = f.Create(ctx, "s3://petstore/out/part-00000.csv")
	assert.ErrorIs(t, err, ErrObjectExists)
}
