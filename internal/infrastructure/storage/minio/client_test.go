package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/trademark-search/internal/config"
	"github.com/turtacn/trademark-search/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/trademark-search/pkg/errors"
)

type mockObjectAPI struct {
	mock.Mock
}

func (m *mockObjectAPI) ListBuckets(ctx context.Context) ([]minio.BucketInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).([]minio.BucketInfo), args.Error(1)
}

func (m *mockObjectAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	args := m.Called(ctx, bucket)
	return args.Bool(0), args.Error(1)
}

func (m *mockObjectAPI) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucket, opts).Error(0)
}

func (m *mockObjectAPI) StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucket, key, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

func (m *mockObjectAPI) GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, key, opts)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *mockObjectAPI) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucket, key, r, size, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *mockObjectAPI) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	args := m.Called(ctx, bucket, opts)
	return args.Get(0).(<-chan minio.ObjectInfo)
}

type ClientTestSuite struct {
	suite.Suite
	api    *mockObjectAPI
	client *Client
	ctx    context.Context
}

func (s *ClientTestSuite) SetupTest() {
	s.api = new(mockObjectAPI)
	s.client = NewClientWithAPI(s.api, "datasets", "us-east-1", logging.NewNopLogger())
	s.ctx = context.Background()
}

func (s *ClientTestSuite) TearDownTest() {
	s.api.AssertExpectations(s.T())
}

func (s *ClientTestSuite) TestValidateConfig() {
	s.Error(ValidateConfig(config.MinIOConfig{Bucket: "b"}))
	s.Error(ValidateConfig(config.MinIOConfig{Endpoint: "localhost:9000"}))
	s.NoError(ValidateConfig(config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "b"}))
}

func (s *ClientTestSuite) TestEnsureBucket_Exists() {
	s.api.On("BucketExists", s.ctx, "datasets").Return(true, nil)
	s.NoError(s.client.EnsureBucket(s.ctx))
}

func (s *ClientTestSuite) TestEnsureBucket_Creates() {
	s.api.On("BucketExists", s.ctx, "datasets").Return(false, nil)
	s.api.On("MakeBucket", s.ctx, "datasets", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil)
	s.NoError(s.client.EnsureBucket(s.ctx))
}

func (s *ClientTestSuite) TestEnsureBucket_Error() {
	s.api.On("BucketExists", s.ctx, "datasets").Return(false, errors.New("dial tcp: refused"))
	err := s.client.EnsureBucket(s.ctx)
	s.True(pkgerrors.IsCode(err, pkgerrors.CodeStorageError))
}

func (s *ClientTestSuite) TestOpen() {
	body := `[{"applicationNumber":"4020200000001"}]`
	mod := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s.api.On("StatObject", s.ctx, "datasets", "trademarks.json", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{Key: "trademarks.json", Size: int64(len(body)), LastModified: mod}, nil)
	s.api.On("GetObject", s.ctx, "datasets", "trademarks.json", minio.GetObjectOptions{}).
		Return(io.NopCloser(strings.NewReader(body)), nil)

	rc, info, err := s.client.Open(s.ctx, "trademarks.json")
	s.Require().NoError(err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	s.Require().NoError(err)
	s.Equal(body, string(data))
	s.Equal(int64(len(body)), info.Size)
	s.Equal(mod, info.LastModified)
}

func (s *ClientTestSuite) TestOpen_NotFound() {
	notFound := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound, Message: "The specified key does not exist."}
	s.api.On("StatObject", s.ctx, "datasets", "missing.json", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{}, notFound)

	_, _, err := s.client.Open(s.ctx, "missing.json")
	s.True(pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func (s *ClientTestSuite) TestPut() {
	r := bytes.NewReader([]byte("[]"))
	s.api.On("PutObject", s.ctx, "datasets", "k.json", r, int64(2), minio.PutObjectOptions{ContentType: "application/json"}).
		Return(minio.UploadInfo{Key: "k.json", Size: 2, ETag: "abc"}, nil)

	info, err := s.client.Put(s.ctx, "k.json", r, 2, "")
	s.Require().NoError(err)
	s.Equal("abc", info.ETag)
	s.Equal("application/json", info.ContentType)
}

func (s *ClientTestSuite) TestList() {
	ch := make(chan minio.ObjectInfo, 2)
	ch <- minio.ObjectInfo{Key: "2024/a.json", Size: 10}
	ch <- minio.ObjectInfo{Key: "2024/b.json", Size: 20}
	close(ch)
	s.api.On("ListObjects", s.ctx, "datasets", minio.ListObjectsOptions{Prefix: "2024/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))

	objs, err := s.client.List(s.ctx, "2024/")
	s.Require().NoError(err)
	s.Len(objs, 2)
	s.Equal("2024/b.json", objs[1].Key)
}

func (s *ClientTestSuite) TestList_Error() {
	ch := make(chan minio.ObjectInfo, 1)
	ch <- minio.ObjectInfo{Err: errors.New("access denied")}
	close(ch)
	s.api.On("ListObjects", s.ctx, "datasets", minio.ListObjectsOptions{Prefix: "", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))

	_, err := s.client.List(s.ctx, "")
	s.Error(err)
}

func (s *ClientTestSuite) TestPing() {
	s.api.On("ListBuckets", s.ctx).Return([]minio.BucketInfo{{Name: "datasets"}}, nil).Once()
	s.NoError(s.client.Ping(s.ctx))

	s.api.On("ListBuckets", s.ctx).Return([]minio.BucketInfo(nil), errors.New("timeout")).Once()
	s.Error(s.client.Ping(s.ctx))
}

func (s *ClientTestSuite) TestClosed() {
	s.NoError(s.client.Close())
	_, _, err := s.client.Open(s.ctx, "x")
	s.Equal(ErrClientClosed, err)
	s.Equal(ErrClientClosed, s.client.Ping(s.ctx))
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}
