package dataset

import (
	"context"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"etfseasonal/internal/stats"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, aws.ToString(params.Key))
	if out := args.Get(0); out != nil {
		return out.(*s3.GetObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, aws.ToString(params.Prefix), aws.ToString(params.ContinuationToken))
	if out := args.Get(0); out != nil {
		return out.(*s3.ListObjectsV2Output), args.Error(1)
	}
	return nil, args.Error(1)
}

func body(s string) *s3.GetObjectOutput {
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(s))}
}

func TestS3Source_Open(t *testing.T) {
	client := new(mockS3)
	client.On("GetObject", mock.Anything, "docs/dataset/ETF_sector/XLB/storage/pivot_stats.json").
		Return(body(`["price", {}]`), nil)
	client.On("GetObject", mock.Anything, "docs/dataset/ETF_sector/QQQ/storage/pivot_stats.json").
		Return(nil, &types.NoSuchKey{})

	src := NewS3Source(client, "etf-data", "/docs/dataset/")

	rc, err := src.Open(context.Background(), "ETF_sector/XLB/storage/pivot_stats.json")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, `["price", {}]`, string(data))

	_, err = src.Open(context.Background(), "ETF_sector/QQQ/storage/pivot_stats.json")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "s3://etf-data/")

	client.AssertExpectations(t)
}

func TestS3Source_ListDirsPaginates(t *testing.T) {
	client := new(mockS3)
	client.On("ListObjectsV2", mock.Anything, "ETF_sector/", "").Return(&s3.ListObjectsV2Output{
		CommonPrefixes: []types.CommonPrefix{
			{Prefix: aws.String("ETF_sector/XLK/")},
			{Prefix: aws.String("ETF_sector/.tmp/")},
		},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("page-2"),
	}, nil)
	client.On("ListObjectsV2", mock.Anything, "ETF_sector/", "page-2").Return(&s3.ListObjectsV2Output{
		CommonPrefixes: []types.CommonPrefix{{Prefix: aws.String("ETF_sector/XLB/")}},
		IsTruncated:    aws.Bool(false),
	}, nil)

	src := NewS3Source(client, "etf-data", "")

	names, err := src.ListDirs(context.Background(), "ETF_sector")
	require.NoError(t, err)
	assert.Equal(t, []string{".tmp", "XLB", "XLK"}, names)
	client.AssertExpectations(t)
}

func TestLocator_WithS3Source(t *testing.T) {
	client := new(mockS3)
	client.On("GetObject", mock.Anything, "ETF_sector/XLB/storage/pivot_stats.json").
		Return(body(`["price", {"monthly": `+monthlyTable+`}]`), nil).Once()
	client.On("ListObjectsV2", mock.Anything, "ETF_sector/", "").Return(&s3.ListObjectsV2Output{
		CommonPrefixes: []types.CommonPrefix{
			{Prefix: aws.String("ETF_sector/XLB/")},
			{Prefix: aws.String("ETF_sector/.tmp/")},
		},
	}, nil)

	loc := NewLocator(NewS3Source(client, "etf-data", ""))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c, err := loc.Resolve(ctx, fixtureKey(priceFile, nil))
		require.NoError(t, err)
		assert.Contains(t, c, "monthly")
	}
	assert.Equal(t, []string{"XLB"}, loc.Tickers(ctx, "ETF_sector"))

	client.On("GetObject", mock.Anything, "ETF_sector/XLB/storage/pivot_vol_stats.json").
		Return(nil, &types.NoSuchKey{})
	_, err := loc.Resolve(ctx, fixtureKey(volumeFile, nil))
	assert.ErrorIs(t, err, stats.ErrDataUnavailable)

	client.AssertExpectations(t)
}
