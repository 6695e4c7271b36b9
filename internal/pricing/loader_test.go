package pricing

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// createSettingsFile writes a settings document to a temp dir.
func createSettingsFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "pricing.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// MockLoader is a mock implementation of Loader.
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, path string) (Settings, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(Settings), args.Error(1)
}

// fakeObjectGetter serves a single object body or an error.
type fakeObjectGetter struct {
	body string
	err  error
	key  string
}

func (f *fakeObjectGetter) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.key = *params.Key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestFileLoader_Load(t *testing.T) {
	logger := zerolog.Nop()
	loader := NewFileLoader(logger)
	ctx := context.Background()

	tests := []struct {
		name        string
		content     string
		deliveryFee string
		errorMsg    string
	}{
		{
			name:        "Full document",
			content:     `{"deliveryFee": "7.25", "redemptionRate": 50, "earnRate": "2", "maxPointsBalance": 5000}`,
			deliveryFee: "7.25",
		},
		{
			name:        "Partial document keeps defaults",
			content:     `{"deliveryFee": 3}`,
			deliveryFee: "3",
		},
		{
			name:     "Invalid JSON",
			content:  `{not json`,
			errorMsg: "failed to decode settings",
		},
		{
			name:     "Invalid values",
			content:  `{"earnRate": 0}`,
			errorMsg: "earn rate must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := createSettingsFile(t, tt.content)

			settings, err := loader.Load(ctx, path)

			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tt.deliveryFee).Equal(settings.DeliveryFee))
		})
	}
}

func TestFileLoader_Load_MissingFile(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	_, err := loader.Load(context.Background(), "/nonexistent/pricing.json")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open pricing defaults")
}

func TestS3Loader_Load(t *testing.T) {
	getter := &fakeObjectGetter{body: `{"deliveryFee": "9.90"}`}
	loader := &s3Loader{client: getter, bucket: "bucket", logger: zerolog.Nop()}

	settings, err := loader.Load(context.Background(), "defaults/pricing.json")

	require.NoError(t, err)
	assert.Equal(t, "defaults/pricing.json", getter.key)
	assert.True(t, dec("9.90").Equal(settings.DeliveryFee))
}

func TestS3Loader_Load_Error(t *testing.T) {
	loader := &s3Loader{client: &fakeObjectGetter{err: errors.New("access denied")}, bucket: "bucket", logger: zerolog.Nop()}

	_, err := loader.Load(context.Background(), "pricing.json")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get object from S3")
}

func TestFallbackLoader_Load(t *testing.T) {
	ctx := context.Background()
	fromS3 := DefaultSettings()
	fromS3.DeliveryFee = dec("1.00")
	fromFile := DefaultSettings()
	fromFile.DeliveryFee = dec("2.00")

	t.Run("S3 success", func(t *testing.T) {
		s3Mock := new(MockLoader)
		file := new(MockLoader)
		s3Mock.On("Load", ctx, "pricing/defaults.json").Return(fromS3, nil)

		loader := NewFallbackLoader(s3Mock, file, "pricing/", zerolog.Nop())
		settings, err := loader.Load(ctx, "defaults.json")

		require.NoError(t, err)
		assert.True(t, dec("1.00").Equal(settings.DeliveryFee))
		file.AssertNotCalled(t, "Load")
	})

	t.Run("S3 failure falls back to file", func(t *testing.T) {
		s3Mock := new(MockLoader)
		file := new(MockLoader)
		s3Mock.On("Load", ctx, "pricing/defaults.json").Return(Settings{}, errors.New("boom"))
		file.On("Load", ctx, "defaults.json").Return(fromFile, nil)

		loader := NewFallbackLoader(s3Mock, file, "pricing/", zerolog.Nop())
		settings, err := loader.Load(ctx, "defaults.json")

		require.NoError(t, err)
		assert.True(t, dec("2.00").Equal(settings.DeliveryFee))
		s3Mock.AssertExpectations(t)
		file.AssertExpectations(t)
	})

	t.Run("No S3 loader", func(t *testing.T) {
		file := new(MockLoader)
		file.On("Load", ctx, "defaults.json").Return(fromFile, nil)

		loader := NewFallbackLoader(nil, file, "pricing/", zerolog.Nop())
		_, err := loader.Load(ctx, "defaults.json")

		require.NoError(t, err)
		file.AssertExpectations(t)
	})
}

func TestLoadDefaults_DegradesToBuiltIn(t *testing.T) {
	ctx := context.Background()
	file := new(MockLoader)
	file.On("Load", ctx, "missing.json").Return(Settings{}, errors.New("not found"))

	settings := LoadDefaults(ctx, file, "missing.json", zerolog.Nop())

	assert.Equal(t, DefaultSettings(), settings)
	assert.Equal(t, DefaultSettings(), LoadDefaults(ctx, nil, "", zerolog.Nop()))
}
