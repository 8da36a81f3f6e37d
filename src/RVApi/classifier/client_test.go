package classifier

import (
	"context"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritrust/review-verify/src/RVApi/types"
)

func TestAnalyzeTranslatesWireLabels(t *testing.T) {
	client := NewHTTPClient("http://classifier.local", 0)
	httpmock.ActivateNonDefault(client.httpClient)
	defer httpmock.DeactivateAndReset()

	tests := []struct {
		name      string
		body      string
		wantLabel string
		wantScore int
	}{
		{"fake", `{"fake_probability": 0.87, "label": "fake"}`, types.LabelFake, 87},
		{"genuine", `{"fake_probability": 0.12, "label": "genuine"}`, types.LabelReal, 12},
		{"score clamps at 100", `{"fake_probability": 1.2, "label": "fake"}`, types.LabelFake, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			httpmock.RegisterResponder("POST", "http://classifier.local/analyze",
				httpmock.NewStringResponder(200, tc.body))

			res, err := client.Analyze(context.Background(), "some review text")
			require.NoError(t, err)
			assert.Equal(t, tc.wantLabel, res.Label)
			assert.Equal(t, tc.wantScore, res.FakeProbability)
			assert.False(t, res.Fallback)
		})
	}
}

func TestAnalyzeUnavailable(t *testing.T) {
	client := NewHTTPClient("http://classifier.local", 0)
	httpmock.ActivateNonDefault(client.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", "http://classifier.local/analyze",
		httpmock.NewStringResponder(500, "model crashed"))

	_, err := client.Analyze(context.Background(), "some review text")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAnalyzeConnectionRefused(t *testing.T) {
	client := NewHTTPClient("http://classifier.local", 0)
	httpmock.ActivateNonDefault(client.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", "http://classifier.local/analyze",
		httpmock.ConnectionFailure)

	_, err := client.Analyze(context.Background(), "some review text")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFallbackResult(t *testing.T) {
	for i := 0; i < 20; i++ {
		res := FallbackResult()
		assert.Equal(t, types.LabelUnverified, res.Label)
		assert.True(t, res.Fallback)
		assert.GreaterOrEqual(t, res.FakeProbability, 0)
		assert.LessOrEqual(t, res.FakeProbability, 100)
	}
}
