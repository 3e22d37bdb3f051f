package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mirage/core"
	"mirage/runner"
	"mirage/scenario"
	"mirage/storage"
	"mirage/synth"
)

func floatPtr(v float64) *float64 { return &v }

func testAPI(t *testing.T) *API {
	t.Helper()
	eng := runner.New(scenario.NewCatalog(), synth.NewTemplateFiller(core.NewSeededRand(1)), nil, zap.NewNop().Sugar())
	return NewAPI(eng, nil, nil, nil, zap.NewNop().Sugar())
}

func postCampaign(t *testing.T, a *API, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/campaigns", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestRunCampaign_ReturnsFullResult(t *testing.T) {
	rec := postCampaign(t, testAPI(t), campaignRequest{
		Scenario:      "ransomware",
		Complexity:    "medium",
		Pattern:       "uniform",
		Seed:          42,
		DetectionRate: floatPtr(1.0),
		LogsPerStage:  3,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result core.CampaignResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, core.ScenarioRansomware, result.Campaign.Type)
	assert.NotEmpty(t, result.Stages)
	assert.NotEmpty(t, result.Timeline)
}

func TestRunCampaign_ExplicitZeroDetectionRateDetectsNothing(t *testing.T) {
	rec := postCampaign(t, testAPI(t), campaignRequest{
		Scenario:      "apt",
		Seed:          42,
		DetectionRate: floatPtr(0.0),
		LogsPerStage:  5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result core.CampaignResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Empty(t, result.DetectedAlerts)
	require.NotEmpty(t, result.MissedActivities)
	for _, m := range result.MissedActivities {
		assert.Equal(t, core.MissBelowDetectionThreshold, m.Reason)
	}
}

func TestRunCampaign_OmittedDetectionRateUsesDefault(t *testing.T) {
	rec := postCampaign(t, testAPI(t), campaignRequest{
		Scenario:     "apt",
		Seed:         42,
		LogsPerStage: 5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// the default rate is strictly between 0 and 1, so over a full
	// campaign both outcomes occur
	var result core.CampaignResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.DetectedAlerts)
	assert.NotEmpty(t, result.MissedActivities)
}

type captureS3 struct {
	s3iface.S3API
	keys []string
}

func (c *captureS3) PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	c.keys = append(c.keys, aws.StringValue(input.Key))
	return &s3.PutObjectOutput{}, nil
}

func TestRunCampaign_ArchivesResultWhenConfigured(t *testing.T) {
	fake := &captureS3{}
	archiver := storage.NewArchiverWithClient(fake, "campaign-archive", "campaigns", zap.NewNop().Sugar())
	eng := runner.New(scenario.NewCatalog(), synth.NewTemplateFiller(core.NewSeededRand(1)), nil, zap.NewNop().Sugar())
	a := NewAPI(eng, nil, nil, archiver, zap.NewNop().Sugar())

	rec := postCampaign(t, a, campaignRequest{Scenario: "insider", Seed: 7, LogsPerStage: 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, fake.keys, 1)
	assert.Contains(t, fake.keys[0], "campaigns/")
}

func TestRunCampaign_UnknownScenarioIsBadRequest(t *testing.T) {
	rec := postCampaign(t, testAPI(t), campaignRequest{Scenario: "cryptojacking"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown scenario")
}

func TestRunCampaign_InvalidComplexityAndPatternRejected(t *testing.T) {
	a := testAPI(t)

	rec := postCampaign(t, a, campaignRequest{Scenario: "apt", Complexity: "impossible"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postCampaign(t, a, campaignRequest{Scenario: "apt", Pattern: "lunar"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunCampaign_MalformedBodyRejected(t *testing.T) {
	a := testAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/campaigns", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecentRuns_WithoutRegistryIsUnavailable(t *testing.T) {
	a := testAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/api/campaigns/recent", nil)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	a := testAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpointRegistered(t *testing.T) {
	a := testAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
