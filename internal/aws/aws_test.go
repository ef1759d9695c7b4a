package aws

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCloudWatch struct {
	cloudwatchiface.CloudWatchAPI
	mock.Mock
}

func (m *mockCloudWatch) GetMetricStatisticsWithContext(ctx aws.Context, in *cloudwatch.GetMetricStatisticsInput, opts ...request.Option) (*cloudwatch.GetMetricStatisticsOutput, error) {
	args := m.Called(in)
	if out := args.Get(0); out != nil {
		return out.(*cloudwatch.GetMetricStatisticsOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestVisit(t *testing.T) {
	draws := []float64{0.0, 0.24, 0.25, 0.9}
	i := 0
	draw := func() float64 { v := draws[i]; i++; return v }

	assert.True(t, Visit(0.25, draw))
	assert.True(t, Visit(0.25, draw))
	assert.False(t, Visit(0.25, draw))
	assert.False(t, Visit(0.25, draw))

	never := func() float64 { t.Fatal("draw called for full fraction"); return 0 }
	assert.True(t, Visit(1.0, never))
	assert.True(t, Visit(2.0, never))
	assert.False(t, Visit(0, func() float64 { return 0 }))
	assert.Equal(t, "123:us-east-1", Section("123", "us-east-1"))
}

func TestNewMetricWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	w := NewMetricWindow(now, 90, 300)

	assert.Equal(t, now.Add(-90*time.Minute), w.StartTime)
	assert.Equal(t, now, w.EndTime)
	assert.Equal(t, int64(300), w.Period)
}

func TestMaxPercentile(t *testing.T) {
	cw := &mockCloudWatch{}
	cw.On("GetMetricStatisticsWithContext", mock.MatchedBy(func(in *cloudwatch.GetMetricStatisticsInput) bool {
		return aws.StringValue(in.ExtendedStatistics[0]) == "p95" && in.Statistics == nil &&
			aws.StringValue(in.Dimensions[0].Value) == "i-1"
	})).Return(&cloudwatch.GetMetricStatisticsOutput{
		Datapoints: []*cloudwatch.Datapoint{
			{ExtendedStatistics: map[string]*float64{"p95": aws.Float64(12.5)}},
			{ExtendedStatistics: map[string]*float64{"p95": aws.Float64(48)}},
			{ExtendedStatistics: map[string]*float64{}},
		},
	}, nil)

	v, ok, err := MaxPercentile(context.Background(), cw, MetricConfig{
		Namespace:         "AWS/EC2",
		ResourceID:        "i-1",
		DimensionName:     "InstanceId",
		MetricName:        "CPUUtilization",
		ExtendedStatistic: "p95",
		Window:            NewMetricWindow(time.Now(), 60, 300),
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 48.0, v)
}

func TestIdlePercent(t *testing.T) {
	cw := &mockCloudWatch{}
	cw.On("GetMetricStatisticsWithContext", mock.Anything).Return(&cloudwatch.GetMetricStatisticsOutput{
		Datapoints: []*cloudwatch.Datapoint{
			{Sum: aws.Float64(300)},
			{Sum: aws.Float64(150)},
			{},
		},
	}, nil).Once()
	cw.On("GetMetricStatisticsWithContext", mock.Anything).Return(&cloudwatch.GetMetricStatisticsOutput{}, nil).Once()
	cw.On("GetMetricStatisticsWithContext", mock.Anything).Return(nil, errors.New("throttled")).Once()

	cfg := MetricConfig{
		Namespace:     "AWS/EBS",
		ResourceID:    "vol-1",
		DimensionName: "VolumeId",
		MetricName:    "VolumeIdleTime",
		Window:        NewMetricWindow(time.Now(), 60, 300),
	}

	v, ok, err := IdlePercent(context.Background(), cw, cfg)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 75.0, v)

	_, ok, err = IdlePercent(context.Background(), cw, cfg)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = IdlePercent(context.Background(), cw, cfg)
	assert.Error(t, err)
}

func TestListProfilesFrom(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials")
	conf := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(creds, []byte("[default]\nkey=a\n[111]\nkey=b\n"), 0o600))
	require.NoError(t, os.WriteFile(conf, []byte("[profile prod]\nregion=us-east-1\n[default]\n"), 0o600))

	profiles, err := ListProfilesFrom(creds, conf)
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "default", "prod"}, profiles)

	profiles, err = ListProfilesFrom(filepath.Join(dir, "none"), filepath.Join(dir, "none"))
	require.NoError(t, err)
	assert.Empty(t, profiles)

	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", creds)
	t.Setenv("AWS_CONFIG_FILE", conf)
	assert.True(t, IsValidProfile("prod"))
	assert.False(t, IsValidProfile("222"))
}

func TestSessionClientsRejectsUnknownProfile(t *testing.T) {
	c := NewSessionClients(func(account string) string { return "p-" + account })
	c.validate = func(string) bool { return false }

	_, err := c.EC2("111", "us-east-1")
	assert.ErrorContains(t, err, `profile "p-111" for account 111 not found`)
}
