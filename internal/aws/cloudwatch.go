package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
)

// MetricWindow is the trailing interval sampled for metric augmentation.
type MetricWindow struct {
	StartTime time.Time
	EndTime   time.Time
	Period    int64
}

// NewMetricWindow covers rangeM minutes back from now in periods of periodS seconds.
func NewMetricWindow(now time.Time, rangeM, periodS int) MetricWindow {
	return MetricWindow{
		StartTime: now.Add(-time.Duration(rangeM) * time.Minute),
		EndTime:   now,
		Period:    int64(periodS),
	}
}

// MetricConfig represents configuration for retrieving CloudWatch metrics
type MetricConfig struct {
	Namespace     string
	ResourceID    string
	DimensionName string
	MetricName    string
	// Statistic is a standard statistic such as "Sum"; ExtendedStatistic is a
	// percentile such as "p95". Exactly one should be set.
	Statistic         string
	ExtendedStatistic string
	Window            MetricWindow
}

// GetResourceMetrics retrieves the datapoints of one metric for a resource
func GetResourceMetrics(ctx context.Context, cw cloudwatchiface.CloudWatchAPI, config MetricConfig) ([]*cloudwatch.Datapoint, error) {
	input := &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(config.Namespace),
		MetricName: aws.String(config.MetricName),
		StartTime:  aws.Time(config.Window.StartTime),
		EndTime:    aws.Time(config.Window.EndTime),
		Period:     aws.Int64(config.Window.Period),
		Dimensions: []*cloudwatch.Dimension{
			{
				Name:  aws.String(config.DimensionName),
				Value: aws.String(config.ResourceID),
			},
		},
	}
	if config.ExtendedStatistic != "" {
		input.ExtendedStatistics = []*string{aws.String(config.ExtendedStatistic)}
	} else {
		input.Statistics = []*string{aws.String(config.Statistic)}
	}

	output, err := cw.GetMetricStatisticsWithContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get metric statistics: %w", err)
	}
	return output.Datapoints, nil
}

// MaxPercentile returns the largest percentile value across the window. The
// second result is false when there were no datapoints.
func MaxPercentile(ctx context.Context, cw cloudwatchiface.CloudWatchAPI, config MetricConfig) (float64, bool, error) {
	dps, err := GetResourceMetrics(ctx, cw, config)
	if err != nil {
		return 0, false, err
	}
	var max float64
	found := false
	for _, dp := range dps {
		v, ok := dp.ExtendedStatistics[config.ExtendedStatistic]
		if !ok || v == nil {
			continue
		}
		if !found || *v > max {
			max = *v
		}
		found = true
	}
	return max, found, nil
}

// IdlePercent sums an idle-seconds metric and expresses it as a percentage
// of the periods that reported. The second result is false when there were
// no datapoints.
func IdlePercent(ctx context.Context, cw cloudwatchiface.CloudWatchAPI, config MetricConfig) (float64, bool, error) {
	config.Statistic, config.ExtendedStatistic = "Sum", ""
	dps, err := GetResourceMetrics(ctx, cw, config)
	if err != nil {
		return 0, false, err
	}
	var idle float64
	n := 0
	for _, dp := range dps {
		if dp.Sum == nil {
			continue
		}
		idle += *dp.Sum
		n++
	}
	if n == 0 || config.Window.Period <= 0 {
		return 0, false, nil
	}
	pct := 100 * idle / float64(int64(n)*config.Window.Period)
	if pct > 100 {
		pct = 100
	}
	return pct, true, nil
}
