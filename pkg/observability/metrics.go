package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the subset of the CloudWatch client used for metrics.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics publishes operational metrics to CloudWatch.
// Publish failures are logged and never surfaced to callers.
type Metrics struct {
	client    CloudWatchAPI
	namespace string
	logger    *zap.Logger
}

// NewMetrics creates a metrics publisher for the given namespace.
func NewMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *Metrics {
	return &Metrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordSweep publishes the outcome counters and duration of a reminder sweep.
func (m *Metrics) RecordSweep(ctx context.Context, newlyOverdue, dueToday, dueSoon int, duration time.Duration) {
	timestamp := time.Now()
	data := []types.MetricDatum{
		m.countDatum("SweepNewlyOverdue", newlyOverdue, timestamp),
		m.countDatum("SweepDueToday", dueToday, timestamp),
		m.countDatum("SweepDueSoon", dueSoon, timestamp),
		{
			MetricName: aws.String("SweepDuration"),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  aws.Time(timestamp),
		},
	}

	m.publish(ctx, data)
}

// RecordCount publishes a single count metric.
func (m *Metrics) RecordCount(ctx context.Context, name string, value int) {
	m.publish(ctx, []types.MetricDatum{m.countDatum(name, value, time.Now())})
}

func (m *Metrics) countDatum(name string, value int, timestamp time.Time) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(float64(value)),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(timestamp),
	}
}

func (m *Metrics) publish(ctx context.Context, data []types.MetricDatum) {
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	if err != nil {
		m.logger.Warn("Failed to publish metrics",
			zap.String("namespace", m.namespace),
			zap.Error(err),
		)
	}
}
