package models

import (
	"context"
	"fmt"

	awslib "cmon/internal/aws"
	"cmon/internal/gopher"
	"cmon/internal/logging"
	"cmon/internal/record"
	"cmon/internal/tags"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
)

type rdsRecord struct {
	ID      string `col:"id"`
	Acct    string `col:"acct"`
	Type    string `col:"type"`
	SType   string `col:"stype"`
	Size    string `col:"size"`
	IOPS    string `col:"iops"`
	Engine  string `col:"engine"`
	Ver     string `col:"ver"`
	Lic     string `col:"lic"`
	AZ      string `col:"az"`
	MultiAZ string `col:"multiaz"`
	State   string `col:"state"`
	Tag     string `col:"tag"`
	CPU     string `col:"cpu,metric"`
}

// RDSInstances fetches RDS database instances
type RDSInstances struct {
	metrics bool
}

func init() {
	gopher.DefaultRegistry.MustRegister(&RDSInstances{})
	gopher.DefaultRegistry.MustRegister(&RDSInstances{metrics: true})
}

// Name implements Model interface
func (m *RDSInstances) Name() string {
	return modelName("rds.aws", m.metrics)
}

// Description implements Model interface
func (m *RDSInstances) Description() string {
	if m.metrics {
		return "fetch RDS databases from AWS with p95 CPU"
	}
	return "fetch RDS databases from AWS"
}

// Columns implements Model interface
func (m *RDSInstances) Columns() []string {
	return record.Columns(rdsRecord{}, m.metrics)
}

// rdsTags returns nil when the tags cannot be listed; a database without
// readable tags is still reported.
func (m *RDSInstances) rdsTags(ctx context.Context, svc rdsiface.RDSAPI, section, arn string) []tags.Tag {
	out, err := svc.ListTagsForResourceWithContext(ctx, &rds.ListTagsForResourceInput{
		ResourceName: aws.String(arn),
	})
	if err != nil {
		logging.Debug("Failed to list database tags", map[string]interface{}{
			"model":   m.Name(),
			"section": section,
			"arn":     arn,
			"error":   err.Error(),
		})
		return nil
	}
	raw := make([]tags.Tag, 0, len(out.TagList))
	for _, t := range out.TagList {
		raw = append(raw, tags.Tag{Key: t.Key, Value: t.Value})
	}
	return raw
}

func newRDSRecord(account, region string, d *rds.DBInstance) rdsRecord {
	return rdsRecord{
		ID:      aws.StringValue(d.DBInstanceArn),
		Acct:    account,
		Type:    aws.StringValue(d.DBInstanceClass),
		SType:   aws.StringValue(d.StorageType),
		Size:    intField(d.AllocatedStorage),
		IOPS:    intField(d.Iops),
		Engine:  aws.StringValue(d.Engine),
		Ver:     aws.StringValue(d.EngineVersion),
		Lic:     aws.StringValue(d.LicenseModel),
		AZ:      stringOr(d.AvailabilityZone, region),
		MultiAZ: boolField(d.MultiAZ),
		State:   aws.StringValue(d.DBInstanceStatus),
	}
}

// Fetch implements Model interface
func (m *RDSInstances) Fetch(ctx context.Context, env *gopher.Env, w *record.Writer) error {
	return forEachRegion(ctx, env, m.Name(), func(account, region, section string) error {
		svc, err := env.Clients.RDS(account, region)
		if err != nil {
			return err
		}
		var cw cloudwatchiface.CloudWatchAPI
		if m.metrics {
			if cw, err = env.Clients.CloudWatch(account, region); err != nil {
				return err
			}
		}

		var emitErr error
		err = svc.DescribeDBInstancesPagesWithContext(ctx, &rds.DescribeDBInstancesInput{},
			func(page *rds.DescribeDBInstancesOutput, lastPage bool) bool {
				for _, d := range page.DBInstances {
					rec := newRDSRecord(account, region, d)
					rec.Tag = renderTags(env, account, m.rdsTags(ctx, svc, section, rec.ID))
					if cw != nil {
						rec.CPU = m.cpu(ctx, env, cw, section, aws.StringValue(d.DBInstanceIdentifier))
					}
					if emitErr = w.Emit(section, record.Of(rec)); emitErr != nil {
						return false
					}
				}
				return true
			})
		if emitErr != nil {
			return emitErr
		}
		if err != nil {
			return fmt.Errorf("failed to describe databases in %s: %w", section, err)
		}
		return nil
	})
}

func (m *RDSInstances) cpu(ctx context.Context, env *gopher.Env, cw cloudwatchiface.CloudWatchAPI, section, id string) string {
	v, ok, err := awslib.MaxPercentile(ctx, cw, awslib.MetricConfig{
		Namespace:         "AWS/RDS",
		ResourceID:        id,
		DimensionName:     "DBInstanceIdentifier",
		MetricName:        "CPUUtilization",
		ExtendedStatistic: "p95",
		Window:            env.Window(),
	})
	if err != nil {
		logging.FetchError(m.Name(), section, err)
		return ""
	}
	if !ok {
		return ""
	}
	return metricField(v)
}
