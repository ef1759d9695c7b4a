package models

import (
	"context"
	"fmt"
	"strconv"

	awslib "cmon/internal/aws"
	"cmon/internal/gopher"
	"cmon/internal/logging"
	"cmon/internal/record"
	"cmon/internal/tags"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/aws/aws-sdk-go/service/ec2"
)

type ec2Record struct {
	ID    string `col:"id"`
	Acct  string `col:"acct"`
	Type  string `col:"type"`
	Plat  string `col:"plat"`
	Vol   string `col:"vol"`
	AZ    string `col:"az"`
	AMI   string `col:"ami"`
	State string `col:"state"`
	Spot  string `col:"spot"`
	Tag   string `col:"tag"`
	CPU   string `col:"cpu,metric"`
}

// EC2Instances fetches EC2 instances
type EC2Instances struct {
	metrics bool
}

func init() {
	gopher.DefaultRegistry.MustRegister(&EC2Instances{})
	gopher.DefaultRegistry.MustRegister(&EC2Instances{metrics: true})
}

// Name implements Model interface
func (m *EC2Instances) Name() string {
	return modelName("ec2.aws", m.metrics)
}

// Description implements Model interface
func (m *EC2Instances) Description() string {
	if m.metrics {
		return "fetch EC2 instances from AWS with p95 CPU"
	}
	return "fetch EC2 instances from AWS"
}

// Columns implements Model interface
func (m *EC2Instances) Columns() []string {
	return record.Columns(ec2Record{}, m.metrics)
}

func ec2Tags(in []*ec2.Tag) []tags.Tag {
	out := make([]tags.Tag, 0, len(in))
	for _, t := range in {
		out = append(out, tags.Tag{Key: t.Key, Value: t.Value})
	}
	return out
}

func newEC2Record(env *gopher.Env, account, region string, i *ec2.Instance) ec2Record {
	rec := ec2Record{
		ID:   aws.StringValue(i.InstanceId),
		Acct: account,
		Type: aws.StringValue(i.InstanceType),
		Plat: aws.StringValue(i.Platform),
		Vol:  strconv.Itoa(len(i.BlockDeviceMappings)),
		AZ:   region,
		AMI:  aws.StringValue(i.ImageId),
		Spot: aws.StringValue(i.SpotInstanceRequestId),
		Tag:  renderTags(env, account, ec2Tags(i.Tags)),
	}
	if i.Placement != nil {
		rec.AZ = stringOr(i.Placement.AvailabilityZone, region)
	}
	if i.State != nil {
		rec.State = aws.StringValue(i.State.Name)
	}
	return rec
}

// Fetch implements Model interface
func (m *EC2Instances) Fetch(ctx context.Context, env *gopher.Env, w *record.Writer) error {
	return forEachRegion(ctx, env, m.Name(), func(account, region, section string) error {
		svc, err := env.Clients.EC2(account, region)
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
		err = svc.DescribeInstancesPagesWithContext(ctx, &ec2.DescribeInstancesInput{},
			func(page *ec2.DescribeInstancesOutput, lastPage bool) bool {
				for _, res := range page.Reservations {
					for _, i := range res.Instances {
						rec := newEC2Record(env, account, region, i)
						if cw != nil {
							rec.CPU = m.cpu(ctx, env, cw, section, rec.ID)
						}
						if emitErr = w.Emit(section, record.Of(rec)); emitErr != nil {
							return false
						}
					}
				}
				return true
			})
		if emitErr != nil {
			return emitErr
		}
		if err != nil {
			return fmt.Errorf("failed to describe instances in %s: %w", section, err)
		}
		return nil
	})
}

func (m *EC2Instances) cpu(ctx context.Context, env *gopher.Env, cw cloudwatchiface.CloudWatchAPI, section, id string) string {
	v, ok, err := awslib.MaxPercentile(ctx, cw, awslib.MetricConfig{
		Namespace:         "AWS/EC2",
		ResourceID:        id,
		DimensionName:     "InstanceId",
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
