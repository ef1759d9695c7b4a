package models

import (
	"context"
	"fmt"

	awslib "cmon/internal/aws"
	"cmon/internal/gopher"
	"cmon/internal/logging"
	"cmon/internal/record"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/aws/aws-sdk-go/service/ec2"
)

type ebsRecord struct {
	ID    string `col:"id"`
	Acct  string `col:"acct"`
	Type  string `col:"type"`
	Size  string `col:"size"`
	IOPS  string `col:"iops"`
	AZ    string `col:"az"`
	State string `col:"state"`
	Mount string `col:"mount"`
	Tag   string `col:"tag"`
	Idle  string `col:"idle,metric"`
}

// EBSVolumes fetches EBS volumes
type EBSVolumes struct {
	metrics bool
}

func init() {
	gopher.DefaultRegistry.MustRegister(&EBSVolumes{})
	gopher.DefaultRegistry.MustRegister(&EBSVolumes{metrics: true})
}

// Name implements Model interface
func (m *EBSVolumes) Name() string {
	return modelName("ebs.aws", m.metrics)
}

// Description implements Model interface
func (m *EBSVolumes) Description() string {
	if m.metrics {
		return "fetch EBS volumes from AWS with idle percentage"
	}
	return "fetch EBS volumes from AWS"
}

// Columns implements Model interface
func (m *EBSVolumes) Columns() []string {
	return record.Columns(ebsRecord{}, m.metrics)
}

func mount(att []*ec2.VolumeAttachment) string {
	if len(att) != 1 {
		return fmt.Sprintf("%d attachments", len(att))
	}
	a := att[0]
	return fmt.Sprintf("%s:%s:%s", aws.StringValue(a.InstanceId), aws.StringValue(a.Device),
		boolField(a.DeleteOnTermination))
}

func newEBSRecord(env *gopher.Env, account string, v *ec2.Volume) ebsRecord {
	return ebsRecord{
		ID:    aws.StringValue(v.VolumeId),
		Acct:  account,
		Type:  aws.StringValue(v.VolumeType),
		Size:  intField(v.Size),
		IOPS:  intField(v.Iops),
		AZ:    aws.StringValue(v.AvailabilityZone),
		State: aws.StringValue(v.State),
		Mount: mount(v.Attachments),
		Tag:   renderTags(env, account, ec2Tags(v.Tags)),
	}
}

// Fetch implements Model interface
func (m *EBSVolumes) Fetch(ctx context.Context, env *gopher.Env, w *record.Writer) error {
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
		err = svc.DescribeVolumesPagesWithContext(ctx, &ec2.DescribeVolumesInput{},
			func(page *ec2.DescribeVolumesOutput, lastPage bool) bool {
				for _, v := range page.Volumes {
					rec := newEBSRecord(env, account, v)
					if cw != nil {
						rec.Idle = m.idle(ctx, env, cw, section, rec.ID)
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
			return fmt.Errorf("failed to describe volumes in %s: %w", section, err)
		}
		return nil
	})
}

func (m *EBSVolumes) idle(ctx context.Context, env *gopher.Env, cw cloudwatchiface.CloudWatchAPI, section, id string) string {
	v, ok, err := awslib.IdlePercent(ctx, cw, awslib.MetricConfig{
		Namespace:     "AWS/EBS",
		ResourceID:    id,
		DimensionName: "VolumeId",
		MetricName:    "VolumeIdleTime",
		Window:        env.Window(),
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
