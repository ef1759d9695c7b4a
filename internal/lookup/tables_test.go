package lookup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	tables := Default()

	assert.Equal(t, "EC2", tables.Service("Amazon Elastic Compute Cloud"))
	assert.Equal(t, "CloudWatch", tables.Service("AmazonCloudWatch"))
	assert.Equal(t, "Lambda", tables.Service("AWS Lambda"))
	assert.Equal(t, "DynamoDB", tables.Service("Amazon DynamoDB"))
}

func TestDescription(t *testing.T) {
	tables := Default()

	assert.Equal(t, "$0.0116/On Demand Linux t3.micro Instance Hour",
		tables.Description("$0.0116 per On Demand Linux/UNIX t3.micro Instance Hour"))
	assert.Equal(t, "$0.10/GB-mo of General Purpose SSD (gp2) provisioned storage; US East (N. Virginia)",
		tables.Description("$0.10 per GB-month of General Purpose SSD (gp2) provisioned storage - US East (Northern Virginia)"))
	assert.Equal(t, "$0/GB data xfer",
		tables.Description("USD 0.00 per GB data transfer"))
}

func TestOperation(t *testing.T) {
	tables := Default()

	assert.Equal(t, "", tables.Operation("NoOperation"))
	assert.Equal(t, "", tables.Operation("N/A"))
	assert.Equal(t, "RunInstances", tables.Operation("RunInstances"))
}

func TestLineItemType(t *testing.T) {
	tables := Default()

	code, skip := tables.LineItemType("SavingsPlanNegation")
	assert.True(t, skip)
	assert.Equal(t, Skip, code)

	code, skip = tables.LineItemType("DiscountedUsage")
	assert.False(t, skip)
	assert.Equal(t, "ri", code)

	code, skip = tables.LineItemType("NewType")
	assert.False(t, skip)
	assert.Equal(t, "NewType", code)
}

func TestUsageType(t *testing.T) {
	tables := Default()
	tests := []struct {
		in     string
		usage  string
		region string
	}{
		{"USE1-BoxUsage:t3.micro", "BoxUsage:t3.micro", "us-east-1"},
		{"EU-EBS:VolumeUsage.gp2", "EBS:VolumeUsage.gp2", "eu-west-1"},
		{"BoxUsage:t3.micro", "BoxUsage:t3.micro", ""},
		{"USE1-USW2-AWS-Out-Bytes", "USW2-AWS-Out-Bytes", "us-east-1"},
		{"Requests-Tier1", "Requests-Tier1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			usage, region := tables.UsageType(tt.in)
			assert.Equal(t, tt.usage, usage)
			assert.Equal(t, tt.region, region)
		})
	}
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
services:
  Amazon DynamoDB: DDB
regions:
  ILC1: il-central-1
line_item_types:
  Credit: ~skip
descriptions:
  - from: "Hour"
    to: "hr"
`), 0o644))

	tables, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DDB", tables.Service("Amazon DynamoDB"))
	assert.Equal(t, "EC2", tables.Service("Amazon Elastic Compute Cloud"))
	_, region := tables.UsageType("ILC1-BoxUsage")
	assert.Equal(t, "il-central-1", region)
	_, skip := tables.LineItemType("Credit")
	assert.True(t, skip)
	assert.Equal(t, "1 hr per GB", tables.Description("1 Hour per GB"))
	assert.Equal(t, "", tables.Operation("None"))
}

func TestLoadErrors(t *testing.T) {
	tables, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), tables)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("services: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
