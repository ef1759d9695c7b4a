// Package lookup holds the static tables that compress verbose cost-report
// vocabulary into compact codes.
package lookup

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Skip is the line-item type code for items that are dropped from output.
const Skip = "~skip"

// Rewrite is one ordered substring replacement.
type Rewrite struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Tables are the field-mapping tables used by the cost-report fetcher.
type Tables struct {
	Services        map[string]string `yaml:"services"`
	ServicePrefixes []string          `yaml:"service_prefixes"`
	Regions         map[string]string `yaml:"regions"`
	Descriptions    []Rewrite         `yaml:"descriptions"`
	NullOperations  []string          `yaml:"null_operations"`
	LineItemTypes   map[string]string `yaml:"line_item_types"`
}

// Default returns the built-in tables.
func Default() *Tables {
	return &Tables{
		Services: map[string]string{
			"Amazon Elastic Compute Cloud":       "EC2",
			"Amazon Simple Storage Service":      "S3",
			"Amazon Relational Database Service": "RDS",
			"Amazon Elastic Block Store":         "EBS",
			"Amazon Virtual Private Cloud":       "VPC",
			"Amazon Elastic Container Service":   "ECS",
			"Amazon Elastic Kubernetes Service":  "EKS",
			"Amazon Simple Queue Service":        "SQS",
			"Amazon Simple Notification Service": "SNS",
			"Amazon Simple Email Service":        "SES",
			"AmazonCloudWatch":                   "CloudWatch",
			"AWS Key Management Service":         "KMS",
			"AWS Data Transfer":                  "DataXfer",
		},
		ServicePrefixes: []string{"Amazon ", "AWS "},
		Regions: map[string]string{
			"USE1": "us-east-1",
			"USE2": "us-east-2",
			"USW1": "us-west-1",
			"USW2": "us-west-2",
			"UGW1": "us-gov-west-1",
			"UGE1": "us-gov-east-1",
			"CAN1": "ca-central-1",
			"SAE1": "sa-east-1",
			"EU":   "eu-west-1",
			"EUW1": "eu-west-1",
			"EUW2": "eu-west-2",
			"EUW3": "eu-west-3",
			"EUC1": "eu-central-1",
			"EUN1": "eu-north-1",
			"EUS1": "eu-south-1",
			"APN1": "ap-northeast-1",
			"APN2": "ap-northeast-2",
			"APN3": "ap-northeast-3",
			"APS1": "ap-southeast-1",
			"APS2": "ap-southeast-2",
			"APS3": "ap-south-1",
			"APE1": "ap-east-1",
			"MES1": "me-south-1",
			"AFS1": "af-south-1",
		},
		Descriptions: []Rewrite{
			{"USD ", "$"},
			{"USD", "$"},
			{"$0.00 ", "$0 "},
			{"$0.0 ", "$0 "},
			{"$$", "$"},
			{" per ", "/"},
			{" - ", "; "},
			{"  ", " "},
			{"-month", "-mo"},
			{"-Month", "-mo"},
			{" / month", "/mo"},
			{"-hour", "-hr"},
			{"(or partial hour)", "(or partial)"},
			{"Linux/UNIX", "Linux"},
			{"transfer", "xfer"},
			{"Northern ", "N. "},
			{" reserved instance ", " RI "},
		},
		NullOperations: []string{
			"Any", "any", "ANY", "Nil", "nil", "None", "none", "Null", "null",
			"NoOperation", "Not Applicable", "N/A", "n/a", "Unknown", "unknown",
		},
		LineItemTypes: map[string]string{
			"Usage":                   "usage",
			"DiscountedUsage":         "ri",
			"RIFee":                   "ri-fee",
			"SavingsPlanCoveredUsage": "sp",
			"SavingsPlanRecurringFee": "sp-fee",
			"SavingsPlanUpfrontFee":   "sp-upfront",
			"SavingsPlanNegation":     Skip,
			"Fee":                     "fee",
			"Tax":                     "tax",
			"Credit":                  "credit",
			"Refund":                  "refund",
			"BundledDiscount":         "discount",
			"EdpDiscount":             "discount",
			"PrivateRateDiscount":     "discount",
			"DistributorDiscount":     "discount",
		},
	}
}

// Load returns the default tables extended by the YAML file at path. Map
// entries merge key by key; a non-empty list replaces the default list.
func Load(path string) (*Tables, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading lookup tables: %w", err)
	}
	var ext Tables
	if err := yaml.Unmarshal(data, &ext); err != nil {
		return nil, fmt.Errorf("error parsing lookup tables %s: %w", path, err)
	}
	t.Services = lo.Assign(t.Services, ext.Services)
	t.Regions = lo.Assign(t.Regions, ext.Regions)
	t.LineItemTypes = lo.Assign(t.LineItemTypes, ext.LineItemTypes)
	if len(ext.ServicePrefixes) > 0 {
		t.ServicePrefixes = ext.ServicePrefixes
	}
	if len(ext.Descriptions) > 0 {
		t.Descriptions = ext.Descriptions
	}
	if len(ext.NullOperations) > 0 {
		t.NullOperations = ext.NullOperations
	}
	return t, nil
}

// Service returns the compact name of a product.
func (t *Tables) Service(name string) string {
	if s, ok := t.Services[name]; ok {
		return s
	}
	for _, p := range t.ServicePrefixes {
		name = strings.ReplaceAll(name, p, "")
	}
	return name
}

// Description applies the description rewrites in order.
func (t *Tables) Description(s string) string {
	for _, r := range t.Descriptions {
		s = strings.ReplaceAll(s, r.From, r.To)
	}
	return s
}

// Operation blanks operation names that carry no information.
func (t *Tables) Operation(op string) string {
	if lo.Contains(t.NullOperations, op) {
		return ""
	}
	return op
}

// LineItemType returns the compact code for a line-item type and whether the
// item should be dropped. Unknown types pass through unchanged.
func (t *Tables) LineItemType(typ string) (string, bool) {
	code, ok := t.LineItemTypes[typ]
	if !ok {
		return typ, false
	}
	return code, code == Skip
}

// UsageType strips a leading region abbreviation from a usage type and
// returns the region it denotes, if any.
func (t *Tables) UsageType(ut string) (string, string) {
	abbr, rest, ok := strings.Cut(ut, "-")
	if !ok {
		return ut, ""
	}
	if region, ok := t.Regions[abbr]; ok {
		return rest, region
	}
	return ut, ""
}
