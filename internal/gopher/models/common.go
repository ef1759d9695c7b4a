// Package models implements the gopher fetch models. Each model registers
// itself with gopher.DefaultRegistry.
package models

import (
	"context"
	"fmt"
	"strconv"

	awslib "cmon/internal/aws"
	"cmon/internal/gopher"
	"cmon/internal/logging"
	"cmon/internal/tags"
)

// MetricsSuffix selects the metrics variant of a model.
const MetricsSuffix = "/m"

func modelName(base string, metrics bool) string {
	if metrics {
		return base + MetricsSuffix
	}
	return base
}

// forEachRegion calls fn for every sampled account/region pair, accounts and
// regions in ascending order.
func forEachRegion(ctx context.Context, env *gopher.Env, model string, fn func(account, region, section string) error) error {
	a := env.Settings.AWS
	if a == nil || len(a.Accounts) == 0 {
		return fmt.Errorf("no AWS configuration for %s", model)
	}
	for _, acct := range a.SortedAccounts() {
		for _, region := range a.SortedRegions(acct) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !awslib.Visit(a.Accounts[acct][region], env.Rand) {
				logging.Debug("Skipping sampled region", map[string]interface{}{
					"model":   model,
					"account": acct,
					"region":  region,
				})
				continue
			}
			section := awslib.Section(acct, region)
			logging.FetchStart(model, section)
			if err := fn(acct, region, section); err != nil {
				return err
			}
		}
	}
	return nil
}

func boolField(b *bool) string {
	if b != nil && *b {
		return "True"
	}
	return "False"
}

func intField(n *int64) string {
	if n == nil {
		return "0"
	}
	return strconv.FormatInt(*n, 10)
}

func stringOr(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func metricField(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func renderTags(env *gopher.Env, account string, raw []tags.Tag) string {
	return tags.Render(env.Tags.For(account).Apply(raw))
}
