package models

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"cmon/internal/gopher"
	"cmon/internal/helper"
	"cmon/internal/logging"
	"cmon/internal/record"
	"cmon/internal/tags"
)

const (
	curHelper     = "goph_curaws.sh"
	curHeader     = "identity/LineItemId,"
	curTagPrefix  = "resourceTags/"
	curUserPrefix = "user:"
	compactIDLen  = 10
)

type curRecord struct {
	ID   string `col:"id"`
	Hour string `col:"hour"`
	Usg  string `col:"usg"`
	Cost string `col:"cost"`
	Acct string `col:"acct"`
	Typ  string `col:"typ"`
	Svc  string `col:"svc"`
	UTyp string `col:"utyp"`
	UOp  string `col:"uop"`
	Reg  string `col:"reg"`
	RID  string `col:"rid"`
	Desc string `col:"desc"`
	Tag  string `col:"tag"`
}

// CURLineItems fetches cost and usage report line items through a helper
type CURLineItems struct{}

func init() {
	gopher.DefaultRegistry.MustRegister(&CURLineItems{})
}

// Name implements Model interface
func (m *CURLineItems) Name() string {
	return "cur.aws"
}

// Description implements Model interface
func (m *CURLineItems) Description() string {
	return "fetch CUR cost/usage line items from AWS"
}

// Columns implements Model interface
func (m *CURLineItems) Columns() []string {
	return record.Columns(curRecord{}, false)
}

// idCache shortens line-item IDs to a fixed-length suffix, keeping the full
// ID when the suffix already belongs to another item. Every emitted ID maps to
// exactly one line item.
type idCache struct {
	short map[string]string
	owner map[string]string
}

func newIDCache() *idCache {
	return &idCache{short: make(map[string]string), owner: make(map[string]string)}
}

// get returns the emitted ID for id and whether this is its first use.
func (c *idCache) get(id string) (string, bool) {
	if s, ok := c.short[id]; ok {
		return s, false
	}
	s := id
	if len(id) > compactIDLen {
		if suffix := id[len(id)-compactIDLen:]; c.owner[suffix] == "" {
			s = suffix
		}
	}
	// a short raw ID may equal a suffix already handed out
	for n := 1; c.owner[s] != ""; n++ {
		s = fmt.Sprintf("%s~%d", id, n)
	}
	c.short[id] = s
	c.owner[s] = id
	return s, true
}

func amount(row helper.Row, col string) (float64, error) {
	s := row.Field(col)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func sum(row helper.Row, cols ...string) (float64, error) {
	var total float64
	for _, c := range cols {
		v, err := amount(row, c)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", c, err)
		}
		total += v
	}
	return total, nil
}

func costString(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// lineItemCost derives usage and cost for a line item by its raw type.
func lineItemCost(typ string, row helper.Row) (usg, cost string, err error) {
	var v float64
	switch typ {
	case "DiscountedUsage":
		usg = row.Field("lineItem/UsageAmount")
		v, err = sum(row, "reservation/AmortizedUpfrontCostForUsage", "reservation/RecurringFeeForUsage")
	case "SavingsPlanCoveredUsage":
		usg = row.Field("lineItem/UsageAmount")
		v, err = sum(row, "savingsPlan/SavingsPlanEffectiveCost")
	case "RIFee":
		usg = row.Field("reservation/UnusedQuantity")
		v, err = sum(row, "reservation/UnusedAmortizedUpfrontFeeForBillingPeriod", "reservation/UnusedRecurringFee")
	case "SavingsPlanRecurringFee":
		var total, used float64
		if total, err = amount(row, "savingsPlan/TotalCommitmentToDate"); err == nil {
			used, err = amount(row, "savingsPlan/UsedCommitment")
		}
		v = total - used
	default:
		usg = row.Field("lineItem/UsageAmount")
		v, err = sum(row, "lineItem/UnblendedCost", "reservation/RecurringFeeForUsage")
	}
	if err != nil {
		return "", "", err
	}
	if usg != "" {
		if _, err := strconv.ParseFloat(usg, 64); err != nil {
			return "", "", fmt.Errorf("usage amount: %w", err)
		}
	}
	return usg, costString(v), nil
}

func resourceID(rid string) string {
	if strings.HasPrefix(rid, "arn:") {
		return rid[strings.LastIndex(rid, ":")+1:]
	}
	return rid
}

// curTags collects resource tag columns; user-defined tags lose their "user:"
// prefix while provider tags keep theirs.
func curTags(row helper.Row) []tags.Tag {
	names := row.Header(func(n string) bool { return strings.HasPrefix(n, curTagPrefix) })
	sort.Strings(names)
	raw := make([]tags.Tag, 0, len(names))
	for _, n := range names {
		key := strings.TrimPrefix(strings.TrimPrefix(n, curTagPrefix), curUserPrefix)
		raw = append(raw, tags.Pair(key, row.Field(n)))
	}
	return raw
}

type curFetch struct {
	m       *CURLineItems
	env     *gopher.Env
	w       *record.Writer
	ids     *idCache
	skipped int
}

func (f *curFetch) handle(section string, row helper.Row) error {
	typ := row.Field("lineItem/LineItemType")
	code, skip := f.env.Lookup.LineItemType(typ)
	if skip {
		return nil
	}
	usg, cost, err := lineItemCost(typ, row)
	if err != nil {
		f.skipped++
		logging.Debug("Skipping unparseable line item", map[string]interface{}{
			"model": f.m.Name(),
			"id":    row.Field("identity/LineItemId"),
			"error": err.Error(),
		})
		return nil
	}

	id, first := f.ids.get(row.Field("identity/LineItemId"))
	rec := curRecord{
		ID:   id,
		Hour: row.Field("lineItem/UsageStartDate"),
		Usg:  usg,
		Cost: cost,
	}
	if first {
		t := f.env.Lookup
		acct := row.Field("lineItem/UsageAccountId")
		utyp, abbrRegion := t.UsageType(row.Field("lineItem/UsageType"))
		rec.Acct = acct
		rec.Typ = code
		rec.Svc = t.Service(row.Field("product/ProductName"))
		rec.UTyp = utyp
		rec.UOp = t.Operation(row.Field("lineItem/Operation"))
		rec.Reg = row.Field("product/region")
		if rec.Reg == "" {
			rec.Reg = abbrRegion
		}
		rec.RID = resourceID(row.Field("lineItem/ResourceId"))
		rec.Desc = t.Description(row.Field("lineItem/LineItemDescription"))
		rec.Tag = renderTags(f.env, acct, curTags(row))
	}
	return f.w.Emit(section, record.Of(rec))
}

// Fetch implements Model interface
func (m *CURLineItems) Fetch(ctx context.Context, env *gopher.Env, w *record.Writer) error {
	s := env.Settings
	if s.BinDir == "" {
		return fmt.Errorf("no bin directory for %s", m.Name())
	}
	if s.AWS == nil || s.AWS.CUR == nil || s.AWS.CUR.Bucket == "" {
		return fmt.Errorf("no AWS CUR configuration for %s", m.Name())
	}

	f := &curFetch{m: m, env: env, w: w, ids: newIDCache()}
	args := []string{s.AWS.CUR.Bucket, s.AWS.CUR.Label}
	err := env.Helper.Run(ctx, helper.Path(s.BinDir, curHelper), args,
		helper.Protocol{HeaderPrefix: curHeader, Quoted: true}, f.handle)
	if f.skipped > 0 {
		logging.Warn("Skipped unparseable line items", map[string]interface{}{
			"model":   m.Name(),
			"skipped": f.skipped,
		})
	}
	return err
}
