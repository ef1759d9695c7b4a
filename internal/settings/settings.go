// Package settings loads the JSON settings document shared by cmon agents.
package settings

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"cmon/internal/tags"
)

// StdinSource reads the settings from the first line of the agent's input.
const StdinSource = "~stdin"

var (
	// ErrNotFound is returned when the settings source does not exist.
	ErrNotFound = errors.New("settings not found")
	// ErrInvalid is returned when the settings document is not valid JSON.
	ErrInvalid = errors.New("invalid settings")
)

// Settings is the decoded settings document. Every section is optional; each
// consumer checks for the sections it needs.
type Settings struct {
	BinDir   string               `json:"BinDir"`
	AWS      *AWS                 `json:"AWS"`
	TagRules map[string]tags.Rule `json:"TagRules"`
	K8s      *K8s                 `json:"K8s"`
	Alerts   *Alerts              `json:"Alerts"`
	Slack    *Slack               `json:"Slack"`
}

// AWS describes the accounts and regions fetched by the AWS models.
type AWS struct {
	// Accounts maps account ID to region to sampling fraction.
	Accounts map[string]map[string]float64 `json:"Accounts"`
	// Profiles maps account ID to credential profile; absent entries use the ID.
	Profiles map[string]string `json:"Profiles"`
	// TagRules maps account ID to a rule-set name in Settings.TagRules.
	TagRules map[string]string `json:"TagRules"`
	CUR      *CUR              `json:"CUR"`
}

// CUR locates the cost and usage report.
type CUR struct {
	Bucket string `json:"Bucket"`
	Label  string `json:"Label"`
}

// K8s lists the cluster contexts passed to the Kubernetes helper.
type K8s struct {
	Contexts []string `json:"Contexts"`
}

// Alerts maps alert profiles to their delivery targets.
type Alerts struct {
	Profiles map[string]AlertProfile `json:"Profiles"`
}

// AlertProfile names the channel for each sink.
type AlertProfile struct {
	Slack string `json:"slack"`
}

// Slack maps channels to incoming-webhook URLs.
type Slack struct {
	Webhooks map[string]string `json:"Webhooks"`
}

// Load reads settings from source. For StdinSource the first line of in is
// consumed, leaving the rest of in for records.
func Load(in *bufio.Reader, source string) (*Settings, error) {
	var data []byte
	if source == StdinSource {
		line, err := in.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("error reading settings: %w", err)
		}
		if len(strings.TrimSpace(string(line))) == 0 {
			return nil, fmt.Errorf("%w: empty input", ErrInvalid)
		}
		data = line
	} else {
		b, err := os.ReadFile(source)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, source)
			}
			return nil, fmt.Errorf("error reading settings: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes a settings document.
func Parse(data []byte) (*Settings, error) {
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return &s, nil
}

// Profile returns the credential profile for account.
func (a *AWS) Profile(account string) string {
	if p := a.Profiles[account]; p != "" {
		return p
	}
	return account
}

// SortedAccounts returns account IDs in ascending order.
func (a *AWS) SortedAccounts() []string {
	accts := make([]string, 0, len(a.Accounts))
	for acct := range a.Accounts {
		accts = append(accts, acct)
	}
	sort.Strings(accts)
	return accts
}

// SortedRegions returns the regions of account in ascending order.
func (a *AWS) SortedRegions(account string) []string {
	regions := make([]string, 0, len(a.Accounts[account]))
	for r := range a.Accounts[account] {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions
}

// Tags compiles the tag-rule sets for this invocation.
func (s *Settings) Tags() *tags.Set {
	var selectors map[string]string
	if s.AWS != nil {
		selectors = s.AWS.TagRules
	}
	return tags.NewSet(s.TagRules, selectors)
}
