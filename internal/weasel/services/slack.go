// Package services holds the delivery services registered with weasel.
package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"cmon/internal/logging"
	"cmon/internal/settings"
	"cmon/internal/weasel"

	"github.com/slack-go/slack"
)

const defaultTarget = "default"

type alert struct {
	Profile string `json:"profile"`
	Short   string `json:"short"`
}

// webhook posts messages to one Slack incoming webhook.
type webhook struct {
	url    string
	client *http.Client
}

func (h *webhook) send(ctx context.Context, text string) error {
	return slack.PostWebhookCustomHTTPContext(ctx, h.url, h.client, &slack.WebhookMessage{Text: text})
}

// SlackHooks posts alert records to Slack channels through incoming webhooks.
type SlackHooks struct{}

func init() {
	weasel.DefaultRegistry.MustRegister(&SlackHooks{})
}

func (s *SlackHooks) Name() string        { return "hook.slack" }
func (s *SlackHooks) Description() string { return "write Slack messages to channels" }

// channel resolves the Slack channel for an alert profile, falling back to
// the default profile.
func channel(profiles map[string]settings.AlertProfile, profile string) (string, error) {
	p, ok := profiles[profile]
	if !ok {
		if p, ok = profiles[defaultTarget]; !ok {
			return "", fmt.Errorf("no alert profile %q and no default profile", profile)
		}
	}
	return p.Slack, nil
}

// Deliver implements Service interface
func (s *SlackHooks) Deliver(ctx context.Context, env *weasel.Env) error {
	cfg := env.Settings
	if cfg.Alerts == nil || len(cfg.Alerts.Profiles) == 0 {
		return fmt.Errorf("no alerts profiles found for %s", s.Name())
	}
	if cfg.Slack == nil || len(cfg.Slack.Webhooks) == 0 {
		return fmt.Errorf("no Slack webhooks found for %s", s.Name())
	}
	profiles, hooks := cfg.Alerts.Profiles, cfg.Slack.Webhooks

	clients := make(map[string]*webhook)
	var read, sent int
	err := env.Records(ctx, func(line []byte) error {
		var a alert
		if err := weasel.Decode(line, &a); err != nil {
			return err
		}
		read++
		ch, err := channel(profiles, a.Profile)
		if err != nil {
			return err
		}
		h, ok := clients[ch]
		if !ok {
			url, found := hooks[ch]
			if !found {
				if url, found = hooks[defaultTarget]; !found {
					return fmt.Errorf("no Slack webhook for channel %q and no default webhook", ch)
				}
			}
			h = &webhook{url: url, client: env.HTTPClient}
			clients[ch] = h
		}
		if err := h.send(ctx, a.Short); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Warn("Slack delivery failed", map[string]interface{}{
				"channel": ch,
				"error":   err.Error(),
			})
			return nil
		}
		sent++
		return nil
	})
	if err != nil {
		return err
	}
	logging.DeliveryComplete(s.Name(), read, sent)
	return env.Println(strconv.Itoa(sent))
}
