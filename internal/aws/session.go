package aws

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"

	"cmon/internal/logging"
)

// NewSession creates a new AWS session with the specified profile and region
func NewSession(profile string, region string) (*session.Session, error) {
	cfg := aws.NewConfig()
	if region != "" {
		cfg = cfg.WithRegion(region)
	}

	opts := session.Options{
		Config:            *cfg,
		Profile:           profile,
		SharedConfigState: session.SharedConfigEnable,
	}

	return session.NewSessionWithOptions(opts)
}

// Clients creates service clients for one account in one region.
type Clients interface {
	EC2(account, region string) (ec2iface.EC2API, error)
	RDS(account, region string) (rdsiface.RDSAPI, error)
	CloudWatch(account, region string) (cloudwatchiface.CloudWatchAPI, error)
}

// SessionClients builds clients from shared-config profiles, creating one
// session per profile and copying it per region.
type SessionClients struct {
	profile  func(account string) string
	validate func(profile string) bool
	sessions map[string]*session.Session
}

// NewSessionClients resolves each account to a profile with profile.
func NewSessionClients(profile func(account string) string) *SessionClients {
	return &SessionClients{
		profile:  profile,
		validate: IsValidProfile,
		sessions: make(map[string]*session.Session),
	}
}

func (c *SessionClients) session(account, region string) (*session.Session, error) {
	p := c.profile(account)
	sess, ok := c.sessions[p]
	if !ok {
		if !c.validate(p) {
			return nil, fmt.Errorf("profile %q for account %s not found", p, account)
		}
		var err error
		if sess, err = NewSession(p, ""); err != nil {
			return nil, fmt.Errorf("failed to create AWS session for profile %s: %w", p, err)
		}
		logging.Debug("Created session", map[string]interface{}{
			"account": account,
			"profile": p,
		})
		c.sessions[p] = sess
	}
	return sess.Copy(aws.NewConfig().WithRegion(region)), nil
}

// EC2 implements Clients.
func (c *SessionClients) EC2(account, region string) (ec2iface.EC2API, error) {
	sess, err := c.session(account, region)
	if err != nil {
		return nil, err
	}
	return ec2.New(sess), nil
}

// RDS implements Clients.
func (c *SessionClients) RDS(account, region string) (rdsiface.RDSAPI, error) {
	sess, err := c.session(account, region)
	if err != nil {
		return nil, err
	}
	return rds.New(sess), nil
}

// CloudWatch implements Clients.
func (c *SessionClients) CloudWatch(account, region string) (cloudwatchiface.CloudWatchAPI, error) {
	sess, err := c.session(account, region)
	if err != nil {
		return nil, err
	}
	return cloudwatch.New(sess), nil
}
