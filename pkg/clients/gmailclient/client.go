package gmailclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/jakechorley/residency-scheduler/internal/config"
	"github.com/jakechorley/residency-scheduler/pkg/utils"
)

// DefaultSendInterval is the minimum gap between two sends
const DefaultSendInterval = 3 * time.Second

// messageSender sends a raw Gmail message
type messageSender interface {
	send(ctx context.Context, msg *gmail.Message) error
}

type gmailSender struct {
	service *gmail.Service
}

func (g gmailSender) send(ctx context.Context, msg *gmail.Message) error {
	_, err := g.service.Users.Messages.Send("me", msg).Context(ctx).Do()
	return err
}

// Client sends notification emails through the Gmail API
type Client struct {
	sender       messageSender
	ctx          context.Context
	from         string
	interval     time.Duration
	lastSendTime time.Time
	sendMutex    sync.Mutex
}

// NewClient creates a Gmail client from an OAuth token holding the gmail.send scope.
// from may be empty to let Gmail use the authorised account.
func NewClient(ctx context.Context, oauthCfg *config.OAuthClientConfig, token *oauth2.Token, from string) (*Client, error) {
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	service, err := gmail.NewService(ctx, option.WithHTTPClient(oauthConfig.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Client{
		sender:   gmailSender{service: service},
		ctx:      ctx,
		from:     from,
		interval: DefaultSendInterval,
	}, nil
}
