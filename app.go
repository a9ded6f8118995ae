package catalyst

import (
	"github.com/zcatalyst/catalyst-go-sdk/cache"
	"github.com/zcatalyst/catalyst-go-sdk/core"
	"github.com/zcatalyst/catalyst-go-sdk/mail"
	"github.com/zcatalyst/catalyst-go-sdk/push"
	"github.com/zcatalyst/catalyst-go-sdk/transport"
	"github.com/zcatalyst/catalyst-go-sdk/zcql"
)

// App bundles the facades of one project around a shared requester.
type App struct {
	requester core.Requester

	cache *cache.Cache
	email *mail.Email
	push  *push.PushNotification
	zcql  *zcql.ZCQL
}

// New creates an App that sends every request through r.
func New(r core.Requester) *App {
	return &App{
		requester: r,
		cache:     cache.New(r),
		email:     mail.New(r),
		push:      push.New(r),
		zcql:      zcql.New(r),
	}
}

// NewFromConfig creates an App backed by the HTTP transport.
func NewFromConfig(cfg *transport.Config) (*App, error) {
	t, err := transport.New(cfg)
	if err != nil {
		return nil, err
	}
	return New(t), nil
}

// Requester returns the requester the facades share.
func (a *App) Requester() core.Requester {
	return a.requester
}

// Cache returns the cache facade.
func (a *App) Cache() *cache.Cache {
	return a.cache
}

// Email returns the mail facade.
func (a *App) Email() *mail.Email {
	return a.email
}

// PushNotification returns the push notification facade.
func (a *App) PushNotification() *push.PushNotification {
	return a.push
}

// ZCQL returns the query facade.
func (a *App) ZCQL() *zcql.ZCQL {
	return a.zcql
}

// Close releases the requester's resources if it holds any.
func (a *App) Close() error {
	if c, ok := a.requester.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
