// Package push delivers notifications to web and mobile clients of a
// Catalyst project.
package push

import (
	"context"
	"net/url"

	"github.com/zcatalyst/catalyst-go-sdk/core"
	"github.com/zcatalyst/catalyst-go-sdk/internal/invoke"
	"github.com/zcatalyst/catalyst-go-sdk/validate"
)

// Component tags every error raised by this package.
const Component = core.ComponentPush

// PushNotification hands out the web and mobile senders.
type PushNotification struct {
	requester core.Requester
}

// New creates a push notification facade over the given requester.
func New(r core.Requester) *PushNotification {
	return &PushNotification{requester: r}
}

// Web returns the sender for browser notifications.
func (p *PushNotification) Web() *WebNotification {
	return &WebNotification{requester: p.requester}
}

// Mobile returns the sender for the mobile app registered as appID.
// appID is validated on every send.
func (p *PushNotification) Mobile(appID string) *MobileNotification {
	return &MobileNotification{requester: p.requester, appID: appID}
}

// WebNotification sends notifications to signed-in web users.
type WebNotification struct {
	requester core.Requester
}

type webRequest struct {
	Recipients []string `json:"recipients"`
	Message    string   `json:"message"`
}

// SendNotification delivers message to every recipient (user ids or emails).
//
// Example:
//
//	ok, err := push.New(requester).Web().SendNotification(ctx, "Build finished", []string{"alice@example.com"})
func (w *WebNotification) SendNotification(ctx context.Context, message string, recipients []string) (bool, error) {
	check := validate.All(
		func() error { return validate.NonEmptyString("message", message) },
		func() error { return validate.NonEmptyStringArray("recipients", recipients) },
	)
	_, err := invoke.Send(ctx, w.requester, Component, check, &core.Request{
		Method: core.MethodPost,
		Path:   "/project-user/notify",
		Body:   webRequest{Recipients: recipients, Message: message},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// MobileNotification sends notifications to one mobile app.
type MobileNotification struct {
	requester core.Requester
	appID     string
}

// AppID returns the target app id.
func (m *MobileNotification) AppID() string {
	return m.appID
}

type mobileRequest struct {
	Recipients  []string `json:"recipients"`
	PushDetails Details  `json:"push_details"`
}

// SendIOSNotification delivers details to recipient's iOS devices.
func (m *MobileNotification) SendIOSNotification(ctx context.Context, details Details, recipient string) (bool, error) {
	return m.send(ctx, details, recipient, false)
}

// SendAndroidNotification delivers details to recipient's Android devices.
func (m *MobileNotification) SendAndroidNotification(ctx context.Context, details Details, recipient string) (bool, error) {
	return m.send(ctx, details, recipient, true)
}

func (m *MobileNotification) send(ctx context.Context, details Details, recipient string, android bool) (bool, error) {
	check := validate.All(
		func() error { return validate.NonEmptyString("app_id", m.appID) },
		func() error { return validate.ObjectHasProperties("push_details", details.fields(), "message") },
		func() error { return validate.NonEmptyString("recipient", recipient) },
	)

	req := &core.Request{
		Method: core.MethodPost,
		Path:   "/push-notification/" + url.PathEscape(m.appID) + "/project-user/notify",
		Body:   mobileRequest{Recipients: []string{recipient}, PushDetails: details},
	}
	if android {
		req.Query = url.Values{"isAndroid": {"true"}}
	}

	if _, err := invoke.Send(ctx, m.requester, Component, check, req); err != nil {
		return false, err
	}
	return true, nil
}

// IsError reports whether err was raised by the push facade.
func IsError(err error) bool {
	return core.IsComponent(err, Component)
}
