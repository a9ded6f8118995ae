// Package invoke implements the validate-then-dispatch sequence shared by
// every facade: check arguments, send one descriptor, unwrap the payload.
package invoke

import (
	"context"
	"errors"

	"github.com/zcatalyst/catalyst-go-sdk/core"
	"github.com/zcatalyst/catalyst-go-sdk/validate"
)

// Send validates with check and dispatches req. Validation failures are
// returned tagged with component before req reaches the requester;
// transport errors come back unchanged.
func Send(ctx context.Context, r core.Requester, component string, check func() error, req *core.Request) (*core.Response, error) {
	if err := validate.Wrap(component, check); err != nil {
		return nil, err
	}
	if req.Service == "" {
		req.Service = core.ServiceBaaS
	}
	if req.Role == "" {
		req.Role = core.RoleAdmin
	}
	return r.Send(ctx, req)
}

// Call is Send followed by decoding the envelope payload into T.
func Call[T any](ctx context.Context, r core.Requester, component string, check func() error, req *core.Request) (T, error) {
	var out T
	resp, err := Send(ctx, r, component, check, req)
	if err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, tag(err, component)
	}
	return out, nil
}

func tag(err error, component string) error {
	if cerr, ok := core.AsError(err); ok {
		return cerr.WithComponent(component)
	}
	if errors.Is(err, core.ErrInvalidResponse) {
		return core.NewError(core.CodeInvalidResponse, "response envelope has no payload", nil).
			Wrap(err).
			WithComponent(component)
	}
	return err
}
