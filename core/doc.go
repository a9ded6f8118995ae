// Package core holds the contracts shared by every Catalyst facade: the
// request descriptor handed to a transport, the response envelope that
// comes back, the Requester interface the facades depend on, and the
// structured error raised by local validation.
//
// Facades never construct HTTP requests. They validate their arguments,
// build a Request and pass it to an injected Requester:
//
//	resp, err := requester.Send(ctx, &core.Request{
//	    Method:  core.MethodGet,
//	    Path:    "/segment",
//	    Service: core.ServiceBaaS,
//	    Role:    core.RoleAdmin,
//	})
//	if err != nil {
//	    return err
//	}
//	var segments []cache.SegmentDetails
//	err = resp.Decode(&segments)
//
// Any type with a Send method can stand in for the transport, which keeps
// facades testable against a stub.
package core
