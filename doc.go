// Package catalyst is a Go client for the Catalyst backend-as-a-service
// platform. It covers the cache, mail, push notification and ZCQL
// services.
//
// Every facade method validates its arguments locally, builds a
// core.Request and hands it to a core.Requester. The SDK ships an HTTP
// requester in the transport package; tests and custom transports can
// supply their own.
//
// # Basic Usage
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//
//	    catalyst "github.com/zcatalyst/catalyst-go-sdk"
//	    "github.com/zcatalyst/catalyst-go-sdk/transport"
//	)
//
//	func main() {
//	    cfg, err := transport.NewConfigFromEnv()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    app, err := catalyst.NewFromConfig(cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    ctx := context.Background()
//	    seg := app.Cache().Segment("2136000000007733")
//	    if _, err := seg.Put(ctx, "session:42", "active", 2); err != nil {
//	        log.Fatal(err)
//	    }
//	    value, err := seg.GetValue(ctx, "session:42")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    log.Println(value)
//	}
//
// # Errors
//
// Argument problems are reported before anything is sent, as a
// *core.Error whose Component names the facade:
//
//	_, err := app.Cache().Segment("").Get(ctx, "")
//	if core.IsValidation(err) {
//	    // fix the input
//	}
//
// Transport failures are returned unchanged; with the HTTP transport they
// are *transport.APIError or *transport.NetworkError.
//
// # Observability
//
// The telemetry package provides a logrus logger, Prometheus and
// OpenTelemetry observers for transport.Config.Observer, and a tracing
// requester decorator:
//
//	reg := prometheus.NewRegistry()
//	obs, _ := telemetry.NewPrometheusObserver(reg, "myapp")
//	t, _ := transport.New(cfg.WithObserver(obs))
//	app := catalyst.New(telemetry.NewTracingRequester(t, nil))
package catalyst
