// Package server provides HTTP routing, middleware, and the authorization flow endpoints.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// The chain is built once when middleware is added, so stateful middleware such as [RateLimit] keeps
// its state across requests.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
// A request with the wrong method gets 405 and the failure envelope.
//
// # Flow Endpoints
//
// [FlowHandler] serves the authorization code flow:
//
//	GET /login     302 to the provider authorize page
//	GET /callback  302 to /access, or 400 with the failure envelope
//	GET /access    302 to /, or 500
//	GET /refresh   302 to /, or 500
//	GET /          200 with the token set, or 302 to /login
//
// Every JSON body is a [Result]: {"success", "message", "data"}.
// Unhandled failures never leak details to the client; they are logged with the request id.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which returns a list of [Route] values,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
