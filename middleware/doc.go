// Package middleware exposes HTTP adapters for the memberauth route guard.
//
// [Guard] wraps an http.Handler and evaluates [memberauth.Engine.Authorize]
// on every request, so a logout between two requests immediately revokes
// access to protected handlers. The ginmw subpackage provides the same
// guard for gin applications.
//
// This package translates HTTP semantics into Engine calls; all access
// decisions are delegated to the engine.
package middleware
