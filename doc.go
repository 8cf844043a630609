// Package memberauth is the client-side session and onboarding engine for a
// sports-federation membership platform.
//
// The package owns the authentication lifecycle (login, registration, session
// restore, profile refresh, logout) with durable credential persistence, the
// role-based navigation resolver, the route guard, and the multi-step
// registration draft manager. The remote account API and the durable stores
// are consumed through narrow interfaces ([AccountAPI], [CredentialStore],
// [DraftStore]) so the engine stays independent of transport and storage
// choices; ready-made implementations live in the api and store subpackages.
//
// An [Engine] is assembled with the fluent [Builder]:
//
//	engine, err := memberauth.New().
//	    WithAccountAPI(apiClient).
//	    WithCredentialStore(creds).
//	    WithDraftStore(drafts).
//	    Build()
//
// Engine instances are safe for concurrent use. When login or register calls
// overlap, each completed remote response is applied in completion order and
// the last applied response wins; in-flight calls are never cancelled.
package memberauth
