// Package service contains the use cases of the task board. Services
// orchestrate the stores defined in internal/store inside transactions,
// apply the access rules from internal/domain and emit domain events.
//
// Every operation that depends on who is asking receives the caller
// explicitly as a *domain.User. Callers are resolved once per request by the
// authentication middleware; services never look them up from ambient state.
//
// Visibility failures surface as store.ErrNotFound so that the existence of
// another user's task is never revealed. Operations on a visible resource
// that the caller may not perform return ErrForbidden.
package service
