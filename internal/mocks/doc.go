// Package mocks provides test doubles shared by the service, API and command
// tests.
//
// Memory is an in-memory database whose stores implement the store
// interfaces with the same ordering, uniqueness and reference rules as the
// Postgres stores, so service behavior can be tested without a database.
// Task listings are filtered with filter.MatchAll over the same predicates
// the Postgres store renders to SQL.
//
// The remaining mocks follow the function-field pattern:
//
//	jwt := &mocks.MockJWTService{
//	    GenerateTokenFn: func(ctx context.Context, userID int64) (string, error) {
//	        return "mocked-token", nil
//	    },
//	}
package mocks
