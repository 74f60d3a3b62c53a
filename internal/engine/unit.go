package engine

import "context"

// Unit is one independently schedulable piece of fan-out work, mapped 1:1 to
// one entity being audited. Run typically issues several GitHub sub-requests
// and assembles them into a single output record.
type Unit struct {
	Key string
	Run func(ctx context.Context) (any, error)
}

// Result is the outcome of one unit.
//
// Payload is the unit's output record, or nil when the unit produced nothing.
// Err records an internal unit failure; such units are degraded, not fatal,
// and siblings keep running.
type Result struct {
	Key     string
	Payload any
	Err     error
}
