package metrics

import "time"

type Metrics interface {
	// Unit of work
	RecordScopeOutcome(outcome string, duration time.Duration)
	RecordSessionOpened(factory string)
	ObserveQueryDuration(entity, operation string, success bool, duration time.Duration)
	RecordUseCaseExecution(useCaseName string, success bool, duration time.Duration)

	// Infrastructure (HTTP & gRPC)
	ObserveHTTPRequestDuration(method, path, statusCode string, duration float64)
	ObserveGRPCRequestDuration(service, method, code string, duration float64)

	// Lookups and events
	IncCacheHit(cacheType string)
	IncCacheMiss(cacheType string)
	IncEventsDispatched(eventName, status string)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordScopeOutcome(string, time.Duration)                   {}
func (Nop) RecordSessionOpened(string)                                 {}
func (Nop) ObserveQueryDuration(string, string, bool, time.Duration)   {}
func (Nop) RecordUseCaseExecution(string, bool, time.Duration)         {}
func (Nop) ObserveHTTPRequestDuration(string, string, string, float64) {}
func (Nop) ObserveGRPCRequestDuration(string, string, string, float64) {}
func (Nop) IncCacheHit(string)                                         {}
func (Nop) IncCacheMiss(string)                                        {}
func (Nop) IncEventsDispatched(string, string)                         {}
