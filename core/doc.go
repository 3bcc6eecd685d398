// Package core holds the shared data model of the Lucas orchestration
// engine: typed conversation messages, the mutable turn State threaded
// through every graph step, and the RoutingToken variant that maps raw
// tool-result strings onto graph transitions.
package core
