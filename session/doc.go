// Package session houses conversation session storage. A session carries
// the cross-turn message history and plugin context handed back into the
// engine on the next turn. Only implementations live here; the facade
// decides which backend to wire, so additional backends (Redis, Postgres,
// etc.) can be added without changing any calling code.
package session
