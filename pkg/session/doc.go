/*
Package session implements session management and persistence orchestration.

A Manager serializes every read-modify-write of a dialogue session behind a
per-session mutex, optionally backed by a distributed lock so several
replicas can share one store. Locks are reference counted and dropped as
soon as nobody waits on them.
*/
package session
