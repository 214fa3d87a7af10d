/*
Package ports defines the driven ports (interfaces) for the parley engine.

These interfaces decouple the dialogue runtime from external implementations,
allowing sessions to live in various storage backends and scripts to come from
any source.

# Key Interfaces

  - ScriptSource: Responsible for reading script text (e.g., from a directory or memory).
  - StateStore: Responsible for persisting and loading dialogue Sessions.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
