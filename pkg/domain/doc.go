/*
Package domain contains the core data model shared by every parley package.

It is kept pure and free of I/O so the compiler, the interpreter and the
persistence adapters can all depend on it.

# Key Entities

  - Value: a typed variable value (int, float, bool, text or gender).
  - State: the saved runtime snapshot of a dialogue (position, variables, choices taken).
  - Session: a State bound to the script it runs, as persisted by stores.
  - Diagnostic: a message produced while compiling a script.
*/
package domain
