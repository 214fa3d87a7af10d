/*
Package script defines the compiled form of a dialogue script: an immutable
arena of nodes joined by typed edges.

Nodes are addressed by index. An edge whose Target is NoTarget ends the
dialogue. A Graph is produced by the compiler and only read afterwards, so a
single Graph is shared by every dialogue running it.
*/
package script
