// Package expr parses and evaluates the expressions used by dialogue scripts
// in [set], [if] and [event] lines.
//
// Variables are written in braces ({Name}); literals cover ints, floats,
// true/false, quoted text and the genders masculine, feminine and neuter.
package expr
