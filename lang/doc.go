// Package lang implements the psh scripting language: a tokenizer, a parser
// for statements, expressions, and shell command pipelines, and a
// tree-walking interpreter.
//
// # Values
//
// Every runtime value implements [Value]. Scalars ([Nil], [Bool], [Num],
// [String], [Range]) are copied on assignment. Containers ([*Vec], [*Dict])
// and functions ([*Func]) are handles, so a vec passed to a function and
// mutated there is mutated for the caller too.
//
// # Scopes
//
// Variables live in a [Stack] of frames. Blocks and loops push a frame on
// entry and pop it on exit. Closures capture the frame chain itself rather
// than a copy, so assignments made after a closure is created are visible
// to it, and a closure keeps its frames alive after they are popped.
//
// # Commands
//
// A statement beginning with $ or an expression $( ... ) is a shell
// command. Commands are composed with operators, from loosest to tightest:
//
//	||                  run rhs if lhs failed
//	&&                  run rhs if lhs succeeded
//	|  *|  &|           pipe stdout, stderr, or both into rhs
//	>  *>  &>  <  *<  &<  redirect to or from the file named by rhs
//
// Words are split on whitespace. Quoted strings, {expr} interpolations,
// and nested $( ) captures concatenate with adjacent text into one word.
// Bindings declared with export are added to the environment of every
// launched process. The exit status of the last command is bound to status.
//
// # Errors
//
// Syntax errors are *[ParseError] values carrying the offending position
// and source line. Evaluation errors are *[Error] values matching one of
// the Err sentinels with [errors.Is].
package lang
