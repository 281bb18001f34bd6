/*
Package target models build targets as typed, immutable field records.

A target is an Address plus the field values of its declaration, validated
against the closed schema of its Kind. Kinds form a fixed enumeration that is
registered once per session; field access is a checked lookup that fails for
fields absent from the kind's schema rather than silently returning nothing.

The Index maps addresses to targets, including the file-level targets that
fine-grained generator kinds produce for every source file their globs match.
*/
package target
