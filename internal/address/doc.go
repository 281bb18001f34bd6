/*
Package address provides the canonical identifier for build targets.

An address names either a directory-level target (`path/to/dir:name`), a
target generated from it (`path/to/dir:name#generated`), or a file-level
target owned by a generator (`path/to/dir/file.ext:name`). Parsing happens in
two stages: a spec string is first parsed into an Input, which is then bound
as a directory or file address depending on what the path component turned
out to be on disk.

This package enforces the address grammar and centralizes all formatting and
parsing logic; nothing else in the system manipulates spec strings directly.
*/
package address
