// Package cli parses command-line arguments into an application Config and
// a command invocation. It owns flag validation and usage text; everything
// after the flags is handed to the app untouched.
package cli
