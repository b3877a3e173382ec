// Package cmd implements the cogauth command tree.
//
// Every command that needs credentials resolves its settings in the same
// order: command line flag, COGAUTH_* environment variable, the selected
// profile of the config file, built-in default. The resolved settings pick
// exactly one auth.CredentialProvider; commands only ever talk to that
// interface.
//
// Sign-in instructions and logs go to stderr, so stdout carries nothing but
// the requested output and can be captured by scripts.
package cmd
