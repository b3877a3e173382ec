// Package config loads and saves the cogauth profile file.
//
// A profile names one way of obtaining credentials: a device code flow
// against a tenant, or a pre-obtained token read from a flag, an environment
// variable, a file or the OS keychain. Command line flags and COGAUTH_*
// environment variables take precedence over the selected profile.
package config
