// Package auth obtains bearer credentials for the Azure Cognitive Services
// API. Two interchangeable providers implement CredentialProvider: the
// interactive OAuth2 device code flow (RFC 8628) against the Microsoft
// identity platform, and a manual provider wrapping a pre-obtained token.
package auth
