// Package cloud enumerates the Azure deployment regions cogauth can
// authenticate against and resolves their login endpoints and API scopes.
package cloud
