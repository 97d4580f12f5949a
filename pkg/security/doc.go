// Package security groups the protections of the conduit HTTP API:
//
//   - auth: API key authentication of /v1 routes
//   - tls: HTTPS with certificate reload and optional client certificates
//   - secrets: ${secret:name} resolution for provider and server keys
package security
