// Package httpclient is a small JSON-over-HTTP client shared by the outbound
// integrations (CRM, bank linking). It sets static headers, applies a timeout
// and surfaces non-2xx answers as *StatusError.
package httpclient
