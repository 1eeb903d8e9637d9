// Package acl translates downstream service payloads into domain types.
//
// Adapters here are the only code that sees an external DTO. Each one
// embeds [BaseAdapter], decodes the response into an unexported struct,
// validates it and returns a domain value. Transport and status failures
// come back as domain errors:
//
//   - 404 → [domain.ErrNotFound]
//   - 409 → [domain.ErrConflict]
//   - 400, 422 and other 4xx → [domain.ErrValidation]
//   - 401, 403 → [domain.ErrForbidden]
//   - 429, 5xx, an open circuit or exhausted retries → [domain.ErrUnavailable]
//
// [AccountClient] resolves customer accounts against the CRM directory.
package acl
