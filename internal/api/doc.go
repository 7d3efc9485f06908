// Package api is the local HTTP surface of vatfiler.
//
// It exposes the authorization endpoints (/connect and the callback), the
// VAT API proxy routes under /api, the receipt log, connection status, the
// spreadsheet preview and a health check.
//
// Handlers depend on small interfaces (VATService, TokenStatus,
// ReceiptLister, HeaderBuilder) rather than concrete packages so they can
// be tested with fakes.
//
// # Error Mapping
//
// Errors are translated into HTTP responses in one place, writeError:
//
//   - oauth.ErrNotConnected: 401 {"detail":"Not connected to HMRC yet."}
//   - *oauth.UpstreamAuthError and *hmrc.APIError: the upstream status and
//     body, unchanged
//   - *RequestError: 400 {"detail": ...}
//   - transport failures: 502; anything else: 500
package api
