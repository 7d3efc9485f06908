// Package hmrc is the client for the HMRC VAT (MTD) API.
//
// Every call obtains a bearer token from the token provider, attaches the
// caller's fraud-prevention headers and performs exactly one HTTP request.
// Upstream failures are returned as *APIError carrying the status and raw
// body so the local API can pass them through unchanged. Successful bodies
// are returned as raw JSON. A successful return submission is recorded in
// the receipt log before the call returns.
package hmrc
