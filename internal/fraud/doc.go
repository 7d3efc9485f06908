// Package fraud builds the HMRC fraud-prevention header set attached to
// every upstream API call.
//
// The values are derived from the incoming local request (client IP and
// user agent), the configured defaults and a device identifier. The
// identifier is either regenerated per process or persisted in the data
// directory, depending on the configured mode.
package fraud
