// Package receipts keeps the local log of VAT return submissions.
//
// The log is a JSON array in receipts.json. Each element is the upstream
// submission response with the VRN and period key prepended, so the first
// keys of every record are always "vrn" and "periodKey". Records are only
// appended, never edited or deduplicated.
package receipts
