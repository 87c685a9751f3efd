// Package voter defines the values exchanged during pre-verification.
//
// A voter is identified on this device by an opaque ID written once at
// registration time. Pre-verification exchanges that ID with the
// verification service for a short-lived Token, which is stored locally and
// forwarded as-is; this package never interprets its contents.
package voter
