// Package verifyapi is an HTTP client for the voter verification service.
//
// The service exposes two operations used during pre-verification:
//
//	POST {base}/voters/{id}/pre-verification-token  → {"token": "..."}
//	PUT  {base}/voters/{id}/status                   ← {"status": "PRE_VERIFIED"}
//
// Network-level failures (transport errors, 429 and 5xx responses) are retried
// with exponential backoff. Every logical call sends one Idempotency-Key that
// is reused across its retries; the service is expected to answer duplicate
// token requests for the same voter with the same or an equivalently valid
// token. This client does not verify that assumption.
//
// # Authentication
//
// Deployments that protect the service with OAuth2 client credentials pass
// a clientcredentials.Config:
//
//	client, err := verifyapi.New(baseURL,
//		verifyapi.WithClientCredentials(&clientcredentials.Config{...}),
//	)
package verifyapi
