// Package preverify issues pre-verification tokens.
//
// Issuer.Generate is a linear, single-pass workflow:
//
//	read voter id → request token → store token → mark voter PRE_VERIFIED
//
// A device without a registered voter is not an error: Generate returns
// OutcomeNotRegistered without contacting the verification service. Any
// later failure stops the run and is returned as a *StageError; steps that
// already completed are not rolled back. A stored but unconfirmed token is
// replaced by the next successful run, so callers retry by calling Generate
// again.
//
// Generate must not run concurrently for the same voter. Storage offers no
// compare-and-swap; overlapping runs end with one of the issued tokens stored.
package preverify
