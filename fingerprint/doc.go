// Package fingerprint identifies the client device behind a request.
//
// Transports attach a [Device] (IP, device label, user agent) to the
// request context with [WithDevice]. The [Service] turns it into the two
// values a session needs: a stable hash used as the per-device session key,
// and an encrypted copy stored with the session so listings can show where
// each session lives without keeping the raw IP in the store.
package fingerprint
