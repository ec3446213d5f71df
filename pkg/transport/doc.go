// Package transport implements the JSON-over-HTTPS client for the remote
// configuration and campaign API.
//
// Every request carries the x-api-key header and is scoped under the app id
// path prefix. The app-data fetch retries up to five times with a fixed
// delay, switching to the fallback path variant from the third attempt;
// exhausting all attempts surfaces ErrLoadExhausted, which the client
// treats as a terminal load failure. All other operations perform a single
// attempt: retry and buffering policy for event logging lives in the
// eventlog package, and backend-delegated assignment degrades to the
// control variant in the campaign manager instead of retrying here.
package transport
