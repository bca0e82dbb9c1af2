// Package drive implements the remote store client over the Google
// Drive v3 API. Work item folders carry their metadata as
// appProperties; the Changes API provides the per-root change feed,
// with 410 GONE as the token expiry signal.
package drive
