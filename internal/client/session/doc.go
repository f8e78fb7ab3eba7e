// Package session owns the client's notion of "who is signed in".
//
// State holds the current identity and the verifying flag and is the only
// place they change. Bootstrapper decides, once per start, whether a stored
// credential still names a live account; it never leaves verifying stuck
// because every attempt is bounded by a deadline and every result is
// checked against the current attempt before it is applied. Manager
// composes both with the identity service client for login, registration,
// logout and identity refresh.
package session
