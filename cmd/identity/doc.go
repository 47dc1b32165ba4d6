// Package identity defines spendsense's security principal and the
// credential store boundary.
//
// It owns the User record (unique case-insensitive email, name, one-way
// password hash, role labels), email normalization, and the pure role/
// ownership decision function used by the authorization middleware.
//
// Transport and token handling are intentionally out of scope here.
package identity
