// Package jwt issues and verifies the HS512 access tokens handed out once a
// login (with or without the email code) completes, and carries the
// verified claims through the request context.
package jwt
