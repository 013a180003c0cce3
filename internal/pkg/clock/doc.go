// Package clock supplies the time source for expiry arithmetic: a UTC system
// clock for production and a manually advanced clock for tests.
package clock
