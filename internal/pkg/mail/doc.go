// Package mail sends transactional email. Callers build a Message and hand
// it to a Mail; SMTP is the bundled provider.
package mail
