// Package lock provides a Redis backed mutex for serializing work on a key
// (for example every request touching the same login challenge).
package lock
