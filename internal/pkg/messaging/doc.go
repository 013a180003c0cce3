// Package messaging publishes events to a message broker behind a single
// Publisher interface (Kafka, NATS, NSQ or Google Pub/Sub).
package messaging
