// Package notify delivers best-effort email notifications about task changes.
//
// Handler converts domain events into Messages, Dispatcher queues them on a
// bounded channel drained by a worker pool, and a Sender performs delivery.
// Nothing here ever fails the request that triggered the notification.
package notify
