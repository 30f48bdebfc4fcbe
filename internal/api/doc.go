// Package api exposes the task board over HTTP: chi routes, request decoding
// and validation, and the mapping of service errors to status codes.
package api
