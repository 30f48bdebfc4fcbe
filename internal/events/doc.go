// Package events carries domain events from services to the components that
// react to them.
//
// Services publish an Event through an EventEmitter after their transaction
// commits; handlers such as the notification handler subscribe without the
// services knowing about them. Delivery is synchronous and in-process.
package events
