// Package notify broadcasts conversation change events to listeners.
//
// The Broadcaster fans out ChangeEvents (list changed, metadata changed,
// conversation deleted) to subscribers over buffered channels. Publishing
// never blocks: events for a slow subscriber are dropped rather than
// stalling the deletion pipeline.
package notify
