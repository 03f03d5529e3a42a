// Package notifications delivers push notifications for wizard milestones
// via ntfy. When no topic is configured a noop implementation is used.
package notifications
