// Package events defines the review request domain events, the envelope
// codec used by event log backends, and the Filter shared by every fold,
// projection and subscription.
package events
