// Package delivery computes delivery schedules, next delivery dates, lifecycle
// status and prices for subscriptions. Every function is pure: callers pass
// "now" explicitly and persist the results themselves.
package delivery
