// Package navigator keeps the browsing state of one user session.
//
// A [Navigator] owns a cache of fully processed packages ([Entry]), the
// breadcrumb trail from the session's root package to the current one, and
// a search index over every package loaded in the session.
//
// # States
//
//	Empty --open--> Loading --ok--> Ready
//	                   |              |
//	                   +--error--> previous state (Empty or Ready)
//
// Opening a cached locator moves straight to Ready without fetching,
// deriving or re-indexing.
//
// # Breadcrumbs
//
// The trail is empty exactly when the current package is the root package.
// Entering the root by any route clears it. [Navigator.OpenNestedPackage]
// and [Navigator.Jump] push the current package in the same step that
// changes the locator, so a failed or superseded load leaves no crumb behind.
// [Navigator.GoToBreadcrumb] and [Navigator.GoBack]
// truncate the trail before loading, so a failed load never leaves stale
// forward history.
//
// # Concurrency
//
// Navigators are safe for concurrent use. Each navigation takes a generation
// number and cancels the one in flight. A load that completes after a newer
// navigation started is discarded with code SUPERSEDED; it touches neither
// the cache nor the visible state.
package navigator
