// Package browser defines the page-automation capability the crawler
// drives and provides its chromedp implementation.
//
// # Page
//
// Page is the narrow set of actions the crawler needs: navigate, wait for
// an element, query elements, click, type and evaluate a script. The
// crawler never holds live DOM handles. Query takes a snapshot of the
// rendered document and answers CSS selectors over it with goquery, so the
// same element code serves the real browser and the scripted page in
// package browsertest.
//
// # Progressive Scroll
//
// Many listing pages load their content lazily while the user scrolls.
// Scroller moves the viewport down in small steps until it has covered the
// page height, re-reading the height after every step because it grows as
// content loads.
//
// # Errors
//
// Failures are reported with the sentinel errors in errors.go. Navigation
// failures and timeouts are retryable; a missing element is not.
package browser
