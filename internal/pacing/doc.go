// Package pacing decides how long the crawler waits between browser
// actions.
//
// The reference controller draws each delay uniformly from [1s, 3s) so that
// consecutive actions do not follow a fixed rhythm. Tests use Zero to run
// without waiting. Limited adds a hard cap on navigations per minute on top
// of any controller.
package pacing
