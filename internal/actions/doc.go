// Package actions parses free-text NSE corporate-action notices into typed,
// quantified events.
//
// The purpose text of a notice is inherently ambiguous: a single record can
// carry a cash amount, a share ratio, and any number of keywords. Parsing
// extracts the candidate quantities; classification resolves them to one
// action type through an explicit, ordered precedence policy so the policy
// itself is testable independently of the pattern matching.
package actions
