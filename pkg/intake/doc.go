// Package intake defines the case snapshot consumed by the decision engine.
//
// # Overview
//
// A CaseSnapshot is a point-in-time record of the structured facts gathered at
// an intake event: the youth's age, the current offense, prior history,
// supervision status, failure-to-appear history, living situation and a small
// set of special flags. Snapshots are built once through New, validated at
// construction, and treated as read-only afterwards. When facts change a new
// snapshot is created with Revise, which links back to the snapshot it
// replaces so that prior snapshots stay available for audit.
//
// # Closed Variants
//
// Offense severity, supervision status and living situation are closed sets.
// Unknown values are rejected by New, so downstream scoring never has to deal
// with open-ended strings.
//
// # Facts
//
// Facts exposes snapshot values to rule predicates by dotted field name:
//
//	facts := snapshot.Facts()
//	age, err := facts.Lookup("youth.age")
//
// Optional facts (for example youth.admits_responsibility) report a
// MissingFactError when they were not captured at intake. Unknown field names
// report an UnknownFieldError.
package intake
