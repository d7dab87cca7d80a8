// Package override reconciles mandatory and discretionary overrides with a
// computed risk band.
//
// Tiers are evaluated once, in order, and the first tier with a true
// condition decides:
//
//  1. Mandatory detain sets a floor of alternative_to_detention.
//  2. Mandatory release sets a ceiling of release.
//  3. A discretionary request shifts the band one step when no mandatory
//     condition fired.
//
// A discretionary request must carry a justification and an approver other
// than "none". An invalid request fails Apply with *InvalidRequestError.
package override
