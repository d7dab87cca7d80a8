// Package risk implements the five-category risk assessment instrument.
//
// Each category is computed independently from a case snapshot and capped:
//
//	A  current offense severity, +1 for a weapon       0-6
//	B  prior referrals and adjudications, +2 felony,
//	   +2 violent                                       0-8
//	C  highest supervision status (not additive)       0-4
//	D  highest failure-to-appear tier (not additive)   0-4
//	E  living situation                                 0-3
//
// The total is clamped to 0-25 and mapped to a band:
//
//	0-5 Low, 6-10 Low-Moderate, 11-15 Moderate, 16-20 Moderate-High, 21-25 High
//
// Scoring is a pure function of the snapshot and never fails.
package risk
