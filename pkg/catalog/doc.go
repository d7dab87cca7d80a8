// Package catalog loads the program eligibility rules and the
// less-restrictive alternatives ladder from YAML.
//
// A Catalog is immutable once built and carries a content-derived version
// that is recorded with every decision. The Manager holds the current
// catalog behind an atomic pointer: Reload and the fsnotify-based Watch
// swap in a new catalog only after it validates, and evaluations already
// holding the previous catalog finish against it.
//
// # File Format
//
//	programs:
//	  - name: standard_diversion
//	    policy_citation: "Juvenile Diversion Manual 3.1"
//	    required_all:
//	      - name: first_time_referral
//	        description: Youth has prior referrals or adjudications.
//	        field: history.first_time
//	        op: eq
//	        value: true
//	    excluded_if_any: []
//	alternatives:
//	  - name: parent_guardian_release
//	    reject_if:
//	      - name: no_stable_home
//	        field: living_situation
//	        op: in
//	        value: [unstable, none]
//
// A directory path loads every .yaml and .yml file in it, merged in
// lexical file order.
package catalog
