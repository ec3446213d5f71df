// Package campaign resolves named campaigns to variants exactly once per
// user per cache epoch and records the resulting exposures.
//
// The Manager dispatches on the campaign's system template: local
// deterministic templates (weighted rollout, feature flag, time window,
// weighted random) are evaluated by the assign package, while
// backend-delegated templates (round-robin, bandit) issue one network call
// through the Delegator and degrade to the campaign's declared control
// variant when it fails. Either way the decision is memoized in the cache
// and an impression is recorded, so later lookups and conversions always
// see the variant the user actually saw.
//
// The per-pair state machine is UNASSIGNED -> ASSIGNED (impression) ->
// CONVERTED (conversion). Nothing transitions back to UNASSIGNED except an
// explicit logout or cache clear, and repeat conversions are permitted:
// each produces its own log entry against the memoized variant.
package campaign
