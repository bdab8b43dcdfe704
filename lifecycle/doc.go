// Package lifecycle orchestrates test-fixture setup and teardown for an
// integration-test runner: it resolves which fixture directives apply to a
// test, applies them in declared order before the test body, and reverts
// them in exact reverse order afterwards.
//
// The surrounding ecosystem — annotation parsing, data providers, override
// resolution, reference storage and database-isolation checking — are
// external collaborators consumed through narrow interfaces; fixtures
// themselves are opaque {factory, data} callables behind the Routine
// interface.
//
// # Resolution
//
// Directives are resolved per test identity and memoized per fixture kind:
//
//	controller, _ := lifecycle.NewController(lifecycle.Options{
//	    Kind:    "dataFixtures",
//	    Source:  source,
//	    Parser:  annotations.NewParser(),
//	    Routine: routine,
//	})
//	directives, _ := controller.Resolve(lifecycle.TestRef{
//	    Class:  "CustomerControllerTest",
//	    Method: "testCreate",
//	}, lifecycle.ScopeAll)
//
// ScopeAll merges class-level and method-level annotations with method
// winning on conflict. Resolution always runs, even for zero declared
// fixtures, because the override resolver can inject config-driven fixtures
// invisible to the annotation layer.
//
// # Apply and revert
//
// Apply snapshots isolation state, then invokes each directive's factory in
// order, recording every successful application in a ledger. Named results
// are persisted to the reference store so later fixtures can look them up:
//
//	if err := controller.Apply(directives, test); err != nil {
//	    // err is a *FixtureError naming the directive that failed
//	}
//	defer controller.Revert(test)
//
// Revert walks the ledger in strict LIFO order under a forced secure-mode
// flag (saved and restored per entry), tolerates already-deleted entities,
// and finishes with an isolation check against the earlier snapshot.
package lifecycle
