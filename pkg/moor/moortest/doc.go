// Package moortest provides test doubles and helpers for testing code
// that uses the moor engine. It follows the standard library pattern
// (like net/http/httptest) of providing a testable fake alongside the
// real package.
//
// The core type is FakeAPIClient, a function-field based fake that
// implements the Docker client.APIClient interface. Each method moor
// calls has a corresponding Fn field that can be set to control
// behavior. Unset methods panic with "not implemented" to fail loudly
// when unexpected calls are made.
//
// Usage:
//
//	fake := moortest.NewFakeAPIClient()
//	engine := moor.NewFromExisting(fake, moortest.TestEngineOptions())
//
//	fake.ContainerStopFn = func(ctx context.Context, container string, opts container.StopOptions) error {
//	    return nil
//	}
//
//	moortest.AssertCalled(t, fake, "ContainerStop")
package moortest
