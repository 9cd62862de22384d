// Package ciutil detects the execution environment (CI or local) and
// resolves the environment variables shared by tests and tooling.
package ciutil
