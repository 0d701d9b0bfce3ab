// Package testsupport provides fixtures shared by the package tests: YAML
// definition loading, golden helpers, subscriber recorders and rule-based
// validators.
package testsupport
