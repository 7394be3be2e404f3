// Package harness provides a scenario-driven conformance harness for the
// query algebra and its renderers.
//
// Scenarios are YAML files: an inline base table, an ordered list of verb
// steps written as expression strings, and either an expected result table
// or an expected error fragment. Each scenario runs through the in-memory
// renderer; scenarios that opt into the sql backend additionally load the
// base table into a fresh in-memory sqlite database and require the two
// backends to agree.
//
// Backend agreement compares row-for-row, so scenarios that enable the sql
// backend should end with an arrange step to pin row order.
package harness
