// Package testutil provides fluent builders and scripted fakes shared by
// tests across the module.
package testutil
