// Package internal contains helper utilities that are intentionally private
// to the sessions module, currently secure session-identifier generation.
//
// # What this package must NOT do
//
//   - Export types that appear in the public sessions API.
//   - Be imported by any package outside this module.
package internal
