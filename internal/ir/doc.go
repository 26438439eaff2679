// Package ir provides the canonical value and identity types shared by every
// objstore package.
//
// This package contains leaf types only. All other internal packages import
// ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types in canonical values - use int64 for numbers
//   - Identifiers and addresses are fixed-width 32-byte values
//   - Content-addressed hashes use RFC 8785 canonical JSON with domain separation
//   - All JSON tags use snake_case
package ir
