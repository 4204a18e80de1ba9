// Package domain holds the case-intake data model.
//
// This package contains value types only. Every other internal package
// imports domain; domain imports nothing internal.
//
// Key design constraints:
//   - Values are plain structs passed by value; slices are never shared
//     between a command and the state it is applied to (see Clone helpers)
//   - Dates are ISO-8601 strings ("2006-01-02"); "" means not recorded
//   - All JSON tags use camelCase, matching the upstream submission shape
package domain
