// Package types provides core types used across the atmosphere routing core.
// This package has ZERO dependencies on other atmosphere packages to avoid
// circular imports. All other packages should import types from here.
package types
