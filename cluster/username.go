// Package cluster provides the connection-identity helpers used by hub:
// username normalization and validation.
package cluster

import (
	"regexp"
	"strings"

	"github.com/nalix-go/nalix/cmn"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

const op = "cluster"

// NormalizeUsername trims whitespace (if trim is true), truncates to
// maxLen runes, and validates against ^[A-Za-z0-9_]+$. The returned name
// is case-folded to lower case so name_by_id lookups are case-insensitive.
func NormalizeUsername(name string, trim bool, maxLen int) (string, error) {
	if trim {
		name = strings.TrimSpace(name)
	}
	if name == "" {
		return "", cmn.NewErr(op+".NormalizeUsername", cmn.KindValidation, "empty username", nil)
	}
	if maxLen > 0 && len(name) > maxLen {
		name = name[:maxLen]
	}
	if !usernamePattern.MatchString(name) {
		return "", cmn.NewErr(op+".NormalizeUsername", cmn.KindValidation, "username contains disallowed characters", nil)
	}
	return strings.ToLower(name), nil
}
