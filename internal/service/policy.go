package service

import (
	"fmt"
	"strings"
)

// DeletePolicy decides what happens to products when their category is removed.
type DeletePolicy string

const (
	PolicyRestrict DeletePolicy = "restrict"
	PolicySetNull  DeletePolicy = "set-null"
	PolicyCascade  DeletePolicy = "cascade"
)

func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch p := DeletePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicySetNull, nil
	case PolicyRestrict, PolicySetNull, PolicyCascade:
		return p, nil
	}
	return "", fmt.Errorf("unknown category delete policy %q", s)
}
