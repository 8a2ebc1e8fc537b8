package model

import (
	"fmt"
	"strings"
)

// IsCity classifies a location token from the order form. The token must be
// exactly "city" or "county", case-insensitive; anything else is an input
// error. Callers handle the empty-cell case before calling.
func IsCity(location string) (bool, error) {
	if strings.TrimSpace(location) == "" {
		return false, fmt.Errorf("location token is empty")
	}

	switch strings.ToLower(location) {
	case "city":
		return true, nil
	case "county":
		return false, nil
	default:
		return false, fmt.Errorf("invalid location token %q: must be city or county", location)
	}
}
