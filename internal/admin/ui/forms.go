package ui

import (
	"fmt"
	"strings"
)

func nonEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

func minLength(field string, n int) func(string) error {
	return func(s string) error {
		if len([]rune(strings.TrimSpace(s))) < n {
			return fmt.Errorf("%s must be at least %d characters", field, n)
		}
		return nil
	}
}
