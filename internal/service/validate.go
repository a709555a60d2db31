package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gamma-omg/bookstore/internal/pkg/serr"
)

// validator collects per-field problems so a request with several bad fields
// is rejected once, with all of them named.
type validator struct {
	fields []string
	issues map[string]string
}

func newValidator() *validator {
	return &validator{issues: make(map[string]string)}
}

func (v *validator) add(field, issue string) {
	if _, ok := v.issues[field]; ok {
		return
	}

	v.fields = append(v.fields, field)
	v.issues[field] = issue
}

func (v *validator) require(field, val string) {
	if strings.TrimSpace(val) == "" {
		v.add(field, "is required")
	}
}

func (v *validator) email(field, val string) {
	if !validEmail(val) {
		v.add(field, "is not a valid email")
	}
}

func (v *validator) minLen(field, val string, n int) {
	if len(val) < n {
		v.add(field, fmt.Sprintf("must be at least %d characters", n))
	}
}

func (v *validator) oneOf(field, val string, allowed []string) {
	for _, a := range allowed {
		if val == a {
			return
		}
	}

	v.add(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

func (v *validator) positive(field string, val int64) {
	if val <= 0 {
		v.add(field, "must be positive")
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}

	sErr := serr.NewServiceError(
		errors.New("validation failed"),
		http.StatusBadRequest,
		"validation failed: %s", strings.Join(v.fields, ", "))
	for f, issue := range v.issues {
		sErr.Env[f] = issue
	}

	return sErr
}
