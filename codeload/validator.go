package codeload

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
)

// Verdict is the outcome of capability validation. Degraded candidates are
// usable but missing something the loader would prefer to see; only Invalid
// is a hard failure.
type Verdict int

const (
	Invalid Verdict = iota
	Degraded
	Valid
)

// String returns a human-readable verdict name.
func (v Verdict) String() string {
	switch v {
	case Invalid:
		return "invalid"
	case Degraded:
		return "degraded"
	case Valid:
		return "valid"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Report carries the validation verdict together with the reasons behind it,
// so callers can log degraded-but-usable SDKs without conflating them with
// hard failures.
type Report struct {
	Verdict Verdict
	Reasons []string
}

// Capability names the validator recognizes on a candidate SDK object.
const (
	capabilityInit   = "InitSDK"
	capabilityCreate = "CreateInstance"
	capabilityConfig = "NetworkConfig"
)

// Validator inspects arbitrary registry objects and decides whether they
// satisfy the minimum capability contract of the relayer SDK.
//
// Validation is deliberately permissive best-effort duck-typing: the
// third-party artifact's exact surface is not contractually pinned, and an
// overly strict check against an evolving artifact causes false negatives.
// The cost of permissiveness is deferred failure at actual use.
type Validator struct {
	log *slog.Logger
}

// NewValidator creates a validator.
func NewValidator(log *slog.Logger) *Validator {
	return &Validator{log: log}
}

// Validate inspects a candidate SDK object. The minimum bar: a non-nil
// object exposing at least one of the named capability functions, or three
// or more callable members overall. A missing network-configuration surface
// degrades the verdict but never invalidates the candidate.
func (v *Validator) Validate(candidate any) Report {
	if candidate == nil {
		return Report{Verdict: Invalid, Reasons: []string{"candidate is nil"}}
	}

	rv := reflect.ValueOf(candidate)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return Report{Verdict: Invalid, Reasons: []string{"candidate is a nil pointer"}}
	}

	callables := callableMembers(rv)

	hasNamed := callables[capabilityInit] || callables[capabilityCreate]
	if !hasNamed && len(callables) < 3 {
		return Report{Verdict: Invalid, Reasons: []string{
			fmt.Sprintf("candidate exposes neither %s nor %s and only %d callable members",
				capabilityInit, capabilityCreate, len(callables)),
		}}
	}

	var reasons []string
	verdict := Valid
	if !callables[capabilityConfig] && !hasConfigSurface(rv) {
		verdict = Degraded
		reasons = append(reasons, "no recognizable network configuration surface")
	}

	if verdict == Degraded {
		v.log.Warn("SDK candidate passed validation with concerns",
			slog.String("verdict", verdict.String()),
			slog.String("reasons", strings.Join(reasons, "; ")))
	}

	return Report{Verdict: verdict, Reasons: reasons}
}

// IsValidSDK reports whether the candidate is usable, treating degraded
// candidates as usable.
func (v *Validator) IsValidSDK(candidate any) bool {
	return v.Validate(candidate).Verdict != Invalid
}

// callableMembers collects the names of the candidate's callable members:
// exported methods, func-typed exported struct fields, and func-typed map
// entries.
func callableMembers(rv reflect.Value) map[string]bool {
	members := make(map[string]bool)

	rt := rv.Type()
	for i := 0; i < rt.NumMethod(); i++ {
		members[rt.Method(i).Name] = true
	}

	elem := rv
	if rv.Kind() == reflect.Ptr {
		elem = rv.Elem()
	}

	switch elem.Kind() {
	case reflect.Struct:
		et := elem.Type()
		for i := 0; i < et.NumField(); i++ {
			field := et.Field(i)
			if field.IsExported() && field.Type.Kind() == reflect.Func {
				members[field.Name] = true
			}
		}
	case reflect.Map:
		for _, key := range elem.MapKeys() {
			if key.Kind() != reflect.String {
				continue
			}
			value := elem.MapIndex(key)
			if value.Kind() == reflect.Interface {
				value = value.Elem()
			}
			if value.Kind() == reflect.Func {
				members[key.String()] = true
			}
		}
	}

	return members
}

// hasConfigSurface looks for a non-callable network configuration surface:
// an exported field or map entry whose name mentions network configuration.
func hasConfigSurface(rv reflect.Value) bool {
	elem := rv
	if rv.Kind() == reflect.Ptr {
		elem = rv.Elem()
	}

	isConfigName := func(name string) bool {
		lower := strings.ToLower(name)
		return strings.Contains(lower, "config") || strings.Contains(lower, "network")
	}

	switch elem.Kind() {
	case reflect.Struct:
		et := elem.Type()
		for i := 0; i < et.NumField(); i++ {
			field := et.Field(i)
			if field.IsExported() && isConfigName(field.Name) {
				return true
			}
		}
	case reflect.Map:
		for _, key := range elem.MapKeys() {
			if key.Kind() == reflect.String && isConfigName(key.String()) {
				return true
			}
		}
	}

	return false
}
