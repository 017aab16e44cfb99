package astcheck

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/chris-regnier/treecheck/internal/ast"
)

// Spec is one check instance requested by configuration.
type Spec struct {
	// ID identifies the instance in reports. Several instances of the same
	// check may run under different IDs.
	ID string
	// Check names the registry entry. Empty means ID.
	Check string
	// Severity is carried through to violations unchanged.
	Severity string
	// Tokens overrides the default enter set.
	Tokens     []ast.Kind
	Properties Properties
}

// CheckName returns the registry name the spec refers to.
func (s Spec) CheckName() string {
	if s.Check != "" {
		return s.Check
	}
	return s.ID
}

// Configured is a check bound to its configuration and effective token sets.
// Trivia is set when the check opted in or its enter set names comment kinds.
type Configured struct {
	ID       string
	Severity string
	Entry    Entry
	Check    Check
	Enter    []ast.Kind
	Leave    []ast.Kind
	Trivia   bool
}

// Configure instantiates every spec. A spec that fails to configure is
// reported as a *ConfigError in the joined error and left out of the result;
// the remaining checks are still returned so a host can run them.
func Configure(reg *Registry, specs []Spec) ([]*Configured, error) {
	var (
		out  []*Configured
		errs []error
	)
	for _, spec := range specs {
		c, err := configureOne(reg, spec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, c)
	}
	switch len(errs) {
	case 0:
		return out, nil
	case 1:
		return out, errs[0]
	default:
		return out, errors.Join(errs...)
	}
}

func configureOne(reg *Registry, spec Spec) (*Configured, error) {
	if spec.ID == "" {
		return nil, configError("", "", ErrUnknownCheck, errors.New("empty check id"))
	}
	entry, ok := reg.Get(spec.CheckName())
	if !ok {
		return nil, configError(spec.ID, "", ErrUnknownCheck,
			errors.WithHint(errors.Newf("no check named %q", spec.CheckName()), "run `treecheck checks` to list available checks"))
	}

	check, err := newCheck(entry, spec.Properties)
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			return nil, configError(spec.ID, ce.Property, ErrInvalidProperty, ce.Err)
		}
		return nil, configError(spec.ID, "", ErrInvalidProperty, err)
	}

	tokens := check.Tokens()
	enter := tokens.Default
	if spec.Tokens != nil {
		if err := validateOverride(tokens, spec.Tokens); err != nil {
			return nil, configError(spec.ID, "tokens", ErrIllegalTokens, err)
		}
		enter = spec.Tokens
	}
	leave := tokens.Leave
	if leave == nil {
		leave = enter
	}
	return &Configured{
		ID:       spec.ID,
		Severity: spec.Severity,
		Entry:    entry,
		Check:    check,
		Enter:    enter,
		Leave:    leave,
		Trivia:   tokens.Trivia || len(lo.Intersect(enter, ast.DefaultCommentKinds)) > 0,
	}, nil
}

// newCheck runs the factory, turning a panic into an error so one broken
// factory cannot stop configuration of the others.
func newCheck(entry Entry, props Properties) (c Check, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("factory panicked: %v", r)
		}
	}()
	if props == nil {
		props = Properties{}
	}
	c, err = entry.New(props)
	if err == nil && c == nil {
		err = errors.New("factory returned no check")
	}
	return c, err
}

// validateOverride checks that an override stays inside the acceptable set
// and keeps every required kind.
func validateOverride(tokens Tokens, override []ast.Kind) error {
	extra, _ := lo.Difference(override, tokens.acceptable())
	if len(extra) > 0 {
		return errors.Newf("kinds %v are not acceptable", extra)
	}
	_, missing := lo.Difference(override, tokens.Required)
	if len(missing) > 0 {
		return errors.Newf("required kinds %v are missing", missing)
	}
	return nil
}
