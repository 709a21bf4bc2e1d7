package interceptor

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// ErrDenied is returned in place of a call's results when the policy rejects it.
var ErrDenied = errors.New("interceptor: call denied by policy")

// Policy authorizes calls against a prepared Rego query.
type Policy struct {
	query rego.PreparedEvalQuery
}

// NewPolicy compiles module and prepares query (for example
// "data.proxy.allow"). Compilation errors surface here, not at call time.
func NewPolicy(
	ctx context.Context,
	query string,
	module string,
) (*Policy, error) {
	prepared, err := rego.New(
		rego.Query(query),
		rego.Module("policy.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy query %q: %w", query, err)
	}

	return &Policy{query: prepared}, nil
}

// Allow evaluates the policy for a call. Context arguments are left out of
// the input document.
func (p *Policy) Allow(
	ctx context.Context,
	method string,
	args []interface{},
) (bool, error) {
	input := map[string]interface{}{
		"method": method,
		"args":   policyArgs(args),
	}

	rs, err := p.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("evaluate policy for %s: %w", method, err)
	}

	return rs.Allowed(), nil
}

// Interceptor short-circuits denied calls with ErrDenied as their only
// result. Methods without an error result observe zero values.
func (p *Policy) Interceptor() Interceptor {
	return func(method string, next Handler) Handler {
		return func(args []interface{}) []interface{} {
			allowed, err := p.Allow(ContextOf(args), method, args)
			if err != nil {
				return Fail(fmt.Errorf("%w: %w", ErrDenied, err))
			}
			if !allowed {
				return Fail(fmt.Errorf("%w: %s", ErrDenied, method))
			}

			return next(args)
		}
	}
}

func policyArgs(args []interface{}) []interface{} {
	out := make([]interface{}, 0, len(args))
	for _, a := range args {
		if _, ok := a.(context.Context); ok {
			continue
		}
		out = append(out, a)
	}

	return out
}
