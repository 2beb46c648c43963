package visibility

import (
	"regexp"
	"sync"

	"github.com/goliatone/go-formengine/internal/values"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// operator compares the dependee value (got, present) against the rule value.
// Absent values fail every operator except the emptiness checks.
type operator func(got any, present bool, want any) bool

var operators = map[schema.Operator]operator{
	schema.OpEquals:    present(values.Equal),
	schema.OpNotEquals: present(func(got, want any) bool { return !values.Equal(got, want) }),
	schema.OpOneOf:     present(oneOf),
	schema.OpNotOneOf:  present(func(got, want any) bool { return !oneOf(got, want) }),
	schema.OpIncludes:  present(includes),
	schema.OpFilled:    filled,
	schema.OpExists:    filled,
	schema.OpEmpty:     func(got any, ok bool, want any) bool { return !filled(got, ok, want) },
	schema.OpNotExists: func(got any, ok bool, want any) bool { return !filled(got, ok, want) },
	schema.OpMin:       magnitude(func(a, b float64) bool { return a >= b }),
	schema.OpMax:       magnitude(func(a, b float64) bool { return a <= b }),
	schema.OpMoreThan:  magnitude(func(a, b float64) bool { return a > b }),
	schema.OpLessThan:  magnitude(func(a, b float64) bool { return a < b }),
	schema.OpLength:    present(length),
	schema.OpMatches:   present(matches),
}

func present(fn func(got, want any) bool) operator {
	return func(got any, ok bool, want any) bool {
		if !ok {
			return false
		}
		return fn(got, want)
	}
}

// filled holds when a non-empty value is present. `{filled: false}` inverts.
func filled(got any, ok bool, want any) bool {
	result := ok && !values.IsEmpty(got)
	if flag, isBool := want.(bool); isBool && !flag {
		return !result
	}
	return result
}

func oneOf(got, want any) bool {
	list, ok := values.List(want)
	if !ok {
		return values.Equal(got, want)
	}
	return values.Contains(list, got)
}

func includes(got, want any) bool {
	have, ok := values.List(got)
	if !ok {
		return false
	}
	if wanted, ok := values.List(want); ok {
		for _, w := range wanted {
			if !values.Contains(have, w) {
				return false
			}
		}
		return true
	}
	return values.Contains(have, want)
}

func magnitude(cmp func(a, b float64) bool) operator {
	return present(func(got, want any) bool {
		a, ok := values.Magnitude(got)
		if !ok {
			return false
		}
		b, ok := values.Number(want)
		if !ok {
			return false
		}
		return cmp(a, b)
	})
}

func length(got, want any) bool {
	n, ok := values.Length(got)
	if !ok {
		return false
	}
	expected, ok := values.Number(want)
	return ok && float64(n) == expected
}

var patternCache sync.Map

func matches(got, want any) bool {
	expr, ok := want.(string)
	if !ok {
		return false
	}
	re, err := compilePattern(expr)
	if err != nil {
		return false
	}
	return re.MatchString(values.String(got))
}

func compilePattern(expr string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(expr); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	patternCache.Store(expr, re)
	return re, nil
}
