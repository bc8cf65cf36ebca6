package inmemdb

import (
	"bytes"
	"reflect"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crreddy/polysis/core"
)

type dateVal int64 // unix milliseconds

// lookup returns the values found at the dotted path; arrays are traversed.
// An array at the end of the path yields itself followed by its elements.
func lookup(v interface{}, parts []string) []interface{} {
	if len(parts) == 0 {
		if arr, ok := v.(primitive.A); ok {
			return append([]interface{}{v}, arr...)
		}
		return []interface{}{v}
	}

	switch x := v.(type) {
	case primitive.M:
		child, ok := x[parts[0]]
		if !ok {
			return nil
		}
		return lookup(child, parts[1:])
	case map[string]interface{}:
		child, ok := x[parts[0]]
		if !ok {
			return nil
		}
		return lookup(child, parts[1:])
	case primitive.A:
		var res []interface{}
		for _, e := range x {
			res = append(res, lookup(e, parts)...)
		}
		return res
	}
	return nil
}

func values(doc core.Document, field string) []interface{} {
	vals := lookup(doc, strings.Split(field, "."))
	if len(vals) == 0 {
		return []interface{}{nil} // missing fields compare as null
	}
	return vals
}

func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case time.Time:
		return dateVal(x.UnixMilli())
	case *time.Time:
		if x == nil {
			return nil
		}
		return dateVal(x.UnixMilli())
	case primitive.DateTime:
		return dateVal(x)
	case []string:
		arr := make(primitive.A, 0, len(x))
		for _, s := range x {
			arr = append(arr, s)
		}
		return arr
	}
	return v
}

func equal(a, b interface{}) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func typeRank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case float64:
		return 1
	case string:
		return 2
	case primitive.ObjectID:
		return 3
	case bool:
		return 4
	case dateVal:
		return 5
	}
	return 6
}

// compare orders a and b; ok is false when they are not of the same comparable type.
func compare(a, b interface{}) (res int, ok bool) {
	a, b = normalize(a), normalize(b)
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb, false
	}

	switch x := a.(type) {
	case nil:
		return 0, true
	case float64:
		y := b.(float64)
		return cmpOrdered(x, y), true
	case string:
		return strings.Compare(x, b.(string)), true
	case dateVal:
		return cmpOrdered(x, b.(dateVal)), true
	case primitive.ObjectID:
		y := b.(primitive.ObjectID)
		return bytes.Compare(x[:], y[:]), true
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func cmpOrdered[T float64 | dateVal](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

type matcher func(doc core.Document) bool

func compileConditions(conds []core.Condition) ([]matcher, error) {
	matchers := make([]matcher, 0, len(conds))
	for _, cond := range conds {
		m, err := compileCondition(cond)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

func compileCondition(cond core.Condition) (matcher, error) {
	field := cond.Field

	switch cond.Op {
	case core.OpMatch:
		pattern, _ := cond.Value.(string)
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, err
		}
		return func(doc core.Document) bool {
			for _, v := range values(doc, field) {
				if s, ok := v.(string); ok && re.MatchString(s) {
					return true
				}
			}
			return false
		}, nil

	case core.OpIn:
		choices, _ := cond.Value.([]interface{})
		return func(doc core.Document) bool {
			for _, v := range values(doc, field) {
				for _, c := range choices {
					if equal(v, c) {
						return true
					}
				}
			}
			return false
		}, nil

	case core.OpRange:
		bounds, _ := cond.Value.(map[string]interface{})
		return func(doc core.Document) bool {
			for _, v := range values(doc, field) {
				if inRange(v, bounds) {
					return true
				}
			}
			return false
		}, nil
	}

	return func(doc core.Document) bool {
		for _, v := range values(doc, field) {
			if equal(v, cond.Value) {
				return true
			}
		}
		return false
	}, nil
}

func inRange(v interface{}, bounds map[string]interface{}) bool {
	for op, bound := range bounds {
		res, ok := compare(v, bound)
		if !ok {
			return false
		}
		switch op {
		case "$gt":
			ok = res > 0
		case "$gte":
			ok = res >= 0
		case "$lt":
			ok = res < 0
		case "$lte":
			ok = res <= 0
		}
		if !ok {
			return false
		}
	}
	return true
}

func matchAll(doc core.Document, matchers []matcher) bool {
	for _, m := range matchers {
		if !m(doc) {
			return false
		}
	}
	return true
}

// sortValue is the first non-array value at field.
func sortValue(doc core.Document, field string) interface{} {
	for _, v := range values(doc, field) {
		if _, ok := v.(primitive.A); !ok {
			return v
		}
	}
	return nil
}
