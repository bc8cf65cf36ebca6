package entity

import (
	"regexp"
	"sort"
	"time"

	"github.com/crreddy/polysis/core"
)

// BuildConditions turns a request filter map into store conditions:
//   - nil and empty string values are skipped
//   - strings do a case-insensitive partial match
//   - arrays match any of their values
//   - objects holding $gt, $gte, $lt or $lte are range queries
//   - anything else is an exact match
func BuildConditions(filters map[string]interface{}) []core.Condition {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys) // stable output

	conds := make([]core.Condition, 0, len(filters))
	for _, field := range keys {
		switch val := filters[field].(type) {
		case nil:
			continue
		case string:
			if val == "" {
				continue
			}
			conds = append(conds, Match(field, val))
		case []interface{}:
			conds = append(conds, core.Condition{Field: field, Op: core.OpIn, Value: coerceAll(val)})
		case []string:
			vals := make([]interface{}, 0, len(val))
			for _, v := range val {
				vals = append(vals, v)
			}
			conds = append(conds, core.Condition{Field: field, Op: core.OpIn, Value: vals})
		case map[string]interface{}:
			if bounds, ok := rangeBounds(val); ok {
				conds = append(conds, core.Condition{Field: field, Op: core.OpRange, Value: bounds})
			} else {
				conds = append(conds, Eq(field, val))
			}
		default:
			conds = append(conds, Eq(field, val))
		}
	}
	return conds
}

// Eq is an exact match condition.
func Eq(field string, val interface{}) core.Condition {
	return core.Condition{Field: field, Op: core.OpEq, Value: val}
}

// Match is a case-insensitive partial match; s is matched literally.
func Match(field, s string) core.Condition {
	return core.Condition{Field: field, Op: core.OpMatch, Value: regexp.QuoteMeta(s)}
}

func rangeBounds(m map[string]interface{}) (map[string]interface{}, bool) {
	bounds := make(map[string]interface{}, len(m))
	for _, op := range core.RangeOperators {
		if v, ok := m[op]; ok && v != nil {
			bounds[op] = coerce(v)
		}
	}
	return bounds, len(bounds) > 0
}

// coerce turns RFC3339 strings into times so that they compare with stored dates.
func coerce(v interface{}) interface{} {
	if s, ok := v.(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
	}
	return v
}

func coerceAll(vals []interface{}) []interface{} {
	res := make([]interface{}, 0, len(vals))
	for _, v := range vals {
		res = append(res, coerce(v))
	}
	return res
}
