package crosscat

import (
	"context"
	"math"
	"strconv"

	"github.com/aiyi2099/bayeslite/pkg/core"
)

// The value codec converts between raw column values and the numeric
// codes the inference engine consumes. The missing-value sentinel is NaN
// in both directions: a null categorical value and an unparseable
// numerical value both codify to NaN, and NaN decodes to nil.

// encodeValue codifies one raw value for a generator column.
func (m *Metamodel) encodeValue(ctx context.Context, generatorID int64, meta *core.Metadata, colno int, value any) (float64, error) {
	stattype, err := m.store.ColumnStatType(ctx, generatorID, colno)
	if err != nil {
		return 0, err
	}
	switch stattype {
	case core.StatCategorical:
		if value == nil {
			return math.NaN(), nil
		}
		cc, err := m.engineColNo(ctx, generatorID, colno)
		if err != nil {
			return 0, err
		}
		key := valueText(value)
		code, ok := meta.Columns[cc].ValueToCode[key]
		if !ok {
			name, nameErr := m.store.ColumnName(ctx, generatorID, colno)
			if nameErr != nil {
				name = strconv.Itoa(colno)
			}
			return 0, &core.UnknownCategoricalValueError{Column: name, Value: key}
		}
		// The engine expects floating-point codes.
		return float64(code), nil
	case core.StatCyclic, core.StatNumerical:
		// Data imported from CSV-like sources may store numbers as text;
		// both null and non-numerical text codify to the missing sentinel.
		return toFloat(value), nil
	default:
		name, nameErr := m.store.ColumnName(ctx, generatorID, colno)
		if nameErr != nil {
			name = strconv.Itoa(colno)
		}
		return 0, &core.UnsupportedStatTypeError{Column: name, StatType: stattype}
	}
}

// decodeValue converts one engine code back to a raw domain value.
func (m *Metamodel) decodeValue(ctx context.Context, generatorID int64, meta *core.Metadata, colno int, code float64) (any, error) {
	stattype, err := m.store.ColumnStatType(ctx, generatorID, colno)
	if err != nil {
		return nil, err
	}
	switch stattype {
	case core.StatCategorical:
		if math.IsNaN(code) {
			return nil, nil
		}
		cc, err := m.engineColNo(ctx, generatorID, colno)
		if err != nil {
			return nil, err
		}
		key := strconv.Itoa(int(code))
		value, ok := meta.Columns[cc].CodeToValue[key]
		if !ok {
			name, nameErr := m.store.ColumnName(ctx, generatorID, colno)
			if nameErr != nil {
				name = strconv.Itoa(colno)
			}
			return nil, &core.UnknownCategoricalValueError{Column: name, Value: key}
		}
		return value, nil
	case core.StatCyclic, core.StatNumerical:
		if math.IsNaN(code) {
			return nil, nil
		}
		return code, nil
	default:
		name, nameErr := m.store.ColumnName(ctx, generatorID, colno)
		if nameErr != nil {
			name = strconv.Itoa(colno)
		}
		return nil, &core.UnsupportedStatTypeError{Column: name, StatType: stattype}
	}
}

// valueText renders a raw value the way database/sql renders it when
// scanned into a string, so codification matches the snapshot the code
// map was built from.
func valueText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// toFloat parses a raw value as a float, mapping anything unparseable
// (including nulls) to the missing sentinel.
func toFloat(value any) float64 {
	switch v := value.(type) {
	case nil:
		return math.NaN()
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case []byte:
		return parseFloatText(string(v))
	case string:
		return parseFloatText(v)
	default:
		return math.NaN()
	}
}

func parseFloatText(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
