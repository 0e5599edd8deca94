package policyfile

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/holiman/uint256"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// decodeParams decodes rule params into out, converting strings like "1h"
// into durations and tolerating numeric strings.
func decodeParams(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// Field extracts a named field from call params. Maps are looked up by key;
// structs by mapstructure or json tag, then by field name. Both fall back to
// a case-insensitive match so Go field names like Value match "value".
func Field(params any, name string) (any, bool) {
	if params == nil {
		return nil, false
	}
	if m, ok := params.(map[string]any); ok {
		return lookupMap(m, name)
	}
	v := reflect.ValueOf(params)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		var m map[string]any
		if err := mapstructure.Decode(v.Interface(), &m); err != nil {
			return nil, false
		}
		return lookupMap(m, name)
	case reflect.Struct:
		return lookupStruct(v, name)
	default:
		return nil, false
	}
}

func lookupMap(m map[string]any, name string) (any, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func lookupStruct(v reflect.Value, name string) (any, bool) {
	t := v.Type()
	fallback := -1
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if tagName(f, "mapstructure") == name || tagName(f, "json") == name {
			return v.Field(i).Interface(), true
		}
		if fallback < 0 && strings.EqualFold(f.Name, name) {
			fallback = i
		}
	}
	if fallback >= 0 {
		return v.Field(fallback).Interface(), true
	}
	return nil, false
}

func tagName(f reflect.StructField, key string) string {
	tag := f.Tag.Get(key)
	if i := strings.IndexByte(tag, ','); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

// Amount converts a call parameter into a 256-bit unsigned amount.
// Accepted: nil (zero), uint256, *big.Int, Go integers, integral
// non-negative floats, json.Number and decimal or 0x-prefixed hex strings.
func Amount(v any) (*uint256.Int, error) {
	switch n := v.(type) {
	case nil:
		return new(uint256.Int), nil
	case *uint256.Int:
		if n == nil {
			return new(uint256.Int), nil
		}
		return n.Clone(), nil
	case uint256.Int:
		return n.Clone(), nil
	case *big.Int:
		if n == nil {
			return new(uint256.Int), nil
		}
		return fromBig(n)
	case big.Int:
		return fromBig(&n)
	case int:
		return fromInt64(int64(n))
	case int8:
		return fromInt64(int64(n))
	case int16:
		return fromInt64(int64(n))
	case int32:
		return fromInt64(int64(n))
	case int64:
		return fromInt64(n)
	case uint:
		return uint256.NewInt(uint64(n)), nil
	case uint8:
		return uint256.NewInt(uint64(n)), nil
	case uint16:
		return uint256.NewInt(uint64(n)), nil
	case uint32:
		return uint256.NewInt(uint64(n)), nil
	case uint64:
		return uint256.NewInt(n), nil
	case float64:
		if n < 0 || math.IsInf(n, 0) || n != math.Trunc(n) {
			return nil, errors.Errorf("amount %v is not a non-negative integer", n)
		}
		i, _ := new(big.Float).SetFloat64(n).Int(nil)
		return fromBig(i)
	case json.Number:
		return parseAmount(n.String())
	case string:
		return parseAmount(n)
	default:
		return nil, errors.Errorf("unsupported amount type %T", v)
	}
}

func fromInt64(n int64) (*uint256.Int, error) {
	if n < 0 {
		return nil, errors.Errorf("amount %d is negative", n)
	}
	return uint256.NewInt(uint64(n)), nil
}

func fromBig(n *big.Int) (*uint256.Int, error) {
	if n.Sign() < 0 {
		return nil, errors.Errorf("amount %s is negative", n)
	}
	u, overflow := uint256.FromBig(n)
	if overflow {
		return nil, errors.Errorf("amount %s overflows 256 bits", n)
	}
	return u, nil
}

func parseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(uint256.Int), nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		u, err := uint256.FromHex(s)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid hex amount %q", s)
		}
		return u, nil
	}
	u, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid decimal amount %q", s)
	}
	return u, nil
}
