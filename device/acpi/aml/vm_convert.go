package aml

import (
	"strconv"
	"strings"

	"amlvm/device/acpi/aml/entity"
)

var (
	errConversionFromEmptyString = &Error{Kind: ErrTypeCoercion, message: "vmConvert: conversion from String requires a non-empty value"}
	errInvalidIntegerString      = &Error{Kind: ErrTypeCoercion, message: "vmConvert: string does not contain an integer"}
)

// ToInteger converts v to an Integer using the implicit conversion rules:
//   - Integer: returned as is.
//   - Buffer: the first bits/8 bytes are packed as a little-endian value.
//   - String: parsed as a hex number. Leading whitespace and an optional 0x
//     prefix are skipped, parsing stops at the first non-hex character and
//     at most bits/4 digits are consumed. Strings without any hex digit
//     cannot be converted.
func ToInteger(v entity.Value, bits uint8) (entity.Integer, error) {
	switch val := v.(type) {
	case entity.Integer:
		return val, nil
	case *entity.Buffer:
		var res uint64
		maxBytes := int(bits / 8)
		for i := 0; i < len(val.Data) && i < maxBytes; i++ {
			res |= uint64(val.Data[i]) << (8 * uint(i))
		}
		return entity.Integer(res), nil
	case entity.String:
		if len(val) == 0 {
			return 0, errConversionFromEmptyString
		}
		return parseHexString(string(val), bits)
	default:
		return 0, newError(ErrTypeCoercion, "vmConvert: cannot convert %s to Integer", typeOf(v))
	}
}

func parseHexString(s string, bits uint8) (entity.Integer, error) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}

	var (
		res       uint64
		digits    int
		maxDigits = int(bits / 4)
	)
	for ; digits < len(s) && digits < maxDigits; digits++ {
		d, ok := hexDigit(s[digits])
		if !ok {
			break
		}
		res = res<<4 | uint64(d)
	}

	if digits == 0 {
		return 0, errInvalidIntegerString
	}
	return entity.Integer(res), nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// parseIntegerString implements the explicit ToInteger operator for
// strings: a 0x prefix selects hex, otherwise the string is decimal.
func parseIntegerString(s string, bits uint8) (entity.Integer, error) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return parseHexString(s, bits)
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, errInvalidIntegerString
	}

	res, err := strconv.ParseUint(s[:end], 10, int(bits))
	if err != nil {
		return 0, newError(ErrTypeCoercion, "vmConvert: %s", err.Error())
	}
	return entity.Integer(res), nil
}

// ToString converts v to a String:
//   - Integer: 16 upper-case hex digits or, if decimal is set, a decimal
//     number.
//   - Buffer: each byte formatted as 0xHH (or as a decimal number) separated
//     by a space for implicit conversions and by a comma for explicit ones.
//   - String: returned as is.
//   - Any other type: its type tag, e.g. "[Device]".
func ToString(v entity.Value, bits uint8, implicit, decimal bool) (entity.String, error) {
	switch val := v.(type) {
	case entity.String:
		return val, nil
	case entity.Integer:
		if decimal {
			return entity.String(strconv.FormatUint(uint64(val), 10)), nil
		}
		return entity.String(formatHex(uint64(val), 16)), nil
	case *entity.Buffer:
		sep := ","
		if implicit {
			sep = " "
		}

		var sb strings.Builder
		for i, b := range val.Data {
			if i > 0 {
				sb.WriteString(sep)
			}
			if decimal {
				sb.WriteString(strconv.Itoa(int(b)))
				continue
			}
			sb.WriteString("0x")
			sb.WriteString(formatHex(uint64(b), 2))
		}
		return entity.String(sb.String()), nil
	case nil:
		return entity.String(entity.TypeUninitialized.String()), nil
	default:
		return entity.String(v.Type().String()), nil
	}
}

// formatHex returns the upper-case hex representation of v padded with
// zeroes to width digits.
func formatHex(v uint64, width int) string {
	s := strings.ToUpper(strconv.FormatUint(v, 16))
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}

// ToBuffer converts v to a Buffer:
//   - Integer: bits/8 little-endian bytes.
//   - String: the string bytes without a null terminator; an empty string
//     yields an empty buffer.
//   - Buffer: returned as is.
func ToBuffer(v entity.Value, bits uint8) (*entity.Buffer, error) {
	switch val := v.(type) {
	case *entity.Buffer:
		return val, nil
	case entity.Integer:
		data := make([]byte, bits/8)
		for i := range data {
			data[i] = byte(uint64(val) >> (8 * uint(i)))
		}
		return &entity.Buffer{Data: data}, nil
	case entity.String:
		return &entity.Buffer{Data: []byte(val)}, nil
	default:
		return nil, newError(ErrTypeCoercion, "vmConvert: cannot convert %s to Buffer", typeOf(v))
	}
}

func typeOf(v entity.Value) entity.Type {
	if v == nil {
		return entity.TypeUninitialized
	}
	return v.Type()
}
