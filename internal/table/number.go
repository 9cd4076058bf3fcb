package table

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"strconv"
)

// Numbers are carried as json.Number so that an item keeps every digit a
// DynamoDB number can hold (38 significant digits).

// DecodeJSON decodes a single JSON value from data into v, keeping numbers
// as json.Number.
func DecodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("invalid character after top-level value")
	}
	return nil
}

// toRat returns the exact value of a numeric attribute
func toRat(v any) (*big.Rat, bool) {
	switch tv := v.(type) {
	case json.Number:
		return new(big.Rat).SetString(string(tv))
	case float64:
		return new(big.Rat).SetString(strconv.FormatFloat(tv, 'g', -1, 64))
	case int:
		return new(big.Rat).SetInt64(int64(tv)), true
	case int64:
		return new(big.Rat).SetInt64(tv), true
	}
	return nil, false
}

func isNumber(v any) bool {
	switch v.(type) {
	case json.Number, float64, int, int64:
		return true
	}
	return false
}

// maxFractionDigits bounds the search for a terminating decimal expansion
const maxFractionDigits = 64

// formatRat renders r as the shortest exact decimal, so 1.50 becomes 1.5
// and 1e2 becomes 100.
func formatRat(r *big.Rat) json.Number {
	if r.IsInt() {
		return json.Number(r.Num().String())
	}
	ten := big.NewRat(10, 1)
	scaled := new(big.Rat).Set(r)
	for digits := 1; digits <= maxFractionDigits; digits++ {
		scaled.Mul(scaled, ten)
		if scaled.IsInt() {
			return json.Number(r.FloatString(digits))
		}
	}
	return json.Number(r.FloatString(38))
}
