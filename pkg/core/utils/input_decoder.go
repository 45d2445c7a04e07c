package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"

	"intrinsic_valuation/pkg/core/valuation"
)

// ErrEmptyInput is returned when there is nothing to decode.
var ErrEmptyInput = errors.New("empty input")

// DecodeFields parses a valuation input document into raw fields.
// Order of attempts:
// 1. Standard JSON (numbers kept as json.Number)
// 2. Hjson (comments, unquoted keys, optional commas)
// 3. JSON repair (trailing commas, single quotes, unclosed objects)
func DecodeFields(data []byte) (valuation.Fields, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}

	// Try 1: Standard JSON
	if fields, err := decodeStrictJSON(data); err == nil {
		return fields, nil
	}

	// Try 2: Hjson
	if fields, err := ParseHJSONFields(data); err == nil {
		return fields, nil
	}

	// Try 3: JSON Repair
	repaired, err := RepairJSON(string(data))
	if err == nil {
		if fields, err := decodeStrictJSON([]byte(repaired)); err == nil {
			return fields, nil
		}
	}

	return nil, fmt.Errorf("decode input: all parsing strategies failed")
}

// DecodeJSONFields decodes a strict JSON object, keeping numbers as json.Number
// so that integer and decimal literals normalize identically.
func DecodeJSONFields(data []byte) (valuation.Fields, error) {
	return decodeStrictJSON(data)
}

func decodeStrictJSON(data []byte) (valuation.Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields valuation.Fields
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON object")
	}
	if fields == nil {
		return nil, fmt.Errorf("input must be a JSON object")
	}
	return fields, nil
}

// ParseHJSONFields parses Human-friendly JSON (Hjson) into raw fields.
func ParseHJSONFields(data []byte) (valuation.Fields, error) {
	var fields map[string]interface{}
	if err := hjson.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("HJSON_PARSE_ERROR: %v", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("HJSON_PARSE_ERROR: input must be an object")
	}
	return valuation.Fields(fields), nil
}

// RepairJSON attempts to fix common hand-editing errors in JSON input.
func RepairJSON(malformedJSON string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformedJSON)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
	}
	return repaired, nil
}
