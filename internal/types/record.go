package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// floatMarkers are the characters that make a JSON number a float.
const floatMarkers = ".eE"

// Field is one key/value pair of a ToolRecord.
type Field struct {
	Key   string
	Value any
}

// ToolRecord is an opaque mapping copied from a tools file. Field order is
// preserved so the rendered document lists fields the way the author wrote them.
// Values are strings, numbers, booleans, nil, []any or nested ToolRecords.
type ToolRecord struct {
	fields []Field
}

// NewToolRecord builds a record from the provided fields in order.
func NewToolRecord(fields ...Field) ToolRecord {
	record := ToolRecord{}
	for _, field := range fields {
		record.Set(field.Key, field.Value)
	}
	return record
}

// Set stores value under key, replacing an existing value in place.
func (record *ToolRecord) Set(key string, value any) {
	for fieldIndex := range record.fields {
		if record.fields[fieldIndex].Key == key {
			record.fields[fieldIndex].Value = value
			return
		}
	}
	record.fields = append(record.fields, Field{Key: key, Value: value})
}

// Get returns the value stored under key.
func (record ToolRecord) Get(key string) (any, bool) {
	for _, field := range record.fields {
		if field.Key == key {
			return field.Value, true
		}
	}
	return nil, false
}

// StringField returns the value under key when it is a string.
func (record ToolRecord) StringField(key string) string {
	value, found := record.Get(key)
	if !found {
		return ""
	}
	text, isString := value.(string)
	if !isString {
		return ""
	}
	return text
}

// Len returns the number of fields.
func (record ToolRecord) Len() int {
	return len(record.fields)
}

// Keys lists field names in order.
func (record ToolRecord) Keys() []string {
	keys := make([]string, 0, len(record.fields))
	for _, field := range record.fields {
		keys = append(keys, field.Key)
	}
	return keys
}

// Fields returns a copy of the ordered fields.
func (record ToolRecord) Fields() []Field {
	return append([]Field(nil), record.fields...)
}

// MarshalJSON writes the fields as a JSON object in insertion order.
func (record ToolRecord) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteString("{")
	for fieldIndex, field := range record.fields {
		if fieldIndex > 0 {
			buffer.WriteString(",")
		}
		keyBytes, keyError := marshalValue(field.Key)
		if keyError != nil {
			return nil, keyError
		}
		valueBytes, valueError := marshalValue(field.Value)
		if valueError != nil {
			return nil, fmt.Errorf("field %q: %w", field.Key, valueError)
		}
		buffer.Write(keyBytes)
		buffer.WriteString(":")
		buffer.Write(valueBytes)
	}
	buffer.WriteString("}")
	return buffer.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping its key order.
func (record *ToolRecord) UnmarshalJSON(data []byte) error {
	decoded, decodeError := decodeOrderedJSON(data)
	if decodeError != nil {
		return decodeError
	}
	decodedRecord, isRecord := decoded.(ToolRecord)
	if !isRecord {
		return fmt.Errorf("tool record must be a JSON object")
	}
	*record = decodedRecord
	return nil
}

func decodeOrderedJSON(data []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	value, decodeError := decodeOrderedValue(decoder)
	if decodeError != nil {
		return nil, decodeError
	}
	if _, trailingError := decoder.Token(); !errors.Is(trailingError, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return value, nil
}

func decodeOrderedValue(decoder *json.Decoder) (any, error) {
	token, tokenError := decoder.Token()
	if tokenError != nil {
		return nil, tokenError
	}
	switch typedToken := token.(type) {
	case json.Delim:
		switch typedToken {
		case '{':
			record := ToolRecord{}
			for decoder.More() {
				keyToken, keyError := decoder.Token()
				if keyError != nil {
					return nil, keyError
				}
				key, keyIsString := keyToken.(string)
				if !keyIsString {
					return nil, fmt.Errorf("unexpected object key %v", keyToken)
				}
				value, valueError := decodeOrderedValue(decoder)
				if valueError != nil {
					return nil, valueError
				}
				record.Set(key, value)
			}
			if _, closeError := decoder.Token(); closeError != nil {
				return nil, closeError
			}
			return record, nil
		case '[':
			list := []any{}
			for decoder.More() {
				value, valueError := decodeOrderedValue(decoder)
				if valueError != nil {
					return nil, valueError
				}
				list = append(list, value)
			}
			if _, closeError := decoder.Token(); closeError != nil {
				return nil, closeError
			}
			return list, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", typedToken)
		}
	case json.Number:
		if strings.ContainsAny(typedToken.String(), floatMarkers) {
			floatValue, floatError := typedToken.Float64()
			if floatError != nil {
				return nil, floatError
			}
			return floatValue, nil
		}
		if integerValue, integerError := typedToken.Int64(); integerError == nil {
			return int(integerValue), nil
		}
		return typedToken, nil
	default:
		return typedToken, nil
	}
}

// marshalValue encodes one value of a record without escaping HTML. Floats keep a
// decimal point or exponent so they decode back as floats.
func marshalValue(value any) ([]byte, error) {
	switch typedValue := value.(type) {
	case float64:
		return formatFloat(typedValue, 64)
	case float32:
		return formatFloat(float64(typedValue), 32)
	case ToolRecord:
		return typedValue.MarshalJSON()
	case *ToolRecord:
		if typedValue == nil {
			return []byte("null"), nil
		}
		return typedValue.MarshalJSON()
	case []any:
		var buffer bytes.Buffer
		buffer.WriteString("[")
		for itemIndex, item := range typedValue {
			if itemIndex > 0 {
				buffer.WriteString(",")
			}
			itemBytes, itemError := marshalValue(item)
			if itemError != nil {
				return nil, itemError
			}
			buffer.Write(itemBytes)
		}
		buffer.WriteString("]")
		return buffer.Bytes(), nil
	}
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if encodeError := encoder.Encode(value); encodeError != nil {
		return nil, encodeError
	}
	return bytes.TrimRight(buffer.Bytes(), "\n"), nil
}

func formatFloat(value float64, bitSize int) ([]byte, error) {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return nil, fmt.Errorf("unsupported float value %s", strconv.FormatFloat(value, 'g', -1, bitSize))
	}
	format := byte('f')
	if absoluteValue := math.Abs(value); absoluteValue != 0 && (absoluteValue < 1e-6 || absoluteValue >= 1e21) {
		format = 'e'
	}
	text := strconv.FormatFloat(value, format, -1, bitSize)
	if !strings.ContainsAny(text, floatMarkers) {
		text += ".0"
	}
	return []byte(text), nil
}
