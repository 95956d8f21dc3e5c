package cadstore

import (
	"fmt"
	"strconv"
)

// DataType tags the encoding of a PropertyValue.
type DataType int

const (
	DataTypeBoolean DataType = 0
	DataTypeInteger DataType = 1
	DataTypeDouble  DataType = 2
	DataTypeString  DataType = 3
)

func (d DataType) String() string {
	switch d {
	case DataTypeBoolean:
		return "Boolean"
	case DataTypeInteger:
		return "Integer"
	case DataTypeDouble:
		return "Double"
	case DataTypeString:
		return "String"
	default:
		return fmt.Sprintf("DataType(%d)", int(d))
	}
}

// PropertyValue is a tagged union over {Boolean, Integer, Double, String},
// the encoding used by PropertyChanges.oldValue/newValue.
type PropertyValue struct {
	Type DataType
	Bool bool
	Int  int64
	Dbl  float64
	Str  string
}

func BoolValue(v bool) PropertyValue    { return PropertyValue{Type: DataTypeBoolean, Bool: v} }
func IntValue(v int64) PropertyValue    { return PropertyValue{Type: DataTypeInteger, Int: v} }
func DoubleValue(v float64) PropertyValue { return PropertyValue{Type: DataTypeDouble, Dbl: v} }
func StringValue(v string) PropertyValue  { return PropertyValue{Type: DataTypeString, Str: v} }

// encode renders the value as the BLOB/text representation stored in
// PropertyChanges.oldValue / newValue. Booleans and integers are encoded
// as their decimal text form so that the same SQLite TEXT/BLOB affinity
// column can hold any of the four variants.
func (v PropertyValue) encode() []byte {
	switch v.Type {
	case DataTypeBoolean:
		if v.Bool {
			return []byte("1")
		}
		return []byte("0")
	case DataTypeInteger:
		return []byte(strconv.FormatInt(v.Int, 10))
	case DataTypeDouble:
		return []byte(strconv.FormatFloat(v.Dbl, 'g', -1, 64))
	case DataTypeString:
		return []byte(v.Str)
	default:
		return nil
	}
}

// decodePropertyValue reconstructs a PropertyValue from its stored
// DataType discriminator and encoded bytes.
func decodePropertyValue(dataType DataType, raw []byte) (PropertyValue, error) {
	switch dataType {
	case DataTypeBoolean:
		return PropertyValue{Type: dataType, Bool: string(raw) == "1"}, nil
	case DataTypeInteger:
		n, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return PropertyValue{}, fmt.Errorf("cadstore: decoding integer property value: %w", err)
		}
		return PropertyValue{Type: dataType, Int: n}, nil
	case DataTypeDouble:
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return PropertyValue{}, fmt.Errorf("cadstore: decoding double property value: %w", err)
		}
		return PropertyValue{Type: dataType, Dbl: f}, nil
	case DataTypeString:
		return PropertyValue{Type: dataType, Str: string(raw)}, nil
	default:
		return PropertyValue{}, fmt.Errorf("cadstore: unknown property data type %d", int(dataType))
	}
}
