package bsonwalk

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	// BinaryDirective decodes values of either form:
	//
	//	{"$binary": "aGVsbG8="}                                   // subtype 0
	//	{"$binary": {"base64": "aGVsbG8=", "subType": "04"}}      // explicit subtype
	BinaryDirective = NewDirective("ext.binary", decodeBinary)

	// ObjectIDDirective decodes {"$oid": "<24 hex digits>"}.
	ObjectIDDirective = NewDirective("ext.oid", decodeObjectID)

	// TimestampDirective decodes {"$timestamp": {"t": <seconds>, "i": <increment>}}.
	TimestampDirective = NewDirective("ext.timestamp", decodeTimestamp)

	// DecimalDirective decodes {"$numberDecimal": "1.25"}.
	DecimalDirective = NewDirective("ext.numberDecimal", decodeDecimal)

	// DateDirective decodes values of any of the forms:
	//
	//	{"$date": "2024-01-02T03:04:05.678Z"}
	//	{"$date": {"$numberLong": "1704164645678"}}
	//	{"$date": 1704164645678}
	DateDirective = NewDirective("ext.date", decodeDate)

	LongDirective   = NewDirective("ext.numberLong", decodeLong)
	IntDirective    = NewDirective("ext.numberInt", decodeInt)
	DoubleDirective = NewDirective("ext.numberDouble", decodeDouble)

	// RegexDirective decodes {"$regularExpression": {"pattern": "^a", "options": "i"}}.
	RegexDirective = NewDirective("ext.regularExpression", decodeRegex)

	// CodeDirective decodes {"$code": "..."} and, with a "$scope" document
	// alongside, code with scope.
	CodeDirective      = NewDirective("ext.code", decodeCode)
	SymbolDirective    = NewDirective("ext.symbol", decodeSymbol)
	MinKeyDirective    = NewDirective("ext.minKey", decodeMinKey)
	MaxKeyDirective    = NewDirective("ext.maxKey", decodeMaxKey)
	UndefinedDirective = NewDirective("ext.undefined", decodeUndefined)

	// DBPointerDirective decodes {"$dbPointer": {"$ref": "coll", "$id": {"$oid": "..."}}}.
	DBPointerDirective = NewDirective("ext.dbPointer", decodeDBPointer)
)

// ExtendedJSON bundles every extended JSON directive.
func ExtendedJSON() Registration {
	return Group(
		BinaryDirective,
		ObjectIDDirective,
		TimestampDirective,
		DecimalDirective,
		DateDirective,
		LongDirective,
		IntDirective,
		DoubleDirective,
		RegexDirective,
		CodeDirective,
		SymbolDirective,
		MinKeyDirective,
		MaxKeyDirective,
		UndefinedDirective,
		DBPointerDirective,
	)
}

func decodeString(dec *jsontext.Decoder) (string, error) {
	var s string
	if err := json.UnmarshalDecode(dec, &s); err != nil {
		return "", err
	}
	return s, nil
}

func decodeBinary(dec *jsontext.Decoder) (bson.Binary, error) {
	if dec.PeekKind() == '{' {
		var aux struct {
			Base64  string `json:"base64"`
			SubType string `json:"subType"`
		}
		if err := json.UnmarshalDecode(dec, &aux); err != nil {
			return bson.Binary{}, err
		}
		data, err := base64.StdEncoding.DecodeString(aux.Base64)
		if err != nil {
			return bson.Binary{}, fmt.Errorf("base64: %w", err)
		}
		var subtype uint64
		if aux.SubType != "" {
			subtype, err = strconv.ParseUint(aux.SubType, 16, 8)
			if err != nil {
				return bson.Binary{}, fmt.Errorf("subType %q: %w", aux.SubType, err)
			}
		}
		return bson.Binary{Subtype: byte(subtype), Data: data}, nil
	}

	s, err := decodeString(dec)
	if err != nil {
		return bson.Binary{}, err
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return bson.Binary{}, fmt.Errorf("base64: %w", err)
	}
	return bson.Binary{Data: data}, nil
}

func decodeObjectID(dec *jsontext.Decoder) (bson.ObjectID, error) {
	s, err := decodeString(dec)
	if err != nil {
		return bson.ObjectID{}, err
	}
	return bson.ObjectIDFromHex(s)
}

func decodeTimestamp(dec *jsontext.Decoder) (bson.Timestamp, error) {
	var aux struct {
		T uint32 `json:"t"`
		I uint32 `json:"i"`
	}
	if err := json.UnmarshalDecode(dec, &aux); err != nil {
		return bson.Timestamp{}, err
	}
	return bson.Timestamp{T: aux.T, I: aux.I}, nil
}

func decodeDecimal(dec *jsontext.Decoder) (bson.Decimal128, error) {
	s, err := decodeString(dec)
	if err != nil {
		return bson.Decimal128{}, err
	}
	return bson.ParseDecimal128(s)
}

func decodeDate(dec *jsontext.Decoder) (bson.DateTime, error) {
	switch dec.PeekKind() {
	case '{':
		var aux struct {
			NumberLong string `json:"$numberLong"`
		}
		if err := json.UnmarshalDecode(dec, &aux); err != nil {
			return 0, err
		}
		ms, err := strconv.ParseInt(aux.NumberLong, 10, 64)
		if err != nil {
			return 0, err
		}
		return bson.DateTime(ms), nil
	case '0':
		var ms int64
		if err := json.UnmarshalDecode(dec, &ms); err != nil {
			return 0, err
		}
		return bson.DateTime(ms), nil
	default:
		s, err := decodeString(dec)
		if err != nil {
			return 0, err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return 0, err
		}
		return bson.NewDateTimeFromTime(t), nil
	}
}

func decodeLong(dec *jsontext.Decoder) (int64, error) {
	s, err := decodeString(dec)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}

func decodeInt(dec *jsontext.Decoder) (int32, error) {
	s, err := decodeString(dec)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

func decodeDouble(dec *jsontext.Decoder) (float64, error) {
	s, err := decodeString(dec)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}

func decodeRegex(dec *jsontext.Decoder) (bson.Regex, error) {
	var aux struct {
		Pattern string `json:"pattern"`
		Options string `json:"options"`
	}
	if err := json.UnmarshalDecode(dec, &aux); err != nil {
		return bson.Regex{}, err
	}
	return bson.Regex{Pattern: aux.Pattern, Options: aux.Options}, nil
}

// decodeCode reads the code string and then the rest of the object, since
// a "$scope" sibling turns the value into code with scope. Other siblings
// are skipped.
func decodeCode(dec *jsontext.Decoder) (any, error) {
	code, err := decodeString(dec)
	if err != nil {
		return nil, err
	}
	var scope any
	for dec.PeekKind() == '"' {
		var name string
		if err := json.UnmarshalDecode(dec, &name); err != nil {
			return nil, err
		}
		if name != "$scope" {
			if err := dec.SkipValue(); err != nil {
				return nil, err
			}
			continue
		}
		if err := json.UnmarshalDecode(dec, &scope); err != nil {
			return nil, fmt.Errorf("$scope: %w", err)
		}
		if _, ok := scope.(Document); !ok {
			return nil, fmt.Errorf("$scope is %s, want document", KindOf(scope))
		}
	}
	if scope == nil {
		return bson.JavaScript(code), nil
	}
	return bson.CodeWithScope{Code: bson.JavaScript(code), Scope: scope}, nil
}

func decodeSymbol(dec *jsontext.Decoder) (bson.Symbol, error) {
	s, err := decodeString(dec)
	return bson.Symbol(s), err
}

func decodeMinKey(dec *jsontext.Decoder) (bson.MinKey, error) {
	return bson.MinKey{}, dec.SkipValue()
}

func decodeMaxKey(dec *jsontext.Decoder) (bson.MaxKey, error) {
	return bson.MaxKey{}, dec.SkipValue()
}

func decodeUndefined(dec *jsontext.Decoder) (bson.Undefined, error) {
	return bson.Undefined{}, dec.SkipValue()
}

func decodeDBPointer(dec *jsontext.Decoder) (bson.DBPointer, error) {
	var aux struct {
		Ref string `json:"$ref"`
		ID  struct {
			OID string `json:"$oid"`
		} `json:"$id"`
	}
	if err := json.UnmarshalDecode(dec, &aux); err != nil {
		return bson.DBPointer{}, err
	}
	oid, err := bson.ObjectIDFromHex(aux.ID.OID)
	if err != nil {
		return bson.DBPointer{}, err
	}
	return bson.DBPointer{DB: aux.Ref, Pointer: oid}, nil
}
