package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// AnswerValue is a scalar answer: either text or a number.
// It encodes as a bare JSON/BSON string or number.
type AnswerValue struct {
	text     string
	number   float64
	isNumber bool
}

// Text builds a text answer
func Text(s string) AnswerValue {
	return AnswerValue{text: s}
}

// Number builds a numeric answer
func Number(n float64) AnswerValue {
	return AnswerValue{number: n, isNumber: true}
}

// IsNumber reports whether the value holds a number
func (v AnswerValue) IsNumber() bool { return v.isNumber }

// Float returns the numeric value; ok is false for text answers
func (v AnswerValue) Float() (float64, bool) {
	return v.number, v.isNumber
}

// String renders the value as text. Numbers use the shortest exact form.
func (v AnswerValue) String() string {
	if v.isNumber {
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	}
	return v.text
}

// IsBlank reports whether a text value is empty after trimming
func (v AnswerValue) IsBlank() bool {
	return !v.isNumber && strings.TrimSpace(v.text) == ""
}

// MarshalJSON implements json.Marshaler
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if v.isNumber {
		return json.Marshal(v.number)
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON implements json.Unmarshaler
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case string:
		*v = Text(x)
	case float64:
		*v = Number(x)
	default:
		return fmt.Errorf("answer must be a string or number, got %s", string(data))
	}
	return nil
}

// MarshalBSONValue implements bson.ValueMarshaler
func (v AnswerValue) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if v.isNumber {
		return bson.MarshalValue(v.number)
	}
	return bson.MarshalValue(v.text)
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler
func (v *AnswerValue) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		s, ok := rv.StringValueOK()
		if !ok {
			return fmt.Errorf("malformed string answer")
		}
		*v = Text(s)
	case bsontype.Double:
		*v = Number(rv.Double())
	case bsontype.Int32:
		*v = Number(float64(rv.Int32()))
	case bsontype.Int64:
		*v = Number(float64(rv.Int64()))
	default:
		return fmt.Errorf("unsupported answer type %s", t)
	}
	return nil
}

// AnswerMap holds a user's responses keyed by question id. It is the unit of
// persistence: loaded and saved whole.
type AnswerMap map[QuestionID]AnswerValue

// Clone returns an independent copy. A nil map clones to an empty one.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Equal reports whether both maps hold the same answers
func (m AnswerMap) Equal(other AnswerMap) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		o, ok := other[k]
		if !ok || o != v {
			return false
		}
	}
	return true
}

// Questionnaire is the stored answer record for one user and tax year
type Questionnaire struct {
	UserID    string    `json:"userId" bson:"userId"`
	Year      int       `json:"year" bson:"year"`
	Answers   AnswerMap `json:"answers" bson:"answers"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// RecordAnswerRequest is the request body for answering the current question
type RecordAnswerRequest struct {
	QuestionID QuestionID  `json:"questionId"`
	Value      AnswerValue `json:"value"`
}

// SeekRequest moves the cursor directly to an index
type SeekRequest struct {
	Index int `json:"index"`
}
