package repository

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var ErrUnsupported = errors.New("unsupported by in-memory store")

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func valuesEqual(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// groupKey renders a value so that values equal under valuesEqual share a key.
func groupKey(v interface{}) string {
	if f, ok := toFloat(v); ok {
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return "s:" + t
	case bson.ObjectID:
		return "o:" + t.Hex()
	}
	return fmt.Sprintf("%T:%v", v, v)
}

func toArray(v interface{}) (bson.A, bool) {
	switch t := v.(type) {
	case bson.A:
		return t, true
	case []interface{}:
		return bson.A(t), true
	}
	return nil, false
}

func cloneDoc(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

// toDocument normalizes any marshalable value into the representation the
// in-memory store keeps, so ints and ids compare the same way Mongo sees them.
func toDocument(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// matches supports the equality filters used by the book queries.
func matches(doc bson.M, filter bson.M) (bool, error) {
	for field, want := range filter {
		if len(field) > 0 && field[0] == '$' {
			return false, fmt.Errorf("%w: filter operator %s", ErrUnsupported, field)
		}
		if !valuesEqual(doc[field], want) {
			return false, nil
		}
	}
	return true, nil
}
