package repository

import (
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Match keeps the documents equal to Filter on every listed field.
type Match struct {
	Filter bson.M
}

func (s Match) BSON() bson.D {
	return bson.D{{Key: "$match", Value: s.Filter}}
}

func (s Match) Apply(_ Resolver, docs []bson.M) ([]bson.M, error) {
	out := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		ok, err := matches(doc, s.Filter)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Accumulator is one computed field of a Group stage.
type Accumulator struct {
	Name string
	Op   string
	Arg  interface{}
}

func Avg(name, field string) Accumulator {
	return Accumulator{Name: name, Op: "$avg", Arg: "$" + field}
}

func Count(name string) Accumulator {
	return Accumulator{Name: name, Op: "$sum", Arg: 1}
}

func AddToSet(name, field string) Accumulator {
	return Accumulator{Name: name, Op: "$addToSet", Arg: "$" + field}
}

// Group buckets documents by the value of By. Buckets keep the order in
// which their key was first seen, and so do $addToSet members.
type Group struct {
	By     string
	Fields []Accumulator
}

func (s Group) BSON() bson.D {
	group := bson.D{{Key: "_id", Value: "$" + s.By}}
	for _, acc := range s.Fields {
		group = append(group, bson.E{Key: acc.Name, Value: bson.D{{Key: acc.Op, Value: acc.Arg}}})
	}
	return bson.D{{Key: "$group", Value: group}}
}

type bucket struct {
	key    interface{}
	states []*accState
}

type accState struct {
	sum     float64
	n       int
	integer bool
	set     bson.A
}

func (s Group) Apply(_ Resolver, docs []bson.M) ([]bson.M, error) {
	var order []*bucket
	byKey := map[string]*bucket{}

	for _, doc := range docs {
		key := doc[s.By]
		k := groupKey(key)
		b, ok := byKey[k]
		if !ok {
			b = &bucket{key: key, states: make([]*accState, len(s.Fields))}
			for i := range b.states {
				b.states[i] = &accState{integer: true, set: bson.A{}}
			}
			byKey[k] = b
			order = append(order, b)
		}
		for i, acc := range s.Fields {
			if err := accumulate(b.states[i], acc, doc); err != nil {
				return nil, err
			}
		}
	}

	out := make([]bson.M, 0, len(order))
	for _, b := range order {
		row := bson.M{"_id": b.key}
		for i, acc := range s.Fields {
			row[acc.Name] = b.states[i].result(acc.Op)
		}
		out = append(out, row)
	}
	return out, nil
}

func argValue(arg interface{}, doc bson.M) interface{} {
	if ref, ok := arg.(string); ok && len(ref) > 1 && ref[0] == '$' {
		return doc[ref[1:]]
	}
	return arg
}

func accumulate(st *accState, acc Accumulator, doc bson.M) error {
	v := argValue(acc.Arg, doc)
	switch acc.Op {
	case "$avg", "$sum":
		f, ok := toFloat(v)
		if !ok {
			return nil
		}
		if f != math.Trunc(f) {
			st.integer = false
		}
		if _, isFloat := v.(float64); isFloat {
			st.integer = false
		}
		st.sum += f
		st.n++
	case "$addToSet":
		if v == nil {
			return nil
		}
		for _, seen := range st.set {
			if valuesEqual(seen, v) {
				return nil
			}
		}
		st.set = append(st.set, v)
	default:
		return fmt.Errorf("%w: accumulator %s", ErrUnsupported, acc.Op)
	}
	return nil
}

func (st *accState) result(op string) interface{} {
	switch op {
	case "$avg":
		if st.n == 0 {
			return nil
		}
		return st.sum / float64(st.n)
	case "$sum":
		if st.integer {
			return int64(st.sum)
		}
		return st.sum
	}
	return st.set
}

// Expr is a projection expression.
type Expr interface {
	BSON() interface{}
	Eval(doc bson.M) (interface{}, bool, error)
}

type fieldRef string

func Field(name string) Expr { return fieldRef(name) }

func (f fieldRef) BSON() interface{} { return "$" + string(f) }

func (f fieldRef) Eval(doc bson.M) (interface{}, bool, error) {
	v, ok := doc[string(f)]
	return v, ok, nil
}

type toObjectID struct{ in Expr }

// ToObjectID converts a hex string to an ObjectID, like $toObjectId.
func ToObjectID(in Expr) Expr { return toObjectID{in: in} }

func (e toObjectID) BSON() interface{} {
	return bson.D{{Key: "$toObjectId", Value: e.in.BSON()}}
}

func (e toObjectID) Eval(doc bson.M) (interface{}, bool, error) {
	v, _, err := e.in.Eval(doc)
	if err != nil {
		return nil, false, err
	}
	switch t := v.(type) {
	case nil:
		return nil, true, nil
	case bson.ObjectID:
		return t, true, nil
	case string:
		id, err := bson.ObjectIDFromHex(t)
		if err != nil {
			return nil, false, fmt.Errorf("$toObjectId: failed to parse objectId '%s': %w", t, err)
		}
		return id, true, nil
	}
	return nil, false, fmt.Errorf("$toObjectId: unsupported conversion from %T", v)
}

type reverseArray struct{ in Expr }

func ReverseArray(in Expr) Expr { return reverseArray{in: in} }

func (e reverseArray) BSON() interface{} {
	return bson.D{{Key: "$reverseArray", Value: e.in.BSON()}}
}

func (e reverseArray) Eval(doc bson.M) (interface{}, bool, error) {
	v, _, err := e.in.Eval(doc)
	if err != nil {
		return nil, false, err
	}
	if v == nil {
		return nil, true, nil
	}
	arr, ok := toArray(v)
	if !ok {
		return nil, false, fmt.Errorf("$reverseArray: argument must be an array, got %T", v)
	}
	out := make(bson.A, len(arr))
	for i, item := range arr {
		out[len(arr)-1-i] = item
	}
	return out, true, nil
}

// Projection is one output field of a Project stage.
type Projection struct {
	Name    string
	Expr    Expr
	include bool
	exclude bool
}

func Include(name string) Projection { return Projection{Name: name, include: true} }

func Exclude(name string) Projection { return Projection{Name: name, exclude: true} }

func Computed(name string, expr Expr) Projection { return Projection{Name: name, Expr: expr} }

type Project struct {
	Fields []Projection
}

func (s Project) BSON() bson.D {
	project := bson.D{}
	for _, p := range s.Fields {
		switch {
		case p.include:
			project = append(project, bson.E{Key: p.Name, Value: 1})
		case p.exclude:
			project = append(project, bson.E{Key: p.Name, Value: 0})
		default:
			project = append(project, bson.E{Key: p.Name, Value: p.Expr.BSON()})
		}
	}
	return bson.D{{Key: "$project", Value: project}}
}

func (s Project) Apply(_ Resolver, docs []bson.M) ([]bson.M, error) {
	keepID := true
	for _, p := range s.Fields {
		if p.exclude && p.Name == "_id" {
			keepID = false
		}
	}

	out := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		row := bson.M{}
		if id, ok := doc["_id"]; ok && keepID {
			row["_id"] = id
		}
		for _, p := range s.Fields {
			switch {
			case p.exclude:
			case p.include:
				if v, ok := doc[p.Name]; ok {
					row[p.Name] = v
				}
			default:
				v, _, err := p.Expr.Eval(doc)
				if err != nil {
					return nil, err
				}
				row[p.Name] = v
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// Lookup embeds the documents of From whose ForeignField equals LocalField.
type Lookup struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
}

func (s Lookup) BSON() bson.D {
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: s.From},
		{Key: "localField", Value: s.LocalField},
		{Key: "foreignField", Value: s.ForeignField},
		{Key: "as", Value: s.As},
	}}}
}

func (s Lookup) Apply(r Resolver, docs []bson.M) ([]bson.M, error) {
	foreign, err := r.Documents(s.From)
	if err != nil {
		return nil, err
	}

	out := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		joined := bson.A{}
		for _, f := range foreign {
			if valuesEqual(f[s.ForeignField], doc[s.LocalField]) {
				joined = append(joined, cloneDoc(f))
			}
		}
		row := cloneDoc(doc)
		row[s.As] = joined
		out = append(out, row)
	}
	return out, nil
}

// Unwind emits one document per element of Path. Documents where Path is
// missing, null or an empty array are dropped.
type Unwind struct {
	Path string
}

func (s Unwind) BSON() bson.D {
	return bson.D{{Key: "$unwind", Value: "$" + s.Path}}
}

func (s Unwind) Apply(_ Resolver, docs []bson.M) ([]bson.M, error) {
	out := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		v, ok := doc[s.Path]
		if !ok || v == nil {
			continue
		}
		arr, isArray := toArray(v)
		if !isArray {
			out = append(out, doc)
			continue
		}
		for _, item := range arr {
			row := cloneDoc(doc)
			row[s.Path] = item
			out = append(out, row)
		}
	}
	return out, nil
}
