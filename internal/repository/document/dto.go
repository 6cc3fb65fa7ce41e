package document

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
)

// docDTO is the stored shape shared by the three collections.
// Imported data is loosely typed, so every field decodes leniently: a value of
// an unexpected type reads as absent instead of failing the whole document.
type docDTO struct {
	ID         bson.RawValue `bson:"_id"`
	Title      looseString   `bson:"title"`
	Name       looseString   `bson:"name"`
	Content    looseString   `bson:"content"`
	Categories stringList    `bson:"categories"`
	Keywords   stringList    `bson:"keywords"`
	Department looseString   `bson:"department"`
	CreatedAt  bsonDate      `bson:"createdAt"`
	Embedding  floatList     `bson:"embedding"`
	FilePath   looseString   `bson:"filePath"`
	Bucket     looseString   `bson:"bucket"`
	Summary    looseString   `bson:"summary"`
	FileType   looseString   `bson:"fileType"`
}

func (d *docDTO) toDomain(c domdoc.Collection) domdoc.Document {
	var emb []float32
	if len(d.Embedding) > 0 {
		emb = make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			emb[i] = float32(v)
		}
	}
	return domdoc.Document{
		ID:         idString(d.ID),
		Collection: c,
		Title:      string(d.Title),
		Name:       string(d.Name),
		Content:    string(d.Content),
		Categories: d.Categories,
		Keywords:   d.Keywords,
		Department: string(d.Department),
		CreatedAt:  d.CreatedAt.Date,
		Embedding:  emb,
		FilePath:   string(d.FilePath),
		Bucket:     string(d.Bucket),
		Summary:    string(d.Summary),
		FileType:   string(d.FileType),
	}
}

func idString(v bson.RawValue) string {
	switch v.Type {
	case bsontype.ObjectID:
		return v.ObjectID().Hex()
	case bsontype.String:
		return v.StringValue()
	case 0:
		return ""
	default:
		return strings.Trim(v.String(), `"`)
	}
}

// parseID turns a rendered id back into the stored _id value.
func parseID(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

// looseString accepts a string or a scalar number or bool, rendered as text.
// Any other type reads as empty.
type looseString string

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (s *looseString) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	*s = looseString(scalarText(bson.RawValue{Type: t, Value: data}))
	return nil
}

func scalarText(v bson.RawValue) string {
	switch v.Type {
	case bsontype.String:
		return v.StringValue()
	case bsontype.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case bsontype.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case bsontype.Double:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	case bsontype.Boolean:
		return strconv.FormatBool(v.Boolean())
	default:
		return ""
	}
}

// stringList accepts an array, a single scalar or null. Non-scalar elements
// are dropped and any other type reads as empty.
type stringList []string

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (l *stringList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*l = nil
	case bsontype.Array:
		vals, err := raw.Array().Values()
		if err != nil {
			return fmt.Errorf("decode string list: %w", err)
		}
		out := make(stringList, 0, len(vals))
		for _, v := range vals {
			if s := strings.TrimSpace(scalarText(v)); s != "" {
				out = append(out, s)
			}
		}
		*l = out
	default:
		if s := strings.TrimSpace(scalarText(raw)); s != "" {
			*l = stringList{s}
		} else {
			*l = nil
		}
	}
	return nil
}

// floatList decodes a stored vector. Any non-numeric element makes the whole
// vector unusable, so it reads as absent and the document is not scored.
type floatList []float64

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (l *floatList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	*l = nil
	if t != bsontype.Array {
		return nil
	}
	vals, err := bson.RawValue{Type: t, Value: data}.Array().Values()
	if err != nil {
		return fmt.Errorf("decode embedding: %w", err)
	}
	out := make(floatList, 0, len(vals))
	for _, v := range vals {
		switch v.Type {
		case bsontype.Double:
			out = append(out, v.Double())
		case bsontype.Int32:
			out = append(out, float64(v.Int32()))
		case bsontype.Int64:
			out = append(out, float64(v.Int64()))
		default:
			return nil
		}
	}
	*l = out
	return nil
}

// bsonDate decodes every date shape found in the collections.
type bsonDate struct {
	domdoc.Date
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (d *bsonDate) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	d.Date = decodeDate(bson.RawValue{Type: t, Value: data})
	return nil
}

// decodeDate never fails: anything unrecognized is treated as absent.
func decodeDate(v bson.RawValue) domdoc.Date {
	switch v.Type {
	case bsontype.DateTime:
		return domdoc.DateFromTime(v.Time())
	case bsontype.Timestamp:
		sec, _ := v.Timestamp()
		return domdoc.DateFromTime(time.Unix(int64(sec), 0))
	case bsontype.String:
		s := strings.TrimSpace(v.StringValue())
		if strings.HasPrefix(s, "{") {
			if inner, ok := extJSONValue(s); ok {
				return decodeDate(inner)
			}
		}
		return domdoc.DateFromString(s)
	case bsontype.EmbeddedDocument:
		inner, err := v.Document().LookupErr("$date")
		if err != nil {
			return domdoc.Date{}
		}
		return decodeWrappedDate(inner)
	default:
		return domdoc.Date{}
	}
}

// decodeWrappedDate handles the value of a {$date: ...} wrapper. Unlike a
// bare string field, a wrapped string is a real timestamp and is normalized.
func decodeWrappedDate(v bson.RawValue) domdoc.Date {
	switch v.Type {
	case bsontype.String:
		s := v.StringValue()
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return domdoc.DateFromTime(t)
		}
		return domdoc.DateFromString(s)
	case bsontype.EmbeddedDocument:
		nl, err := v.Document().LookupErr("$numberLong")
		if err != nil {
			return domdoc.Date{}
		}
		s, ok := nl.StringValueOK()
		if !ok {
			return domdoc.Date{}
		}
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return domdoc.Date{}
		}
		return domdoc.DateFromTime(time.UnixMilli(ms))
	case bsontype.Int64:
		return domdoc.DateFromTime(time.UnixMilli(v.Int64()))
	case bsontype.Int32:
		return domdoc.DateFromTime(time.UnixMilli(int64(v.Int32())))
	case bsontype.Double:
		return domdoc.DateFromTime(time.UnixMilli(int64(v.Double())))
	default:
		return decodeDate(v)
	}
}

// extJSONValue parses a date stored as extended-JSON text, e.g. {"$date":"..."}.
func extJSONValue(s string) (bson.RawValue, bool) {
	var wrapped bson.Raw
	if err := bson.UnmarshalExtJSON([]byte(`{"v":`+s+`}`), false, &wrapped); err != nil {
		return bson.RawValue{}, false
	}
	v, err := wrapped.LookupErr("v")
	if err != nil {
		return bson.RawValue{}, false
	}
	return v, true
}
