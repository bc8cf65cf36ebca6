package entity

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Date is a time stored as a BSON date. It also accepts plain "2006-01-02" dates from JSON;
// an empty string decodes to the zero Date, like null.
type Date struct {
	time.Time
}

func NewDate(t time.Time) *Date {
	return &Date{Time: t.UTC()}
}

// NilIfZero returns nil for a missing or zero date, so that optional dates sent empty are not stored.
func NilIfZero(d *Date) *Date {
	if d == nil || d.IsZero() {
		return nil
	}
	return d
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	_, err := time.Parse(time.RFC3339, s)
	return err
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.UTC())
}

func (d Date) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(d.Time.UTC())
}

func (d *Date) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null {
		return nil
	}
	var tm time.Time
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&tm); err != nil {
		return err
	}
	d.Time = tm.UTC()
	return nil
}
