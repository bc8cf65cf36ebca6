package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Ravi Kumar", CleanString(" \tRavi Kumar\n"))
	assert.Equal(t, "ravi@example.com", CleanString(" Ravi@Example.COM ", true))
	assert.Equal(t, "Ravi", CleanString("Ravi", false))
	assert.Empty(t, CleanString("   "))
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: []string{}},
		{in: " , ,", want: []string{}},
		{in: "notes", want: []string{"notes"}},
		{in: "notes, unit-1,, lab ", want: []string{"notes", "unit-1", "lab"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitList(tt.in), tt.in)
	}
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 3, ParseInt(" 3 ", 1))
	assert.Equal(t, -2, ParseInt("-2", 1))
	assert.Equal(t, 1, ParseInt("", 1))
	assert.Equal(t, 1, ParseInt("3.5", 1))
	assert.Equal(t, 0, ParseInt("three", 0))
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", " on", "1", "yes"} {
		assert.True(t, ParseBool(s), s)
	}
	for _, s := range []string{"", "false", "off", "0", "no", "lol"} {
		assert.False(t, ParseBool(s), s)
	}
}

func TestIsAllowedContentType(t *testing.T) {
	tests := []struct {
		ct   string
		want bool
	}{
		{ct: "application/pdf", want: true},
		{ct: "image/PNG", want: true},
		{ct: "image/jpeg; charset=binary", want: true},
		{ct: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", want: true},
		{ct: "text/plain"},
		{ct: "application/octet-stream"},
		{ct: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAllowedContentType(tt.ct), tt.ct)
	}
}

func TestParseOrdering(t *testing.T) {
	assert.Equal(t, []DBOrdering{{Field: "created_date"}, {Field: "title", Ascending: true}}, ParseOrdering("-created_date, title"))
	assert.Nil(t, ParseOrdering(" , -"))
	assert.Equal(t, "-pin", DBOrdering{Field: "pin"}.String())
	assert.Equal(t, "pin", DBOrdering{Field: "pin", Ascending: true}.String())
}

func TestParseID(t *testing.T) {
	_, err := ParseID("lol")
	assert.Equal(t, ErrInvalidID, err)

	oid, err := ParseID(" 64b7f0c2a1b2c3d4e5f60718 ")
	assert.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", oid.Hex())
}

func TestDocumentRoundTrip(t *testing.T) {
	type item struct {
		Name  string   `bson:"name"`
		Count int      `bson:"count"`
		Tags  []string `bson:"tags"`
	}

	doc, err := ToDocument(item{Name: "a", Count: 2, Tags: []string{"x"}})
	assert.NoError(t, err)
	assert.Equal(t, "a", doc["name"])

	same, err := ToDocument(doc)
	assert.NoError(t, err)
	assert.Equal(t, doc, same)

	var got item
	assert.NoError(t, FromDocument(doc, &got))
	assert.Equal(t, item{Name: "a", Count: 2, Tags: []string{"x"}}, got)
}

func TestErrors(t *testing.T) {
	dup, ok := IsDuplicate(&DuplicateError{Field: "pin"})
	assert.True(t, ok)
	assert.EqualError(t, dup, "pin must be unique")
	_, ok = IsDuplicate(ErrNotFound)
	assert.False(t, ok)

	err := NewShutdownError("stop")
	assert.True(t, IsShutdown(err))
	assert.False(t, IsShutdown(ErrNotFound))
}
