package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimplify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"leading and trailing", "   test   ", "test"},
		{"leading only", "    test", "test"},
		{"trailing only", "test     ", "test"},
		{"line break variants", "test\r\n\ftest", "test\ntest"},
		{"horizontal whitespace", "test \t\vtest", "test test"},
		{"multi-byte preserved", "M. Lorena González", "M. Lorena González"},
		{"empty", "", ""},
		{"only whitespace", " \t\r\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Simplify(tt.input))
		})
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	inputs := []string{
		"  a  b  c  ",
		"line one\r\nline two\fline three",
		"M. Lorena González",
		"tabs\tand\vmore",
		"",
	}

	for _, s := range inputs {
		once := Simplify(s)
		assert.Equal(t, once, Simplify(once), "Simplify should be idempotent for %q", s)
	}
}

func TestReduce(t *testing.T) {
	a := &Person{Name: "a"}
	b := &Person{Name: "b"}

	assert.Equal(t, []*Person{a, b}, Reduce([]*Person{a, nil, b}, true))
	assert.Nil(t, Reduce([]*Person{nil, nil}, true))

	kept := Reduce([]*Person{nil, nil}, false)
	assert.NotNil(t, kept)
	assert.Empty(t, kept)

	assert.Nil(t, Reduce([]*Person{}, true))
}
