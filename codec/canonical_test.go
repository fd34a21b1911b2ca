package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type canonStruct struct {
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
	Data    []byte    `json:"data,omitempty"`
	Skip    string    `json:"-"`
}

func TestCanonicalize_SortsKeys(t *testing.T) {
	a, err := Canonicalize(map[string]interface{}{"b": 1, "a": 2, "c": 3})
	require.NoError(t, err)
	require.Equal(t, `{"a":2,"b":1,"c":3}`, string(a))
}

func TestCanonicalize_TimestampAndHexEncoding(t *testing.T) {
	in := canonStruct{
		Name:    "n",
		Created: time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC),
		Data:    []byte{0xde, 0xad},
		Skip:    "hidden",
	}
	out, err := Canonicalize(in)
	require.NoError(t, err)
	require.Equal(t, `{"created":"2024-01-02T03:04:05.006Z","data":"dead","name":"n"}`, string(out))
}

func TestCanonicalize_OmitemptyDropsZeroFields(t *testing.T) {
	out, err := Canonicalize(canonStruct{Name: "only"})
	require.NoError(t, err)
	require.Equal(t, `{"created":"0001-01-01T00:00:00.000Z","name":"only"}`, string(out))
}

func TestCanonicalize_NilAndEmptyCollections(t *testing.T) {
	out, err := Canonicalize(struct {
		M map[string]int `json:"m"`
		S []int          `json:"s"`
	}{})
	require.NoError(t, err)
	require.Equal(t, `{"m":null,"s":null}`, string(out))
}

func TestCanonicalize_DeterministicAcrossFieldOrder(t *testing.T) {
	type first struct {
		A string `json:"a"`
		B string `json:"b"`
	}
	type second struct {
		B string `json:"b"`
		A string `json:"a"`
	}
	o1, err := Canonicalize(first{A: "x", B: "y"})
	require.NoError(t, err)
	o2, err := Canonicalize(second{A: "x", B: "y"})
	require.NoError(t, err)
	require.Equal(t, string(o1), string(o2))
}

func TestCanonicalize_RejectsUncoercibleTypes(t *testing.T) {
	_, err := Canonicalize(struct {
		F func()
	}{F: func() {}})
	require.Error(t, err)
}
