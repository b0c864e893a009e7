package form

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{"b": 1, "a": "x", "c": []any{true, nil}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":[true,null]}`, string(out))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	out, err := MarshalCanonical("<a & b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(out))
}

func TestMarshalCanonicalEscapesControl(t *testing.T) {
	out, err := MarshalCanonical("line\nbreak\x01\"q\"\\")
	require.NoError(t, err)
	assert.Equal(t, `"line\nbreak\u0001\"q\"\\"`, string(out))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent composes to U+00E9.
	decomposed, err := MarshalCanonical("cafe\u0301")
	require.NoError(t, err)
	composed, err := MarshalCanonical("caf\u00e9")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonicalUTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates D83D DE00, which sort before U+FF5E in
	// UTF-16 even though the code point is larger.
	out, err := MarshalCanonical(map[string]any{"～": 1, "\U0001F600": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"～\":1}", string(out))
}

func TestMarshalCanonicalRejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")
}

func TestMarshalCanonicalKeepsNumberText(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{"n": json.Number("1.50")})
	require.NoError(t, err)
	assert.Equal(t, `{"n":1.50}`, string(out))
}

func TestMarshalCanonicalStructs(t *testing.T) {
	r := Response{FieldID: "a", FieldType: TypeShortText, Answer: TextAnswer{Text: "x"}}
	out, err := MarshalCanonical(r)
	require.NoError(t, err)
	assert.Equal(t, `{"_id":"a","answer":"x","fieldType":"textfield"}`, string(out))
}

func TestSubmissionDigestStable(t *testing.T) {
	f, err := Decode([]byte(sampleForm))
	require.NoError(t, err)
	rs := []Response{
		{FieldID: "age", FieldType: TypeNumber, Answer: TextAnswer{Text: "20"}},
		{FieldID: "pets", FieldType: TypeCheckbox, Answer: ListAnswer{"Dog"}},
	}

	first, err := SubmissionDigest(f, rs)
	require.NoError(t, err)
	second, err := SubmissionDigest(f, rs)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)

	changed := []Response{rs[0], {FieldID: "pets", FieldType: TypeCheckbox, Answer: ListAnswer{"Cat"}}}
	third, err := SubmissionDigest(f, changed)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestFormDigestIgnoresKeyOrder(t *testing.T) {
	a, err := Decode([]byte(`{"_id":"x","title":"T","form_fields":[{"_id":"q","fieldType":"textfield","title":"Q"}]}`))
	require.NoError(t, err)
	b, err := Decode([]byte(`{"form_fields":[{"title":"Q","fieldType":"textfield","_id":"q"}],"title":"T","_id":"x"}`))
	require.NoError(t, err)

	da, err := FormDigest(a)
	require.NoError(t, err)
	db, err := FormDigest(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}
