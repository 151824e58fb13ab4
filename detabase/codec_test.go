package detabase_test

import (
	"encoding/json"
	"testing"

	"github.com/raywall/deta-toolkit/detabase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	Name  string   `json:"name"`
	Age   int      `json:"age"`
	Likes []string `json:"likes,omitempty"`
}

type boxed struct {
	Value int `json:"value"`
}

type inner struct {
	A int `json:"a"`
}

type nested struct {
	Value inner `json:"value"`
}

func envelopeOf(t *testing.T, s string) detabase.Envelope {
	t.Helper()
	var env detabase.Envelope
	require.NoError(t, json.Unmarshal([]byte(s), &env))
	return env
}

func jsonOf(t *testing.T, env detabase.Envelope) string {
	t.Helper()
	b, err := json.Marshal(env)
	require.NoError(t, err)
	return string(b)
}

func TestEncode(t *testing.T) {
	t.Parallel()

	t.Run("scalar with key is wrapped", func(t *testing.T) {
		env, err := detabase.Encode(detabase.NewItemWithKey("id1", 60))
		require.NoError(t, err)
		assert.JSONEq(t, `{"key":"id1","value":60}`, jsonOf(t, env))
	})

	t.Run("scalar without key has no key field", func(t *testing.T) {
		env, err := detabase.Encode(detabase.NewItem("hello"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"value":"hello"}`, jsonOf(t, env))
	})

	t.Run("list is wrapped", func(t *testing.T) {
		env, err := detabase.Encode(detabase.NewItemWithKey("l", []int{1, 2, 3}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"key":"l","value":[1,2,3]}`, jsonOf(t, env))
	})

	t.Run("object is flattened", func(t *testing.T) {
		env, err := detabase.Encode(detabase.NewItemWithKey("u1", user{Name: "ana", Age: 30}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"key":"u1","name":"ana","age":30}`, jsonOf(t, env))
	})

	t.Run("item key overrides key inside the value", func(t *testing.T) {
		value := map[string]any{"key": "inner", "n": 1}
		env, err := detabase.Encode(detabase.NewItemWithKey("outer", value))
		require.NoError(t, err)
		assert.JSONEq(t, `{"key":"outer","n":1}`, jsonOf(t, env))
	})

	t.Run("value key is kept when the item has none", func(t *testing.T) {
		value := map[string]any{"key": "inner", "n": 1}
		env, err := detabase.Encode(detabase.NewItem(value))
		require.NoError(t, err)
		assert.JSONEq(t, `{"key":"inner","n":1}`, jsonOf(t, env))
	})

	t.Run("unserializable value", func(t *testing.T) {
		_, err := detabase.Encode(detabase.NewItem(make(chan int)))
		require.Error(t, err)
		assert.ErrorIs(t, err, detabase.ErrSerializationFailed)
		assert.ErrorIs(t, err, detabase.ErrRequestMalformed)
	})
}

func TestDecodeSingle(t *testing.T) {
	t.Parallel()

	t.Run("compact scalar", func(t *testing.T) {
		v, err := detabase.DecodeSingle[int](envelopeOf(t, `{"key":"id1","value":60}`))
		require.NoError(t, err)
		assert.Equal(t, 60, v)
	})

	t.Run("compact list", func(t *testing.T) {
		v, err := detabase.DecodeSingle[[]string](envelopeOf(t, `{"key":"l","value":["a","b"]}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, v)
	})

	t.Run("object drops key", func(t *testing.T) {
		v, err := detabase.DecodeSingle[map[string]any](envelopeOf(t, `{"key":"u1","name":"ana","age":30}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "ana", "age": float64(30)}, v)
	})

	t.Run("object into struct", func(t *testing.T) {
		v, err := detabase.DecodeSingle[user](envelopeOf(t, `{"key":"u1","name":"ana","age":30}`))
		require.NoError(t, err)
		assert.Equal(t, user{Name: "ana", Age: 30}, v)
	})

	t.Run("object without key", func(t *testing.T) {
		_, err := detabase.DecodeSingle[user](envelopeOf(t, `{"name":"ana","age":30,"likes":[]}`))
		assert.ErrorIs(t, err, detabase.ErrKeyMissing)
		assert.ErrorIs(t, err, detabase.ErrResponseMalformed)
	})

	t.Run("single field without key", func(t *testing.T) {
		_, err := detabase.DecodeSingle[user](envelopeOf(t, `{"name":"ana"}`))
		assert.ErrorIs(t, err, detabase.ErrKeyMissing)
	})

	t.Run("two fields without value", func(t *testing.T) {
		_, err := detabase.DecodeSingle[int](envelopeOf(t, `{"key":"k","other":1}`))
		assert.ErrorIs(t, err, detabase.ErrDeserializationFailed)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := detabase.DecodeSingle[int](envelopeOf(t, `{"key":"k","value":"sixty"}`))
		assert.ErrorIs(t, err, detabase.ErrDeserializationFailed)
	})
}

func TestDecodeItem_RoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("int", func(t *testing.T) {
		item := detabase.NewItemWithKey("a", 42)
		env, err := detabase.Encode(item)
		require.NoError(t, err)
		got, err := detabase.DecodeItem[int](env)
		require.NoError(t, err)
		assert.Equal(t, item, got)
	})

	t.Run("string without key", func(t *testing.T) {
		item := detabase.NewItem("hello")
		env, err := detabase.Encode(item)
		require.NoError(t, err)
		got, err := detabase.DecodeItem[string](env)
		require.NoError(t, err)
		assert.Equal(t, item, got)
	})

	t.Run("struct", func(t *testing.T) {
		item := detabase.NewItemWithKey("u1", user{Name: "ana", Age: 30, Likes: []string{"ramen"}})
		env, err := detabase.Encode(item)
		require.NoError(t, err)
		got, err := detabase.DecodeItem[user](env)
		require.NoError(t, err)
		assert.Equal(t, item, got)
	})

	t.Run("struct with a single value field", func(t *testing.T) {
		item := detabase.NewItemWithKey("b", boxed{Value: 7})
		env, err := detabase.Encode(item)
		require.NoError(t, err)
		got, err := detabase.DecodeItem[boxed](env)
		require.NoError(t, err)
		assert.Equal(t, item, got)
	})

	t.Run("struct with an object value field", func(t *testing.T) {
		item := detabase.NewItemWithKey("n", nested{Value: inner{A: 1}})
		env, err := detabase.Encode(item)
		require.NoError(t, err)
		got, err := detabase.DecodeItem[nested](env)
		require.NoError(t, err)
		assert.Equal(t, item, got)
	})

	t.Run("map with a value field", func(t *testing.T) {
		item := detabase.NewItemWithKey("m", map[string]any{"value": map[string]any{"x": float64(1)}})
		env, err := detabase.Encode(item)
		require.NoError(t, err)
		got, err := detabase.DecodeItem[map[string]any](env)
		require.NoError(t, err)
		assert.Equal(t, item, got)
	})

	t.Run("pointer to struct", func(t *testing.T) {
		item := detabase.NewItemWithKey("p", &nested{Value: inner{A: 2}})
		env, err := detabase.Encode(item)
		require.NoError(t, err)
		got, err := detabase.DecodeItem[*nested](env)
		require.NoError(t, err)
		assert.Equal(t, item, got)
	})

	t.Run("interface keeps the wrapped form", func(t *testing.T) {
		got, err := detabase.DecodeItem[any](envelopeOf(t, `{"key":"i","value":60}`))
		require.NoError(t, err)
		assert.Equal(t, detabase.NewItemWithKey[any]("i", float64(60)), got)
	})

	t.Run("scalar without value field", func(t *testing.T) {
		_, err := detabase.DecodeItem[int](envelopeOf(t, `{"key":"k","other":1}`))
		assert.ErrorIs(t, err, detabase.ErrDeserializationFailed)
	})

	t.Run("non string key", func(t *testing.T) {
		_, err := detabase.DecodeItem[int](envelopeOf(t, `{"key":1,"value":2}`))
		assert.ErrorIs(t, err, detabase.ErrDeserializationFailed)
	})
}

func TestItem_JSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(detabase.NewItemWithKey("id1", 60))
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"id1","value":60}`, string(b))

	var item detabase.Item[user]
	require.NoError(t, json.Unmarshal([]byte(`{"key":"u1","name":"ana","age":30}`), &item))
	assert.Equal(t, "u1", item.Key)
	assert.Equal(t, user{Name: "ana", Age: 30}, item.Value)

	assert.ErrorIs(t, json.Unmarshal([]byte(`null`), &item), detabase.ErrDeserializationFailed)
}
