package mergetag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testContext() Context {
	return Context{
		"order": {
			"id":    "42",
			"total": 99.99,
		},
		"user": {
			"email": "a@b.com",
		},
	}
}

func TestResolve_SingleTag(t *testing.T) {
	t.Parallel()

	result := Resolve("{order:id}", testContext())
	assert.Equal(t, "42", result)
}

func TestResolve_MixedText(t *testing.T) {
	t.Parallel()

	ctx := Context{
		"order": {"id": "42"},
		"user":  {"email": "a@b.com"},
	}

	result := Resolve("Order {order:id} for {user:email}", ctx)
	assert.Equal(t, "Order 42 for a@b.com", result)
}

func TestResolve_PassThroughOnMiss(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
	}{
		{"empty context", "{unknown:field}"},
		{"unknown object type", "{customer:email}"},
		{"unknown field", "{order:shipping}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := Resolve(tt.template, testContext())
			assert.Equal(t, tt.template, result)
		})
	}
}

func TestResolve_NonTagBraces(t *testing.T) {
	t.Parallel()

	ctx := testContext()

	// No colon means no placeholder.
	assert.Equal(t, "{not_a_tag}", Resolve("{not_a_tag}", ctx))
	// More than one colon means no placeholder either.
	assert.Equal(t, "{a:b:c}", Resolve("{a:b:c}", ctx))
	// Empty segments are not placeholders.
	assert.Equal(t, "{:field}", Resolve("{:field}", ctx))
	assert.Equal(t, "{order:}", Resolve("{order:}", ctx))
	// Plain text around braces is preserved.
	assert.Equal(t, "a {b} c", Resolve("a {b} c", ctx))
}

func TestResolve_Idempotent(t *testing.T) {
	t.Parallel()

	ctx := testContext()
	template := "Order {order:id} totalling {order:total}"

	once := Resolve(template, ctx)
	twice := Resolve(once, ctx)

	assert.Equal(t, once, twice)
	assert.False(t, ContainsTag(once))
}

func TestResolve_CanonicalScalarForms(t *testing.T) {
	t.Parallel()

	ctx := Context{
		"order": {
			"total":     99.99,
			"items":     3,
			"recurring": true,
			"coupon":    nil,
		},
	}

	assert.Equal(t, "total=99.99", Resolve("total={order:total}", ctx))
	assert.Equal(t, "items=3", Resolve("items={order:items}", ctx))
	assert.Equal(t, "recurring=true", Resolve("recurring={order:recurring}", ctx))
	assert.Equal(t, "coupon=", Resolve("coupon={order:coupon}", ctx))
}

func TestResolveValue_StructuredWholeValue(t *testing.T) {
	t.Parallel()

	allFields := map[string]any{"name": "Jane", "message": "hello"}
	ctx := Context{
		"entry": {
			"id":         "7",
			"all_fields": allFields,
		},
	}

	// The entire value being one placeholder keeps the structured form.
	result := ResolveValue("{entry:all_fields}", ctx)
	assert.Equal(t, allFields, result)

	// Surrounding text forces a string.
	result = ResolveValue("fields={entry:all_fields}", ctx)
	assert.Equal(t, `fields={"message":"hello","name":"Jane"}`, result)

	// Scalars resolve to strings either way.
	assert.Equal(t, "7", ResolveValue("{entry:id}", ctx))
	assert.Equal(t, "id=7", ResolveValue("id={entry:id}", ctx))
}

func TestResolveValue_WholeValueMiss(t *testing.T) {
	t.Parallel()

	result := ResolveValue("{entry:all_fields}", Context{})
	assert.Equal(t, "{entry:all_fields}", result)
}
