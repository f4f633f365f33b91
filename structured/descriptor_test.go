package structured

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_WellFormed(t *testing.T) {
	assert.NoError(t, Check(productSchema()))
	assert.NoError(t, Check(intentSchema()))
	assert.NoError(t, Check(String()))
}

func TestCheck_Rejects(t *testing.T) {
	shared := String()
	assert.NoError(t, Check(Object(F("a", shared), F("b", shared))), "sharing a node is not a cycle")

	tests := []struct {
		name string
		d    Descriptor
		msg  string
	}{
		{"nil", nil, "descriptor is nil"},
		{"empty enum", Object(F("e", Enum())), "e: enum has no options"},
		{"bad bounds", Number().WithMin(2).WithMax(1), "min 2 exceeds max 1"},
		{"duplicate field", Object(F("a", String()), F("a", Number())), `duplicate field "a"`},
		{"empty field name", Object(F("", String())), "field name is empty"},
		{"nil element", Array(nil), "descriptor is nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.d)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestCheck_Cycle(t *testing.T) {
	obj := Object(F("name", String()))
	obj.Fields = append(obj.Fields, F("self", obj))
	assert.ErrorIs(t, Check(obj), ErrCyclicDescriptor)

	arr := Array(nil)
	arr.Element = Object(F("inner", arr))
	assert.ErrorIs(t, Check(arr), ErrCyclicDescriptor)
}

func TestNumberDescriptor_WithBoundsCopies(t *testing.T) {
	base := Number()
	bounded := base.WithMin(1)
	assert.Nil(t, base.Min, "WithMin must not mutate the receiver")
	assert.True(t, bounded.InRange(1))
	assert.False(t, bounded.InRange(0.5))
}

func TestObjectDescriptor_Field(t *testing.T) {
	d := productSchema()
	assert.Equal(t, KindNumber, d.Field("price").Kind())
	assert.Nil(t, d.Field("missing"))
}
