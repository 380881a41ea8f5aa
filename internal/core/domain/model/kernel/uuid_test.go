package kernel_test

import (
	"encoding/json"
	"testing"

	"orderflow/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUUID(t *testing.T) {
	t.Run("should create a new UUID", func(t *testing.T) {
		id := kernel.NewUUID()

		require.NoError(t, id.Validate())
		assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", id.String())
	})

	t.Run("should create unique UUIDs", func(t *testing.T) {
		id1 := kernel.NewUUID()
		id2 := kernel.NewUUID()

		assert.False(t, id1.IsEqual(id2))
	})
}

func TestUUIDFromString(t *testing.T) {
	validUUID := "550e8400-e29b-41d4-a716-446655440000"

	t.Run("should create UUID from valid string", func(t *testing.T) {
		id, err := kernel.UUIDFromString(validUUID)

		require.NoError(t, err)
		assert.Equal(t, validUUID, id.String())
	})

	t.Run("should accept UUID with urn prefix", func(t *testing.T) {
		id, err := kernel.UUIDFromString("urn:uuid:" + validUUID)

		require.NoError(t, err)
		assert.Equal(t, validUUID, id.String())
	})

	t.Run("should reject nil UUID", func(t *testing.T) {
		_, err := kernel.UUIDFromString(uuid.Nil.String())

		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	})

	t.Run("should return error for invalid UUID format", func(t *testing.T) {
		for _, input := range []string{"", "not-a-uuid", "550e8400-e29b-41d4-a716", "zzze8400-e29b-41d4-a716-446655440000"} {
			_, err := kernel.UUIDFromString(input)
			require.Error(t, err, input)
			assert.Contains(t, err.Error(), "invalid UUID format")
		}
	})
}

func TestUUIDFromBytes(t *testing.T) {
	t.Run("should round trip bytes", func(t *testing.T) {
		original := kernel.NewUUID()
		raw := original.Bytes()

		id, err := kernel.UUIDFromBytes(raw[:])

		require.NoError(t, err)
		assert.True(t, original.IsEqual(id))
	})

	t.Run("should return error for invalid byte length", func(t *testing.T) {
		_, err := kernel.UUIDFromBytes([]byte{1, 2, 3})
		require.Error(t, err)
	})

	t.Run("should reject all-zero bytes", func(t *testing.T) {
		_, err := kernel.UUIDFromBytes(make([]byte, 16))
		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	})
}

func TestUUID_Validate(t *testing.T) {
	var zero kernel.UUID

	require.ErrorIs(t, zero.Validate(), kernel.ErrUUIDIsNotConstructed)
	require.NoError(t, kernel.NewUUID().Validate())
}

func TestUUID_JSON(t *testing.T) {
	type payload struct {
		OrderID   kernel.UUID  `json:"orderId"`
		CourierID *kernel.UUID `json:"courierId"`
	}
	id := kernel.NewUUID()

	data, err := json.Marshal(payload{OrderID: id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"orderId":"`+id.String()+`","courierId":null}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, id.IsEqual(decoded.OrderID))
	assert.Nil(t, decoded.CourierID)
}

func TestEqualPtr(t *testing.T) {
	a := kernel.NewUUID()
	b := a
	c := kernel.NewUUID()

	assert.True(t, kernel.EqualPtr(nil, nil))
	assert.True(t, kernel.EqualPtr(&a, &b))
	assert.False(t, kernel.EqualPtr(&a, &c))
	assert.False(t, kernel.EqualPtr(&a, nil))
	assert.False(t, kernel.EqualPtr(nil, &c))
}
