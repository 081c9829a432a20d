package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeOnLoginIntoEmptyDurable(t *testing.T) {
	t.Parallel()

	local := Items{
		line("1", "8 inch", "55.99", 1, "Chocolate"),
		line("2", "Box of 6", "18.50", 2, "Lemon"),
	}

	state, upserts := MergeOnLogin(local, Items{})

	assert.Equal(t, local, state.Durable)
	assert.Equal(t, state.Durable, state.Mirror)
	assert.Equal(t, local, upserts)
	assert.Equal(t, local, state.Authoritative())
}

func TestMergeOnLoginAddsQuantitiesAndTakesGuestAttributes(t *testing.T) {
	t.Parallel()

	durable := Items{
		line("1", "8 inch", "55.99", 2, "Vanilla"),
		line("3", "Loaf", "12.00", 1, "Classic"),
	}
	local := Items{line("1", "8 inch", "54.00", 1, "Chocolate")}

	state, upserts := MergeOnLogin(local, durable)

	require.Len(t, state.Durable, 2)
	merged, ok := state.Durable.Find(Key{ProductID: "1", SizeName: "8 inch"})
	require.True(t, ok)
	assert.Equal(t, 3, merged.Quantity)
	assert.Equal(t, "Chocolate", merged.Flavor)
	assert.Equal(t, "54", merged.SizePrice.String())

	require.Len(t, upserts, 1)
	assert.Equal(t, merged, upserts[0])
	assert.Equal(t, 2, durable[0].Quantity, "input must not be mutated")
}

func TestMergeOnLoginCollapsesDuplicateGuestLines(t *testing.T) {
	t.Parallel()

	local := Items{
		line("1", "8 inch", "55.99", 1, "Chocolate"),
		line("1", "8 inch", "55.99", 2, "Vanilla"),
	}
	state, upserts := MergeOnLogin(local, nil)

	require.Len(t, upserts, 1)
	assert.Equal(t, 3, upserts[0].Quantity)
	assert.Equal(t, "Vanilla", upserts[0].Flavor)
	assert.Len(t, state.Durable, 1)
}

func TestShopperOwners(t *testing.T) {
	t.Parallel()

	guest := Shopper{GuestID: "abc"}
	assert.False(t, guest.Authenticated())
	assert.Equal(t, "guest:abc", guest.owner())

	userID := uuid.New()
	user := Shopper{GuestID: "abc", UserID: userID}
	assert.True(t, user.Authenticated())
	assert.Equal(t, "user:"+userID.String(), user.owner())
	assert.Equal(t, "guest:abc", user.guestOwner())

	assert.Equal(t, "", Shopper{}.owner())
	assert.Equal(t, Items{}, Anonymous{Local: Items{}}.Authoritative())
}
