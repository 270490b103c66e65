package domain

import "testing"

func TestPackEntityID_RoundTrip(t *testing.T) {
	cases := []struct {
		kind  EntityKind
		index int64
	}{
		{KindPlayer, 1},
		{KindPlayer, 123456},
		{KindTree, 1},
		{KindChest, 42},
	}

	for _, c := range cases {
		id := PackEntityID(c.kind, c.index)
		if id.EntityKind() != c.kind {
			t.Errorf("kind lost: packed %v, got %v", c.kind, id.EntityKind())
		}
		if id.Index() != c.index {
			t.Errorf("index lost: packed %d, got %d", c.index, id.Index())
		}
	}
}

func TestPackEntityID_PlayerIDsAreSmallInts(t *testing.T) {
	// KindPlayer = 0, поэтому ID игроков совпадают со своим индексом.
	// На это полагается протокол: первый клиент получает entityId=1.
	if id := PackEntityID(KindPlayer, 1); int64(id) != 1 {
		t.Errorf("first player id must be 1, got %d", int64(id))
	}
}

func TestPackEntityID_KindsDoNotCollide(t *testing.T) {
	a := PackEntityID(KindPlayer, 7)
	b := PackEntityID(KindTree, 7)
	c := PackEntityID(KindChest, 7)

	if a == b || b == c || a == c {
		t.Error("ids of different kinds with the same index must differ")
	}
}
