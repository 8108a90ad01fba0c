package members

import (
	"context"
	"errors"
	"testing"

	"github.com/mymmrac/telego"

	"serotonyl.ru/habit-bot/internal/common"
)

type fakeStore struct {
	members map[int64]*Member
	creates int
	updates int
	reads   int
	readErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{members: make(map[int64]*Member)}
}

func (f *fakeStore) Create(_ context.Context, m *Member) error {
	f.creates++
	c := *m
	f.members[m.UserID] = &c
	return nil
}

func (f *fakeStore) GetByUserID(_ context.Context, userID int64) (*Member, error) {
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	m, ok := f.members[userID]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	c := *m
	return &c, nil
}

func (f *fakeStore) UpdateInfo(_ context.Context, userID int64, info UpdateInfo) error {
	f.updates++
	m := f.members[userID]
	m.Username, m.FirstName, m.LastName = info.Username, info.FirstName, info.LastName
	return nil
}

type fakeBalances struct {
	created []int64
}

func (f *fakeBalances) CreateBalance(_ context.Context, userID int64) error {
	f.created = append(f.created, userID)
	return nil
}

func TestEnsureMemberRegistersOnce(t *testing.T) {
	store := newFakeStore()
	balances := &fakeBalances{}
	svc := NewService(store, balances)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.EnsureMember(ctx, 42, "runner", "Иван", ""); err != nil {
			t.Fatalf("EnsureMember: %v", err)
		}
	}
	if store.creates != 1 || len(balances.created) != 1 {
		t.Fatalf("creates = %d, balances = %v", store.creates, balances.created)
	}
	if store.reads != 1 {
		t.Fatalf("repeated calls should hit the cache, reads = %d", store.reads)
	}
}

func TestEnsureMemberUpdatesChangedInfo(t *testing.T) {
	store := newFakeStore()
	store.members[42] = &Member{UserID: 42, Username: "old", FirstName: "Иван"}
	svc := NewService(store, &fakeBalances{})
	ctx := context.Background()

	if err := svc.EnsureMember(ctx, 42, "old", "Иван", ""); err != nil {
		t.Fatalf("EnsureMember: %v", err)
	}
	if store.updates != 0 {
		t.Fatalf("unchanged info updated %d times", store.updates)
	}

	if err := svc.EnsureMember(ctx, 42, "new", "Иван", ""); err != nil {
		t.Fatalf("EnsureMember: %v", err)
	}
	if store.updates != 1 || store.members[42].DisplayName() != "@new" {
		t.Fatalf("updates = %d, member = %+v", store.updates, store.members[42])
	}
}

func TestEnsureMemberPropagatesErrors(t *testing.T) {
	store := newFakeStore()
	store.readErr = errors.New("db down")
	svc := NewService(store, nil)

	if err := svc.EnsureMember(context.Background(), 42, "", "Иван", ""); err == nil {
		t.Fatal("expected error")
	}
	if store.creates != 0 {
		t.Fatal("member created despite read error")
	}
}

func TestHandleNewChatMembersSkipsBots(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(NewService(store, nil))

	h.HandleNewChatMembers(context.Background(), []telego.User{
		{ID: 1, FirstName: "Анна"},
		{ID: 2, FirstName: "helper", IsBot: true},
	})
	if _, ok := store.members[1]; !ok {
		t.Fatal("user not registered")
	}
	if _, ok := store.members[2]; ok {
		t.Fatal("bot registered")
	}
}

func TestDisplayName(t *testing.T) {
	m := &Member{FirstName: "Иван", LastName: "Петров"}
	if got := m.DisplayName(); got != "Иван Петров" {
		t.Fatalf("DisplayName = %q", got)
	}
}
