package fakeuserrepo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-session-auth/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory user directory. Stored users are copied in and out
// so callers cannot mutate repository state without calling Upsert.
type FakeUserRepo struct {
	users    map[int64]*users.User
	emailIds map[string]int64 // lower-cased email to user id
	nextID   int64
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[int64]*users.User),
		emailIds: make(map[string]int64),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := ur.emailIds[key]; ok {
		return users.ErrEmailTaken
	}

	ur.nextID++
	now := time.Now().UTC()
	user.ID = ur.nextID
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	ur.users[user.ID] = &stored
	ur.emailIds[key] = user.ID
	return nil
}

func (ur *FakeUserRepo) Upsert(ctx context.Context, user *users.User) error {
	if user.ID == 0 {
		return ur.Create(ctx, user)
	}

	ur.lock.Lock()
	defer ur.lock.Unlock()

	existing, ok := ur.users[user.ID]
	if !ok {
		return users.ErrUserNotFound
	}

	key := strings.ToLower(user.Email)
	if id, ok := ur.emailIds[key]; ok && id != user.ID {
		return users.ErrEmailTaken
	}
	delete(ur.emailIds, strings.ToLower(existing.Email))

	user.UpdatedAt = time.Now().UTC()
	stored := *user
	ur.users[user.ID] = &stored
	ur.emailIds[key] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[strings.ToLower(email)]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	user := *ur.users[id]
	return &user, nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id int64) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	stored, ok := ur.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	user := *stored
	return &user, nil
}

// Delete removes a user by id. Used by tests exercising tokens held by deleted accounts.
func (ur *FakeUserRepo) Delete(id int64) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if stored, ok := ur.users[id]; ok {
		delete(ur.emailIds, strings.ToLower(stored.Email))
		delete(ur.users, id)
	}
}
