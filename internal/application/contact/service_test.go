package contact

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-contacts-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory contactStore for scenario tests.
type fakeStore struct {
	contacts map[string]domain.Contact
}

func newFakeStore() *fakeStore {
	return &fakeStore{contacts: map[string]domain.Contact{}}
}

func (f *fakeStore) Put(_ context.Context, c *domain.Contact) error {
	f.contacts[c.ContactID] = *c
	return nil
}

func (f *fakeStore) Get(_ context.Context, contactID string) (*domain.Contact, error) {
	c, ok := f.contacts[contactID]
	if !ok {
		return nil, fmt.Errorf("contact %s: %w", contactID, domain.ErrNotFound)
	}
	return &c, nil
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*domain.Contact, error) {
	for _, c := range f.contacts {
		if c.Email == email {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("contact email %s: %w", email, domain.ErrNotFound)
}

func (f *fakeStore) QueryByOwner(_ context.Context, userID string) ([]domain.Contact, error) {
	out := []domain.Contact{}
	for _, c := range f.contacts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, contactID string, updates map[string]interface{}) error {
	c, ok := f.contacts[contactID]
	if !ok {
		return fmt.Errorf("contact %s: %w", contactID, domain.ErrNotFound)
	}
	for k, v := range updates {
		switch k {
		case fieldName:
			c.Name = v.(string)
		case fieldSurname:
			c.Surname = v.(string)
		case fieldEmail:
			c.Email = v.(string)
		case fieldPhone:
			c.Phone = v.(string)
		case fieldBirthday:
			t, err := time.Parse(time.RFC3339, v.(string))
			if err != nil {
				return err
			}
			c.Birthday = t
		}
	}
	f.contacts[contactID] = c
	return nil
}

func (f *fakeStore) Delete(_ context.Context, contactID string) error {
	delete(f.contacts, contactID)
	return nil
}

func newTestService(store contactStore) *service {
	seq := 0
	return &service{
		repo: store,
		newID: func() string {
			seq++
			return fmt.Sprintf("01CONTACT%04d", seq)
		},
		now: func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) },
	}
}

func TestContactLifecycle(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner-1", domain.ContactRequest{
		Name: "test", Surname: "test", Email: "test@gmail.com",
		Phone: "123456789", Birthday: "2024-06-20",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ContactID)

	got, err := svc.Get(ctx, "owner-1", created.ContactID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := svc.Update(ctx, "owner-1", created.ContactID, domain.ContactRequest{
		Name: "renamed", Surname: "changed", Email: "renamed@gmail.com",
		Phone: "987654321", Birthday: "1990-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "renamed@gmail.com", updated.Email)
	assert.Equal(t, 1990, updated.Birthday.Year())

	got, err = svc.Get(ctx, "owner-1", created.ContactID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	deleted, err := svc.Delete(ctx, "owner-1", created.ContactID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", deleted.Name)

	_, err = svc.Get(ctx, "owner-1", created.ContactID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, "owner-1", domain.ContactRequest{
		Name: "a", Surname: "a", Email: "dupe@gmail.com", Phone: "1", Birthday: "2000-01-01",
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "owner-2", domain.ContactRequest{
		Name: "b", Surname: "b", Email: "dupe@gmail.com", Phone: "2", Birthday: "2000-01-01",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreate_InvalidBirthday(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Create(context.Background(), "owner-1", domain.ContactRequest{
		Name: "a", Surname: "a", Email: "a@gmail.com", Phone: "1", Birthday: "20-20-2000",
	})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpdate_SameEmailAllowed(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	c, err := svc.Create(ctx, "owner-1", domain.ContactRequest{
		Name: "a", Surname: "a", Email: "same@gmail.com", Phone: "1", Birthday: "2000-01-01",
	})
	require.NoError(t, err)

	// Re-submitting the contact's own email must not trip the uniqueness check.
	_, err = svc.Update(ctx, "owner-1", c.ContactID, domain.ContactRequest{
		Name: "a2", Surname: "a", Email: "same@gmail.com", Phone: "1", Birthday: "2000-01-01",
	})
	assert.NoError(t, err)
}

func TestOwnershipIsolation(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	mine, err := svc.Create(ctx, "owner-a", domain.ContactRequest{
		Name: "alice-friend", Surname: "x", Email: "af@gmail.com", Phone: "1", Birthday: "2000-01-01",
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "owner-b", domain.ContactRequest{
		Name: "bob-friend", Surname: "y", Email: "bf@gmail.com", Phone: "2", Birthday: "2000-02-02",
	})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "owner-b", mine.ContactID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Update(ctx, "owner-b", mine.ContactID, domain.ContactRequest{
		Name: "hijack", Surname: "x", Email: "af@gmail.com", Phone: "1", Birthday: "2000-01-01",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Delete(ctx, "owner-b", mine.ContactID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, f := range []ListFilter{{}, {Name: "friend"}, {Email: "gmail"}} {
		list, err := svc.List(ctx, "owner-b", f)
		require.NoError(t, err)
		for _, c := range list {
			assert.Equal(t, "owner-b", c.UserID)
		}
	}
}

func TestList_FilterAndPaging(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	names := []string{"Anna", "Annabel", "Bert", "Carla"}
	for i, n := range names {
		_, err := svc.Create(ctx, "owner-1", domain.ContactRequest{
			Name: n, Surname: "Smith", Email: fmt.Sprintf("%s%d@gmail.com", n, i),
			Phone: "123", Birthday: "2000-01-01",
		})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, "owner-1", ListFilter{Name: "ann"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Anna", list[0].Name)
	assert.Equal(t, "Annabel", list[1].Name)

	page, err := svc.List(ctx, "owner-1", ListFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Bert", page[0].Name)

	empty, err := svc.List(ctx, "owner-1", ListFilter{Offset: 99})
	require.NoError(t, err)
	assert.Empty(t, empty)

	none, err := svc.List(ctx, "owner-without-contacts", ListFilter{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUpcomingBirthdays_YearBoundary(t *testing.T) {
	svc := newTestService(newFakeStore())
	svc.now = func() time.Time { return time.Date(2024, 12, 28, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	for _, c := range []struct{ name, birthday string }{
		{"january", "2024-01-02"},
		{"past", "2024-12-20"},
		{"today", "1985-12-28"},
	} {
		_, err := svc.Create(ctx, "owner-1", domain.ContactRequest{
			Name: c.name, Surname: "s", Email: c.name + "@gmail.com", Phone: "1", Birthday: c.birthday,
		})
		require.NoError(t, err)
	}

	got, err := svc.UpcomingBirthdays(ctx, "owner-1")
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"january", "today"}, names)
}

func TestUpcomingBirthdays_MidMonth(t *testing.T) {
	svc := newTestService(newFakeStore())
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	for _, c := range []struct{ name, birthday string }{
		{"inside", "1999-06-12"},
		{"before", "1999-06-05"},
	} {
		_, err := svc.Create(ctx, "owner-1", domain.ContactRequest{
			Name: c.name, Surname: "s", Email: c.name + "@gmail.com", Phone: "1", Birthday: c.birthday,
		})
		require.NoError(t, err)
	}

	got, err := svc.UpcomingBirthdays(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "inside", got[0].Name)
}
