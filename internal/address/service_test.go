package address

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hperdana/go-commerce/internal/apperr"
)

type fakeRepo struct {
	byID       map[string]*Address
	defaultSet string
	deleted    string
}

func (f *fakeRepo) ByID(ctx context.Context, id string) (*Address, error) {
	return f.byID[id], nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID string) ([]Address, error) {
	var out []Address
	for _, a := range f.byID {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) Create(ctx context.Context, userID string, in Input) (*Address, error) {
	a := &Address{ID: "new", UserID: userID, Line1: in.Line1, City: in.City, Country: in.Country}
	if f.byID == nil {
		f.byID = map[string]*Address{}
	}
	f.byID[a.ID] = a
	return a, nil
}

func (f *fakeRepo) Update(ctx context.Context, id string, in Input) (*Address, error) {
	a := f.byID[id]
	a.Line1 = in.Line1
	return a, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	f.deleted = id
	delete(f.byID, id)
	return nil
}

func (f *fakeRepo) SetDefault(ctx context.Context, userID, id string) error {
	f.defaultSet = id
	return nil
}

func ownedFixture() *fakeRepo {
	return &fakeRepo{byID: map[string]*Address{
		"mine":   {ID: "mine", UserID: "u1", Line1: "1 Main St", City: "Oslo", Country: "NO"},
		"theirs": {ID: "theirs", UserID: "u2", Line1: "2 Side St", City: "Oslo", Country: "NO"},
	}}
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	svc := NewService(&fakeRepo{})

	_, err := svc.Create(context.Background(), "u1", Input{Line1: "1 Main St", City: "Oslo"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	a, err := svc.Create(context.Background(), "u1", Input{Line1: "1 Main St", City: "Oslo", Country: "NO"})
	require.NoError(t, err)
	assert.Equal(t, "u1", a.UserID)
}

func TestOwnershipChecks(t *testing.T) {
	repo := ownedFixture()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Update(ctx, "u1", "theirs", Input{Line1: "x"})
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))

	_, err = svc.Update(ctx, "u1", "missing", Input{Line1: "x"})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	err = svc.Delete(ctx, "u1", "theirs")
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))
	assert.Empty(t, repo.deleted)

	_, err = svc.SetDefault(ctx, "u1", "theirs")
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))
}

func TestUpdateDeleteSetDefaultOwned(t *testing.T) {
	repo := ownedFixture()
	svc := NewService(repo)
	ctx := context.Background()

	a, err := svc.Update(ctx, "u1", "mine", Input{Line1: "99 New St"})
	require.NoError(t, err)
	assert.Equal(t, "99 New St", a.Line1)

	_, err = svc.SetDefault(ctx, "u1", "mine")
	require.NoError(t, err)
	assert.Equal(t, "mine", repo.defaultSet)

	require.NoError(t, svc.Delete(ctx, "u1", "mine"))
	assert.Equal(t, "mine", repo.deleted)
}
