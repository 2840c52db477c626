//go:build integration

package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomrent/marketplace/internal/models"
)

var testDB *sqlx.DB

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=roomrent_test",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start PostgreSQL resource: %s", err)
	}
	_ = resource.Expire(300)

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s/roomrent_test?sslmode=disable", resource.GetHostPort("5432/tcp"))
	pool.MaxWait = 2 * time.Minute
	if err := pool.Retry(func() error {
		var errRetry error
		testDB, errRetry = sqlx.Connect("postgres", dsn)
		return errRetry
	}); err != nil {
		log.Fatalf("Could not connect to PostgreSQL: %s", err)
	}

	if err := InitializeTables(context.Background(), testDB); err != nil {
		log.Fatalf("Could not initialize tables: %s", err)
	}

	code := m.Run()

	testDB.Close()
	if err := pool.Purge(resource); err != nil {
		log.Printf("Could not purge PostgreSQL resource: %s", err)
	}
	os.Exit(code)
}

func seedUser(t *testing.T, role models.Role) *models.User {
	t.Helper()
	ctx := context.Background()

	id := uuid.NewString()
	email := fmt.Sprintf("%s@example.com", id)
	require.NoError(t, NewIdentityRepository(testDB).Create(ctx, &models.Identity{
		ID:           id,
		Email:        email,
		PasswordHash: "hash",
	}))

	user := &models.User{ID: id, Name: "User " + id[:8], Email: email, Phone: "017", Role: role}
	require.NoError(t, NewUserRepository(testDB).Create(ctx, user))
	return user
}

func seedListing(t *testing.T, ownerID, location string, available bool) *models.Listing {
	t.Helper()

	listing := &models.Listing{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Title:      "Room in " + location,
		Rent:       12000,
		Location:   location,
		Facilities: []string{"WiFi"},
		Images:     []string{"http://images/a.jpg"},
		Available:  available,
	}
	require.NoError(t, NewListingRepository(testDB).Create(context.Background(), listing))
	return listing
}

func ids(listings []*models.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func TestIdentityRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewIdentityRepository(testDB)

	first := &models.Identity{ID: uuid.NewString(), Email: "Dup@Example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, &models.Identity{ID: uuid.NewString(), Email: "dup@example.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, models.ErrAuth)

	found, err := repo.GetByEmail(ctx, "DUP@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), models.ErrNotFound)
}

func TestListingRepository_SearchAvailable(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository(testDB)
	owner := seedUser(t, models.RoleOwner)

	visible := seedListing(t, owner.ID, "Gulshan 100% Avenue", true)
	hidden := seedListing(t, owner.ID, "Gulshan Circle", false)
	wildcard := seedListing(t, owner.ID, "Gulshan 1000 Road", true)

	found, err := repo.SearchAvailable(ctx, "gulshan")
	require.NoError(t, err)
	assert.Contains(t, ids(found), visible.ID)
	assert.Contains(t, ids(found), wildcard.ID)
	assert.NotContains(t, ids(found), hidden.ID)

	found, err = repo.SearchAvailable(ctx, "100%")
	require.NoError(t, err)
	assert.Contains(t, ids(found), visible.ID)
	assert.NotContains(t, ids(found), wildcard.ID)

	for _, l := range found {
		require.NotNil(t, l.Owner)
		assert.Equal(t, owner.Name, l.Owner.Name)
	}

	all, err := repo.SearchAvailable(ctx, "")
	require.NoError(t, err)
	assert.NotContains(t, ids(all), hidden.ID)
}

func TestListingRepository_OwnerScopedWrites(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository(testDB)
	owner := seedUser(t, models.RoleOwner)
	stranger := seedUser(t, models.RoleOwner)
	listing := seedListing(t, owner.ID, "Banani", true)

	_, err := repo.GetOwned(ctx, listing.ID, stranger.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	forged := *listing
	forged.OwnerID = stranger.ID
	forged.Title = "Hijacked"
	assert.ErrorIs(t, repo.Update(ctx, &forged), models.ErrNotFound)

	listing.Title = "Bright room"
	listing.Images = []string{"http://images/b.jpg", "http://images/a.jpg"}
	require.NoError(t, repo.Update(ctx, listing))

	stored, err := repo.GetWithOwner(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bright room", stored.Title)
	assert.Equal(t, []string{"http://images/b.jpg", "http://images/a.jpg"}, stored.Images)

	available, err := repo.ToggleAvailability(ctx, listing.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, available)

	available, err = repo.ToggleAvailability(ctx, listing.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, available)

	_, err = repo.ToggleAvailability(ctx, listing.ID, stranger.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	owned, err := repo.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{listing.ID}, ids(owned))

	assert.ErrorIs(t, repo.Delete(ctx, listing.ID, stranger.ID), models.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, listing.ID, owner.ID))

	_, err = repo.GetWithOwner(ctx, listing.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMessageRepository_Threads(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageRepository(testDB)
	owner := seedUser(t, models.RoleOwner)
	tenant := seedUser(t, models.RoleTenant)
	other := seedUser(t, models.RoleTenant)
	listing := seedListing(t, owner.ID, "Dhanmondi", true)

	send := func(sender, receiver *models.User, body string) *models.Message {
		msg := &models.Message{
			ID:         uuid.NewString(),
			ListingID:  listing.ID,
			SenderID:   sender.ID,
			ReceiverID: receiver.ID,
			Message:    body,
		}
		require.NoError(t, repo.Create(ctx, msg))
		return msg
	}

	exists, err := repo.ExistsFromSender(ctx, listing.ID, tenant.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	first := send(tenant, owner, "Hello")
	second := send(owner, tenant, "Hi, still available")
	send(other, owner, "Is it free?")

	exists, err = repo.ExistsFromSender(ctx, listing.ID, tenant.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	thread, err := repo.ListThread(ctx, listing.ID, tenant.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, first.ID, thread[0].ID)
	assert.Equal(t, second.ID, thread[1].ID)
	assert.Equal(t, owner.Name, thread[1].Sender.Name)
	assert.Equal(t, tenant.Name, thread[1].Receiver.Name)

	inbox, err := repo.ListForUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 3)
	assert.False(t, inbox[0].CreatedAt.Before(inbox[2].CreatedAt))

	fetched, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", fetched.Message)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserRepository_Ping(t *testing.T) {
	require.NoError(t, NewUserRepository(testDB).Ping(context.Background()))

	_, err := NewUserRepository(testDB).GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMessageRepository_UnknownListing(t *testing.T) {
	ctx := context.Background()
	sender := seedUser(t, models.RoleTenant)
	receiver := seedUser(t, models.RoleOwner)

	err := NewMessageRepository(testDB).Create(ctx, &models.Message{
		ID:         uuid.NewString(),
		ListingID:  uuid.NewString(),
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Message:    "Hello",
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
}
