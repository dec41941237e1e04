package dao

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB is nil when no Docker daemon is reachable; tests skip themselves.
var testDB *gorm.DB

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err == nil {
		err = pool.Client.Ping()
	}
	if err != nil {
		log.Printf("skipping dao tests, docker unavailable: %v", err)
		os.Exit(m.Run())
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=atelierhq_test",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	dsn := fmt.Sprintf("host=localhost port=%v user=postgres password=secret dbname=atelierhq_test sslmode=disable",
		resource.GetPort("5432/tcp"))

	pool.MaxWait = 2 * time.Minute
	if err = pool.Retry(func() error {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return err
		}
		testDB = db

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	}); err != nil {
		log.Fatalf("could not connect to postgres container: %v", err)
	}

	if err = InitTables(testDB); err != nil {
		log.Fatalf("could not migrate tables: %v", err)
	}

	code := m.Run()

	if err = pool.Purge(resource); err != nil {
		log.Printf("could not purge postgres container: %v", err)
	}

	os.Exit(code)
}

func requireDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testDB == nil {
		t.Skip("docker unavailable")
	}
	return testDB
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) User {
	t.Helper()
	user, err := NewUserDAO(db).Insert(context.Background(), User{
		Email: email, Password: "x", Role: role, Name: "Test User",
	})
	require.NoError(t, err)
	return user
}

func seedFamily(t *testing.T, db *gorm.DB, code string) Family {
	t.Helper()
	family := Family{Code: code, Name: code}
	require.NoError(t, db.Create(&family).Error)
	return family
}

func seedWorkshop(t *testing.T, db *gorm.DB, familyID, organizerID uint, audience int) Workshop {
	t.Helper()
	start := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
	workshop, err := NewWorkshopDAO(db).Insert(context.Background(), Workshop{
		FamilyID:        familyID,
		Type:            "atelier",
		Title:           "Test workshop",
		StartAt:         start,
		EndAt:           start.Add(3 * time.Hour),
		AudienceNumber:  audience,
		LifecycleStatus: "active",
		OrganizerID:     organizerID,
	})
	require.NoError(t, err)
	return workshop
}

func TestParticipationDAO_RegisterCapacityAndDuplicates(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	dao := NewParticipationDAO(db)

	organizer := seedUser(t, db, "org-capacity@test.local", "organisateur")
	family := seedFamily(t, db, "capacity")
	workshop := seedWorkshop(t, db, family.ID, organizer.ID, 1)

	// The organizer seed row exists but holds no seat.
	seats, err := NewWorkshopDAO(db).CountSeats(ctx, workshop.ID)
	require.NoError(t, err)
	assert.Zero(t, seats)

	alice := seedUser(t, db, "alice-capacity@test.local", "participant")
	bob := seedUser(t, db, "bob-capacity@test.local", "participant")

	first, err := dao.Register(ctx, Participation{
		WorkshopID: workshop.ID, UserID: alice.ID,
		Role: "participant", Status: "inscrit", PaymentStatus: "none",
		TicketType: "gratuit",
	})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	// Same user again.
	_, err = dao.Register(ctx, Participation{
		WorkshopID: workshop.ID, UserID: alice.ID,
		Role: "participant", Status: "inscrit", PaymentStatus: "none",
		TicketType: "gratuit",
	})
	require.ErrorIs(t, err, ErrDuplicateRegistration)

	// The single seat is taken.
	_, err = dao.Register(ctx, Participation{
		WorkshopID: workshop.ID, UserID: bob.ID,
		Role: "participant", Status: "inscrit", PaymentStatus: "none",
		TicketType: "gratuit",
	})
	require.ErrorIs(t, err, ErrCapacityExceeded)

	// A full roster rejects pending bookings too.
	carol := seedUser(t, db, "carol-capacity@test.local", "participant")
	_, err = dao.Register(ctx, Participation{
		WorkshopID: workshop.ID, UserID: carol.ID,
		Role: "participant", Status: "en_attente", PaymentStatus: "pending",
		TicketType: "normal", PricePaid: 1500,
	})
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestParticipationDAO_RegisterRace(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	dao := NewParticipationDAO(db)

	organizer := seedUser(t, db, "org-race@test.local", "organisateur")
	family := seedFamily(t, db, "race")
	workshop := seedWorkshop(t, db, family.ID, organizer.ID, 1)

	alice := seedUser(t, db, "alice-race@test.local", "participant")
	bob := seedUser(t, db, "bob-race@test.local", "participant")

	// Both contenders race for the single seat; the row lock inside
	// Register serializes them.
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, user := range []User{alice, bob} {
		wg.Add(1)
		go func(i int, userID uint) {
			defer wg.Done()
			_, errs[i] = dao.Register(ctx, Participation{
				WorkshopID: workshop.ID, UserID: userID,
				Role: "participant", Status: "inscrit", PaymentStatus: "none",
				TicketType: "gratuit",
			})
		}(i, user.ID)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrCapacityExceeded):
			lost++
		default:
			t.Fatalf("unexpected register error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)

	seats, err := NewWorkshopDAO(db).CountSeats(ctx, workshop.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, seats)
}

func TestParticipationDAO_StatusMachine(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	dao := NewParticipationDAO(db)

	organizer := seedUser(t, db, "org-machine@test.local", "organisateur")
	family := seedFamily(t, db, "machine")
	workshop := seedWorkshop(t, db, family.ID, organizer.ID, 10)
	user := seedUser(t, db, "user-machine@test.local", "participant")

	p, err := dao.Register(ctx, Participation{
		WorkshopID: workshop.ID, UserID: user.ID,
		Role: "participant", Status: "en_attente", PaymentStatus: "pending",
		TicketType: "normal", PricePaid: 1500,
	})
	require.NoError(t, err)

	// Refund from en_attente is an illegal transition.
	_, err = dao.Refund(ctx, p.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	paid, err := dao.ConfirmPayment(ctx, p.ID, time.Now(), "pi_123")
	require.NoError(t, err)
	assert.Equal(t, "paye", paid.Status)
	assert.Equal(t, "paid", paid.PaymentStatus)
	assert.Equal(t, "pi_123", paid.PaymentRef)

	// A second confirmation finds no en_attente row.
	_, err = dao.ConfirmPayment(ctx, p.ID, time.Now(), "pi_456")
	require.ErrorIs(t, err, ErrInvalidState)

	// Removing a paid row is blocked until it is refunded.
	err = dao.Delete(ctx, p.ID)
	require.ErrorIs(t, err, ErrPaymentPending)

	refunded, err := dao.Refund(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "rembourse", refunded.Status)
	assert.Equal(t, "refunded", refunded.PaymentStatus)

	// Re-inscription resets the payment but keeps the price snapshot.
	back, err := dao.Reinscribe(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "inscrit", back.Status)
	assert.Equal(t, "none", back.PaymentStatus)
	assert.Equal(t, 1500, back.PricePaid)

	canceled, err := dao.Cancel(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "annule", canceled.Status)

	require.NoError(t, dao.Delete(ctx, p.ID))
}

func TestParticipationDAO_Exchange(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	dao := NewParticipationDAO(db)

	organizer := seedUser(t, db, "org-exchange@test.local", "organisateur")
	family := seedFamily(t, db, "exchange")
	source := seedWorkshop(t, db, family.ID, organizer.ID, 10)
	target := seedWorkshop(t, db, family.ID, organizer.ID, 10)
	user := seedUser(t, db, "user-exchange@test.local", "participant")

	p, err := dao.Register(ctx, Participation{
		WorkshopID: source.ID, UserID: user.ID,
		Role: "participant", Status: "paye", PaymentStatus: "paid",
		TicketType: "normal", PricePaid: 1500, PaymentRef: "pi_789",
	})
	require.NoError(t, err)

	_, err = dao.Exchange(ctx, p.ID, source.ID)
	require.ErrorIs(t, err, ErrSameWorkshop)

	replacement, err := dao.Exchange(ctx, p.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, replacement.WorkshopID)
	assert.Equal(t, "paye", replacement.Status)
	assert.Equal(t, 1500, replacement.PricePaid)
	assert.Equal(t, "pi_789", replacement.PaymentRef)
	require.NotNil(t, replacement.ExchangeParentParticipationID)
	assert.Equal(t, p.ID, *replacement.ExchangeParentParticipationID)

	// The source row is now terminal.
	old, err := dao.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "echange", old.Status)

	_, err = dao.Exchange(ctx, p.ID, target.ID)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestWorkshopDAO_RescheduleVersioning(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	workshopDAO := NewWorkshopDAO(db)
	participationDAO := NewParticipationDAO(db)

	organizer := seedUser(t, db, "org-versions@test.local", "organisateur")
	family := seedFamily(t, db, "versions")
	workshop := seedWorkshop(t, db, family.ID, organizer.ID, 10)
	user := seedUser(t, db, "user-versions@test.local", "participant")

	p, err := participationDAO.Register(ctx, Participation{
		WorkshopID: workshop.ID, UserID: user.ID,
		Role: "participant", Status: "inscrit", PaymentStatus: "none",
		TicketType: "gratuit",
	})
	require.NoError(t, err)
	assert.Equal(t, workshop.DateConfirmationVersion, p.DateConfirmationVersion)

	newStart := workshop.StartAt.Add(7 * 24 * time.Hour)
	updated, err := workshopDAO.Reschedule(ctx, workshop.ID, newStart, newStart.Add(3*time.Hour), 0, workshop.DateConfirmationVersion)
	require.NoError(t, err)
	assert.Equal(t, workshop.DateConfirmationVersion+1, updated.DateConfirmationVersion)
	assert.True(t, updated.ModifiedDateFlag)
	// Location dimension is untouched by a date edit.
	assert.Equal(t, workshop.LocationConfirmationVersion, updated.LocationConfirmationVersion)

	// A second edit on the stale base version is refused.
	_, err = workshopDAO.Reschedule(ctx, workshop.ID, newStart, newStart.Add(3*time.Hour), 0, workshop.DateConfirmationVersion)
	require.ErrorIs(t, err, ErrStaleWorkshop)

	// The participant is now behind and confirms the date only.
	confirmed, err := participationDAO.ConfirmDate(ctx, p.ID, workshop.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.DateConfirmationVersion, confirmed.DateConfirmationVersion)
	assert.Equal(t, p.LocationConfirmationVersion, confirmed.LocationConfirmationVersion)
}

func TestWorkshopDAO_Lifecycle(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	dao := NewWorkshopDAO(db)

	organizer := seedUser(t, db, "org-lifecycle@test.local", "organisateur")
	family := seedFamily(t, db, "lifecycle")
	workshop := seedWorkshop(t, db, family.ID, organizer.ID, 10)

	closed, err := dao.Close(ctx, workshop.ID)
	require.NoError(t, err)
	assert.Equal(t, "closed", closed.LifecycleStatus)

	// Closed workshops cannot be canceled or closed again.
	_, err = dao.Cancel(ctx, workshop.ID)
	require.ErrorIs(t, err, ErrWorkshopInactive)
	_, err = dao.Close(ctx, workshop.ID)
	require.ErrorIs(t, err, ErrWorkshopInactive)

	// Closed workshops feed the organizer's progression.
	mine, err := dao.FindClosedByOrganizer(ctx, organizer.ID, family.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, workshop.ID, mine[0].ID)
}
