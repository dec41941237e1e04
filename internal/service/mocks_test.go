package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atelierhq/atelier-api/internal/domain"
)

// Function-field stubs. Each test wires only the calls it expects; an
// unexpected call panics on the nil field and fails the test loudly.

type participationRepoStub struct {
	RegisterFn        func(ctx context.Context, p domain.Participation) (domain.Participation, error)
	FindByIDFn        func(ctx context.Context, id uint) (domain.Participation, error)
	FindByWorkshopFn  func(ctx context.Context, workshopID uint) ([]domain.Participation, error)
	FindByUserFn      func(ctx context.Context, userID uint) ([]domain.Participation, error)
	ConfirmPaymentFn  func(ctx context.Context, id uint, when time.Time, paymentRef string) (domain.Participation, error)
	RefundFn          func(ctx context.Context, id uint) (domain.Participation, error)
	CancelFn          func(ctx context.Context, id uint) (domain.Participation, error)
	ReinscribeFn      func(ctx context.Context, id uint) (domain.Participation, error)
	ExchangeFn        func(ctx context.Context, sourceID, targetWorkshopID uint) (domain.Participation, error)
	DeleteFn          func(ctx context.Context, id uint) error
	ConfirmDateFn     func(ctx context.Context, id, workshopID uint) (domain.Participation, error)
	ConfirmLocationFn func(ctx context.Context, id, workshopID uint) (domain.Participation, error)
	SetAttendanceFn   func(ctx context.Context, id uint, attended bool, now time.Time) (domain.Participation, error)
}

func (s *participationRepoStub) Register(ctx context.Context, p domain.Participation) (domain.Participation, error) {
	return s.RegisterFn(ctx, p)
}

func (s *participationRepoStub) FindByID(ctx context.Context, id uint) (domain.Participation, error) {
	return s.FindByIDFn(ctx, id)
}

func (s *participationRepoStub) FindByWorkshop(ctx context.Context, workshopID uint) ([]domain.Participation, error) {
	return s.FindByWorkshopFn(ctx, workshopID)
}

func (s *participationRepoStub) FindByUser(ctx context.Context, userID uint) ([]domain.Participation, error) {
	return s.FindByUserFn(ctx, userID)
}

func (s *participationRepoStub) ConfirmPayment(ctx context.Context, id uint, when time.Time, paymentRef string) (domain.Participation, error) {
	return s.ConfirmPaymentFn(ctx, id, when, paymentRef)
}

func (s *participationRepoStub) Refund(ctx context.Context, id uint) (domain.Participation, error) {
	return s.RefundFn(ctx, id)
}

func (s *participationRepoStub) Cancel(ctx context.Context, id uint) (domain.Participation, error) {
	return s.CancelFn(ctx, id)
}

func (s *participationRepoStub) Reinscribe(ctx context.Context, id uint) (domain.Participation, error) {
	return s.ReinscribeFn(ctx, id)
}

func (s *participationRepoStub) Exchange(ctx context.Context, sourceID, targetWorkshopID uint) (domain.Participation, error) {
	return s.ExchangeFn(ctx, sourceID, targetWorkshopID)
}

func (s *participationRepoStub) Delete(ctx context.Context, id uint) error {
	return s.DeleteFn(ctx, id)
}

func (s *participationRepoStub) ConfirmDate(ctx context.Context, id, workshopID uint) (domain.Participation, error) {
	return s.ConfirmDateFn(ctx, id, workshopID)
}

func (s *participationRepoStub) ConfirmLocation(ctx context.Context, id, workshopID uint) (domain.Participation, error) {
	return s.ConfirmLocationFn(ctx, id, workshopID)
}

func (s *participationRepoStub) SetAttendance(ctx context.Context, id uint, attended bool, now time.Time) (domain.Participation, error) {
	return s.SetAttendanceFn(ctx, id, attended, now)
}

type workshopRepoStub struct {
	CreateFn               func(ctx context.Context, w domain.Workshop) (domain.Workshop, error)
	FindByIDFn             func(ctx context.Context, id uint) (domain.Workshop, error)
	FindByFamilyFn         func(ctx context.Context, familyID uint) ([]domain.Workshop, error)
	FindByOrganizerFn      func(ctx context.Context, organizerID uint) ([]domain.Workshop, error)
	UpdateDetailsFn        func(ctx context.Context, id uint, title, description string, audienceNumber int) (domain.Workshop, error)
	UpdateClassificationFn func(ctx context.Context, id uint, c domain.ClassificationStatus) error
	RescheduleFn           func(ctx context.Context, id uint, startAt, endAt time.Time, extraMinutes, expectedVersion int) (domain.Workshop, error)
	RelocateFn             func(ctx context.Context, id uint, isRemote bool, location, visioLink, muralLink string, expectedVersion int) (domain.Workshop, error)
	CancelFn               func(ctx context.Context, id uint) (domain.Workshop, error)
	CloseFn                func(ctx context.Context, id uint) (domain.Workshop, error)
	CountSeatsFn           func(ctx context.Context, workshopID uint) (int, error)
	FindFamiliesFn         func(ctx context.Context) ([]domain.Family, error)
	FindFamilyByIDFn       func(ctx context.Context, id uint) (domain.Family, error)
}

func (s *workshopRepoStub) Create(ctx context.Context, w domain.Workshop) (domain.Workshop, error) {
	return s.CreateFn(ctx, w)
}

func (s *workshopRepoStub) FindByID(ctx context.Context, id uint) (domain.Workshop, error) {
	return s.FindByIDFn(ctx, id)
}

func (s *workshopRepoStub) FindByFamily(ctx context.Context, familyID uint) ([]domain.Workshop, error) {
	return s.FindByFamilyFn(ctx, familyID)
}

func (s *workshopRepoStub) FindByOrganizer(ctx context.Context, organizerID uint) ([]domain.Workshop, error) {
	return s.FindByOrganizerFn(ctx, organizerID)
}

func (s *workshopRepoStub) UpdateDetails(ctx context.Context, id uint, title, description string, audienceNumber int) (domain.Workshop, error) {
	return s.UpdateDetailsFn(ctx, id, title, description, audienceNumber)
}

func (s *workshopRepoStub) UpdateClassification(ctx context.Context, id uint, c domain.ClassificationStatus) error {
	return s.UpdateClassificationFn(ctx, id, c)
}

func (s *workshopRepoStub) Reschedule(ctx context.Context, id uint, startAt, endAt time.Time, extraMinutes, expectedVersion int) (domain.Workshop, error) {
	return s.RescheduleFn(ctx, id, startAt, endAt, extraMinutes, expectedVersion)
}

func (s *workshopRepoStub) Relocate(ctx context.Context, id uint, isRemote bool, location, visioLink, muralLink string, expectedVersion int) (domain.Workshop, error) {
	return s.RelocateFn(ctx, id, isRemote, location, visioLink, muralLink, expectedVersion)
}

func (s *workshopRepoStub) Cancel(ctx context.Context, id uint) (domain.Workshop, error) {
	return s.CancelFn(ctx, id)
}

func (s *workshopRepoStub) Close(ctx context.Context, id uint) (domain.Workshop, error) {
	return s.CloseFn(ctx, id)
}

func (s *workshopRepoStub) CountSeats(ctx context.Context, workshopID uint) (int, error) {
	return s.CountSeatsFn(ctx, workshopID)
}

func (s *workshopRepoStub) FindFamilies(ctx context.Context) ([]domain.Family, error) {
	return s.FindFamiliesFn(ctx)
}

func (s *workshopRepoStub) FindFamilyByID(ctx context.Context, id uint) (domain.Family, error) {
	return s.FindFamilyByIDFn(ctx, id)
}

// historyRecorder collects appended entries so tests can assert on the
// audit trail without a store.
type historyRecorder struct {
	entries []domain.WorkshopHistoryLog
}

func (h *historyRecorder) Append(ctx context.Context, entry domain.WorkshopHistoryLog) (domain.WorkshopHistoryLog, error) {
	h.entries = append(h.entries, entry)
	return entry, nil
}

func (h *historyRecorder) FindByWorkshop(ctx context.Context, workshopID uint) ([]domain.WorkshopHistoryLog, error) {
	var out []domain.WorkshopHistoryLog
	for _, e := range h.entries {
		if e.WorkshopID == workshopID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (h *historyRecorder) typesLogged() []domain.LogType {
	types := make([]domain.LogType, 0, len(h.entries))
	for _, e := range h.entries {
		types = append(types, e.Type)
	}
	return types
}

type paymentProviderStub struct {
	ChargeFn func(ctx context.Context, amountCents int, description, paymentMethod string) (string, error)
	RefundFn func(ctx context.Context, ref string, amountCents int) error

	charges []int
	refunds []string
}

func (s *paymentProviderStub) Charge(ctx context.Context, amountCents int, description, paymentMethod string) (string, error) {
	s.charges = append(s.charges, amountCents)
	if s.ChargeFn != nil {
		return s.ChargeFn(ctx, amountCents, description, paymentMethod)
	}
	return "pi_test", nil
}

func (s *paymentProviderStub) Refund(ctx context.Context, ref string, amountCents int) error {
	s.refunds = append(s.refunds, ref)
	if s.RefundFn != nil {
		return s.RefundFn(ctx, ref, amountCents)
	}
	return nil
}

type notifierStub struct {
	notified [][]domain.User
}

func (s *notifierStub) Notify(ctx context.Context, recipients []domain.User, subject, body string) []NotificationResult {
	s.notified = append(s.notified, recipients)
	results := make([]NotificationResult, 0, len(recipients))
	for _, r := range recipients {
		results = append(results, NotificationResult{UserID: r.ID})
	}
	return results
}

type userRepoStub struct {
	FindByIDFn       func(ctx context.Context, id uint) (domain.User, error)
	FindOrganizersFn func(ctx context.Context) ([]domain.User, error)
}

func (s *userRepoStub) FindByID(ctx context.Context, id uint) (domain.User, error) {
	return s.FindByIDFn(ctx, id)
}

func (s *userRepoStub) FindOrganizers(ctx context.Context) ([]domain.User, error) {
	return s.FindOrganizersFn(ctx)
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
