package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"albergo/internal/app/apperrors"
	appoutbox "albergo/internal/app/outbox"
	"albergo/internal/app/policies"
	"albergo/internal/domain/booking"
	"albergo/internal/domain/listings"
	"albergo/internal/infra/storage/memory"
)

var frozenNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	service  *Service
	bookings *memory.BookingRepository
	listings *memory.ListingRepository
	outbox   *memory.Outbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bookings := memory.NewBookingRepository()
	listingRepo := memory.NewListingRepository()
	ob := memory.NewOutbox()
	seq := 0
	var mu sync.Mutex
	next := func() int {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return seq
	}
	svc := &Service{
		Bookings: bookings,
		Listings: listingRepo,
		Outbox:   ob,
		Encoder:  appoutbox.JSONEventEncoder{},
		Locks:    memory.NewLocks(),
		Pricing:  DefaultPricingConfig(),
		Now:      func() time.Time { return frozenNow },
		NewID:    func() string { return fmt.Sprintf("bk-%d", next()) },
		NewReference: func(now time.Time) string {
			return fmt.Sprintf("ALB-%d-%08X", now.Year(), next())
		},
	}
	return &fixture{service: svc, bookings: bookings, listings: listingRepo, outbox: ob}
}

func (f *fixture) seedListing(t *testing.T, mutate func(*listings.CreateParams)) *listings.Listing {
	t.Helper()
	params := listings.CreateParams{
		ID:               "ls-1",
		Host:             "host-1",
		Title:            "Canal-side loft",
		Currency:         "USD",
		NightlyRateCents: 1500,
		CleaningFeeCents: 200,
		MaxGuests:        4,
		Now:              frozenNow,
	}
	if mutate != nil {
		mutate(&params)
	}
	l, err := listings.NewListing(params)
	if err != nil {
		t.Fatalf("NewListing: %v", err)
	}
	if err := l.Activate(frozenNow); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := f.listings.Save(context.Background(), l); err != nil {
		t.Fatalf("seeding listing: %v", err)
	}
	return l
}

func createParams(listingID string) CreateParams {
	return CreateParams{
		ListingID: listingID,
		GuestID:   "guest-1",
		CheckIn:   date(2025, 6, 10),
		CheckOut:  date(2025, 6, 13),
		Guests:    booking.Guests{Adults: 2},
	}
}

func TestCreatePending(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, nil)

	res, err := f.service.Create(context.Background(), createParams("ls-1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Outcome != OutcomePersisted {
		t.Errorf("outcome = %s, want PERSISTED", res.Outcome)
	}
	b := res.Booking
	if b.Status != booking.StatusPending {
		t.Errorf("status = %s, want PENDING", b.Status)
	}
	if b.Nights != 3 {
		t.Errorf("nights = %d, want 3", b.Nights)
	}
	if b.Price.Total.Amount != 5330 {
		t.Errorf("total = %d, want 5330", b.Price.Total.Amount)
	}
	if b.HostID != "host-1" {
		t.Errorf("host id = %s, want host-1", b.HostID)
	}

	stored, err := f.bookings.ByID(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("booking not persisted: %v", err)
	}
	if stored.Reference != b.Reference {
		t.Errorf("stored reference = %s, want %s", stored.Reference, b.Reference)
	}

	records := f.outbox.All()
	if len(records) != 1 {
		t.Fatalf("outbox records = %d, want 1", len(records))
	}
	if records[0].Name != "booking.created" {
		t.Errorf("outbox event name = %s, want booking.created", records[0].Name)
	}

	l, err := f.listings.ByID(context.Background(), "ls-1")
	if err != nil {
		t.Fatalf("listing lookup: %v", err)
	}
	if l.BookingsCount != 1 {
		t.Errorf("bookings count = %d, want 1", l.BookingsCount)
	}
}

func TestCreateInstantBook(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, func(p *listings.CreateParams) { p.InstantBook = true })

	res, err := f.service.Create(context.Background(), createParams("ls-1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Booking.Status != booking.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", res.Booking.Status)
	}
}

func TestCreateRejectsOverlap(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, nil)
	ctx := context.Background()

	if _, err := f.service.Create(ctx, createParams("ls-1")); err != nil {
		t.Fatalf("first create: %v", err)
	}

	overlapping := createParams("ls-1")
	overlapping.GuestID = "guest-2"
	overlapping.CheckIn = date(2025, 6, 12)
	overlapping.CheckOut = date(2025, 6, 18)
	if _, err := f.service.Create(ctx, overlapping); apperrors.KindOf(err) != apperrors.KindConflict {
		t.Errorf("overlapping create: expected conflict, got %v", err)
	}

	backToBack := createParams("ls-1")
	backToBack.GuestID = "guest-2"
	backToBack.CheckIn = date(2025, 6, 13)
	backToBack.CheckOut = date(2025, 6, 20)
	if _, err := f.service.Create(ctx, backToBack); err != nil {
		t.Errorf("back-to-back create should succeed, got %v", err)
	}
}

func TestCreateRejectsOverlapWithPending(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, nil)
	ctx := context.Background()

	first := createParams("ls-1")
	first.CheckIn = date(2025, 7, 1)
	first.CheckOut = date(2025, 7, 4)
	if _, err := f.service.Create(ctx, first); err != nil {
		t.Fatalf("first create: %v", err)
	}

	second := createParams("ls-1")
	second.GuestID = "guest-2"
	second.CheckIn = date(2025, 7, 3)
	second.CheckOut = date(2025, 7, 6)
	if _, err := f.service.Create(ctx, second); apperrors.KindOf(err) != apperrors.KindConflict {
		t.Errorf("expected conflict against pending booking, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, func(p *listings.CreateParams) {
		p.MinNights = 2
		p.MaxNights = 7
	})
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateParams)
		want   apperrors.Kind
	}{
		{"inverted dates", func(p *CreateParams) { p.CheckIn, p.CheckOut = p.CheckOut, p.CheckIn }, apperrors.KindInvalid},
		{"zero adults", func(p *CreateParams) { p.Guests = booking.Guests{Adults: 0, Children: 2} }, apperrors.KindInvalid},
		{"self booking", func(p *CreateParams) { p.GuestID = "host-1" }, apperrors.KindInvalid},
		{"too many guests", func(p *CreateParams) { p.Guests = booking.Guests{Adults: 3, Children: 2} }, apperrors.KindInvalid},
		{"infants do not count", func(p *CreateParams) { p.Guests = booking.Guests{Adults: 2, Children: 2, Infants: 3} }, ""},
		{"stay too short", func(p *CreateParams) { p.CheckOut = date(2025, 6, 11) }, apperrors.KindInvalid},
		{"stay too long", func(p *CreateParams) { p.CheckOut = date(2025, 6, 20) }, apperrors.KindInvalid},
		{"unknown listing", func(p *CreateParams) { p.ListingID = "ls-missing" }, apperrors.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := createParams("ls-1")
			tc.mutate(&params)
			_, err := f.service.Create(ctx, params)
			if tc.want == "" {
				if err != nil {
					t.Errorf("expected success, got %v", err)
				}
				return
			}
			if apperrors.KindOf(err) != tc.want {
				t.Errorf("kind = %s, want %s (err: %v)", apperrors.KindOf(err), tc.want, err)
			}
		})
	}
}

func TestCreateRejectsInactiveListing(t *testing.T) {
	f := newFixture(t)
	l := f.seedListing(t, nil)
	if err := l.Suspend(frozenNow); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if err := f.listings.Save(context.Background(), l); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err := f.service.Create(context.Background(), createParams("ls-1"))
	if apperrors.KindOf(err) != apperrors.KindInvalid {
		t.Errorf("expected invalid for suspended listing, got %v", err)
	}
	if !errors.Is(err, ErrListingInactive) {
		t.Errorf("expected ErrListingInactive in chain, got %v", err)
	}
}

// failingBookingRepo simulates an unreachable persistence gateway.
type failingBookingRepo struct {
	booking.Repository
}

func (failingBookingRepo) Save(ctx context.Context, b *booking.Booking) error {
	return errors.New("connection refused")
}

func TestCreateDegradesOnStorageOutage(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, nil)
	f.service.Bookings = failingBookingRepo{Repository: f.bookings}

	res, err := f.service.Create(context.Background(), createParams("ls-1"))
	if err != nil {
		t.Fatalf("degraded create should not error: %v", err)
	}
	if res.Outcome != OutcomeDegraded {
		t.Errorf("outcome = %s, want DEGRADED", res.Outcome)
	}
	if res.Booking.Status != booking.StatusConfirmedOfflineSync {
		t.Errorf("status = %s, want CONFIRMED_OFFLINE_SYNC", res.Booking.Status)
	}
	if res.Booking.Reference == "" {
		t.Error("degraded booking should still carry a reference")
	}

	records := f.outbox.All()
	if len(records) != 1 {
		t.Fatalf("degraded create should still emit the created event, got %d records", len(records))
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(records[0].Payload, &payload); err != nil {
		t.Fatalf("decoding event payload: %v", err)
	}
	if payload.Status != string(booking.StatusConfirmedOfflineSync) {
		t.Errorf("event status = %s, want CONFIRMED_OFFLINE_SYNC", payload.Status)
	}
}

// conflictingBookingRepo reports a lost write race on every save.
type conflictingBookingRepo struct {
	booking.Repository
}

func (conflictingBookingRepo) Save(ctx context.Context, b *booking.Booking) error {
	return booking.ErrWriteConflict
}

func TestCreateTranslatesWriteConflict(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, nil)
	f.service.Bookings = conflictingBookingRepo{Repository: f.bookings}

	_, err := f.service.Create(context.Background(), createParams("ls-1"))
	if apperrors.KindOf(err) != apperrors.KindConflict {
		t.Errorf("expected conflict for write race, got %v", err)
	}
	if !errors.Is(err, ErrDatesUnavailable) {
		t.Errorf("expected ErrDatesUnavailable in chain, got %v", err)
	}
}

func TestConcurrentOverlappingCreates(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, nil)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			params := createParams("ls-1")
			params.GuestID = fmt.Sprintf("guest-%d", i)
			_, err := f.service.Create(ctx, params)
			results[i] = err
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		if apperrors.KindOf(err) != apperrors.KindConflict {
			t.Errorf("attempt %d: expected conflict, got %v", i, err)
		}
	}
	if succeeded != 1 {
		t.Errorf("exactly one overlapping create should win, got %d", succeeded)
	}
}

func TestConfirmFlow(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, nil)
	ctx := context.Background()

	res, err := f.service.Create(ctx, createParams("ls-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := string(res.Booking.ID)

	if _, err := f.service.Confirm(ctx, booking.Actor{ID: "guest-1", Role: booking.RoleGuest}, id); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("guest confirm: expected forbidden, got %v", err)
	}

	confirmed, err := f.service.Confirm(ctx, booking.Actor{ID: "host-1", Role: booking.RoleHost}, id)
	if err != nil {
		t.Fatalf("host confirm: %v", err)
	}
	if confirmed.Status != booking.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", confirmed.Status)
	}

	if _, err := f.service.Confirm(ctx, booking.Actor{ID: "host-1", Role: booking.RoleHost}, id); apperrors.KindOf(err) != apperrors.KindInvalid {
		t.Errorf("double confirm: expected invalid, got %v", err)
	}
	if _, err := f.service.Confirm(ctx, booking.Actor{ID: "host-1", Role: booking.RoleHost}, "bk-missing"); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("unknown id: expected not found, got %v", err)
	}
}

func TestCancelFreesDates(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, nil)
	ctx := context.Background()

	res, err := f.service.Create(ctx, createParams("ls-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cancelled, err := f.service.Cancel(ctx, booking.Actor{ID: "guest-1", Role: booking.RoleGuest}, string(res.Booking.ID), "plans changed")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != booking.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}
	if cancelled.Cancellation == nil || cancelled.Cancellation.Reason != "plans changed" {
		t.Errorf("cancellation record wrong: %+v", cancelled.Cancellation)
	}

	rebook := createParams("ls-1")
	rebook.GuestID = "guest-2"
	if _, err := f.service.Create(ctx, rebook); err != nil {
		t.Errorf("same dates should be bookable after cancellation, got %v", err)
	}
}

func TestCompleteFlow(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, func(p *listings.CreateParams) { p.InstantBook = true })
	ctx := context.Background()
	host := booking.Actor{ID: "host-1", Role: booking.RoleHost}

	res, err := f.service.Create(ctx, createParams("ls-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := string(res.Booking.ID)

	// Clock is still before checkout.
	if _, err := f.service.Complete(ctx, host, id); apperrors.KindOf(err) != apperrors.KindInvalid {
		t.Errorf("complete before checkout: expected invalid, got %v", err)
	}

	f.service.Now = func() time.Time { return date(2025, 6, 14) }
	completed, err := f.service.Complete(ctx, host, id)
	if err != nil {
		t.Fatalf("complete after checkout: %v", err)
	}
	if completed.Status != booking.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", completed.Status)
	}
}

// stubPayments answers confirmation probes from a canned table and counts
// how often the provider is consulted.
type stubPayments struct {
	outcomes map[string]policies.PaymentOutcome
	calls    int
}

func (s *stubPayments) ConfirmationStatus(ctx context.Context, ref string) (policies.PaymentOutcome, error) {
	s.calls++
	out, ok := s.outcomes[ref]
	if !ok {
		return "", errors.New("unknown payment")
	}
	return out, nil
}

func TestConfirmPayment(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, nil)
	payments := &stubPayments{outcomes: map[string]policies.PaymentOutcome{
		"pi_ok":      policies.PaymentOutcomePaid,
		"pi_failed":  policies.PaymentOutcomeFailed,
		"pi_pending": policies.PaymentOutcomePending,
	}}
	f.service.Payments = payments
	ctx := context.Background()
	guest := booking.Actor{ID: "guest-1", Role: booking.RoleGuest}

	res, err := f.service.Create(ctx, createParams("ls-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := string(res.Booking.ID)

	if _, err := f.service.ConfirmPayment(ctx, guest, id, "pi_pending"); apperrors.KindOf(err) != apperrors.KindInvalid {
		t.Errorf("pending payment: expected invalid, got %v", err)
	}

	paid, err := f.service.ConfirmPayment(ctx, guest, id, "pi_ok")
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if paid.Payment != booking.PaymentPaid {
		t.Errorf("payment = %s, want PAID", paid.Payment)
	}
	// The booking lifecycle axis is untouched.
	if paid.Status != booking.StatusPending {
		t.Errorf("status = %s, want PENDING", paid.Status)
	}
}

func TestConfirmPaymentAuthorizesBeforeProvider(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, nil)
	payments := &stubPayments{outcomes: map[string]policies.PaymentOutcome{
		"pi_ok": policies.PaymentOutcomePaid,
	}}
	f.service.Payments = payments
	ctx := context.Background()

	res, err := f.service.Create(ctx, createParams("ls-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := string(res.Booking.ID)

	if _, err := f.service.ConfirmPayment(ctx, booking.Actor{ID: "stranger", Role: booking.RoleGuest}, id, "pi_ok"); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("stranger payment: expected forbidden, got %v", err)
	}
	if _, err := f.service.ConfirmPayment(ctx, booking.Actor{ID: "guest-1", Role: booking.RoleGuest}, "bk-missing", "pi_ok"); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("unknown booking: expected not found, got %v", err)
	}
	if payments.calls != 0 {
		t.Errorf("provider consulted %d times for unauthorized requests, want 0", payments.calls)
	}
}

func TestConfirmPaymentFailure(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, nil)
	f.service.Payments = &stubPayments{outcomes: map[string]policies.PaymentOutcome{
		"pi_failed": policies.PaymentOutcomeFailed,
	}}
	ctx := context.Background()

	res, err := f.service.Create(ctx, createParams("ls-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := f.service.ConfirmPayment(ctx, booking.Actor{ID: "guest-1", Role: booking.RoleGuest}, string(res.Booking.ID), "pi_failed")
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if b.Payment != booking.PaymentFailed {
		t.Errorf("payment = %s, want FAILED", b.Payment)
	}
}

func TestGetByIDAccessControl(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, nil)
	ctx := context.Background()

	res, err := f.service.Create(ctx, createParams("ls-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := string(res.Booking.ID)

	for _, actor := range []booking.Actor{
		{ID: "guest-1", Role: booking.RoleGuest},
		{ID: "host-1", Role: booking.RoleHost},
		{ID: "admin-9", Role: booking.RoleAdmin},
	} {
		if _, err := f.service.GetByID(ctx, actor, id); err != nil {
			t.Errorf("actor %s should read the booking: %v", actor.ID, err)
		}
	}
	if _, err := f.service.GetByID(ctx, booking.Actor{ID: "stranger", Role: booking.RoleGuest}, id); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("stranger read: expected forbidden, got %v", err)
	}
}

func TestListForHostFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, nil)
	ctx := context.Background()

	first, err := f.service.Create(ctx, createParams("ls-1"))
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second := createParams("ls-1")
	second.GuestID = "guest-2"
	second.CheckIn = date(2025, 8, 1)
	second.CheckOut = date(2025, 8, 4)
	if _, err := f.service.Create(ctx, second); err != nil {
		t.Fatalf("second create: %v", err)
	}
	if _, err := f.service.Confirm(ctx, booking.Actor{ID: "host-1", Role: booking.RoleHost}, string(first.Booking.ID)); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	all, err := f.service.ListForHost(ctx, "host-1", "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all bookings = %d, want 2", len(all))
	}

	confirmed, err := f.service.ListForHost(ctx, "host-1", booking.StatusConfirmed)
	if err != nil {
		t.Fatalf("list confirmed: %v", err)
	}
	if len(confirmed) != 1 || confirmed[0].ID != first.Booking.ID {
		t.Errorf("confirmed filter wrong: %d items", len(confirmed))
	}
}

func TestIsAvailable(t *testing.T) {
	f := newFixture(t)
	f.seedListing(t, nil)
	ctx := context.Background()

	ok, err := f.service.IsAvailable(ctx, "ls-1", date(2025, 6, 10), date(2025, 6, 13))
	if err != nil || !ok {
		t.Fatalf("empty calendar should be available: ok=%v err=%v", ok, err)
	}

	if _, err := f.service.Create(ctx, createParams("ls-1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err = f.service.IsAvailable(ctx, "ls-1", date(2025, 6, 12), date(2025, 6, 14))
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if ok {
		t.Error("overlapping probe should report unavailable")
	}

	ok, err = f.service.IsAvailable(ctx, "ls-1", date(2025, 6, 13), date(2025, 6, 15))
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !ok {
		t.Error("back-to-back probe should report available")
	}

	if _, err := f.service.IsAvailable(ctx, "ls-1", date(2025, 6, 15), date(2025, 6, 15)); apperrors.KindOf(err) != apperrors.KindInvalid {
		t.Errorf("empty range probe: expected invalid, got %v", err)
	}
	if _, err := f.service.IsAvailable(ctx, "ls-missing", date(2025, 6, 10), date(2025, 6, 13)); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("unknown listing probe: expected not found, got %v", err)
	}
}
