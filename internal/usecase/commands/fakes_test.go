//go:build unit

package commands_test

import (
	"context"
	"errors"
	"time"

	"schedcore/internal/domain/assignment"
	"schedcore/internal/domain/booking"
	"schedcore/internal/domain/payment"
	"schedcore/internal/infra"
	"schedcore/internal/pkg/metrics"
	"schedcore/internal/usecase/shared"

	"github.com/prometheus/client_golang/prometheus"
)

func notFoundErr(msg string) error {
	return infra.WrapRepoErr(msg, errors.New(msg), infra.KindNotFound)
}

func duplicateErr(msg string) error {
	return infra.WrapRepoErr(msg, errors.New(msg), infra.KindDuplicateKey)
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// ---------------------------------------------------------------------------
// Transactional fakes
// ---------------------------------------------------------------------------

type fakeUoW struct {
	tx       *fakeTx
	beginErr error
}

func newFakeUoW() *fakeUoW {
	return &fakeUoW{tx: newFakeTx()}
}

func (u *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	if u.beginErr != nil {
		return u.beginErr
	}
	return fn(ctx, u.tx)
}

type fakeTx struct {
	bookings      *fakeBookingRepo
	payments      *fakePaymentRepo
	reasons       *fakeReasonRepo
	notifications *fakeNotificationRepo
}

func newFakeTx() *fakeTx {
	return &fakeTx{
		bookings:      newFakeBookingRepo(),
		payments:      &fakePaymentRepo{byID: map[int64]*payment.Payment{}},
		reasons:       &fakeReasonRepo{},
		notifications: &fakeNotificationRepo{},
	}
}

func (t *fakeTx) Bookings() shared.BookingRepository                   { return t.bookings }
func (t *fakeTx) Payments() shared.PaymentRepository                   { return t.payments }
func (t *fakeTx) AssignmentReasons() shared.AssignmentReasonRepository { return t.reasons }
func (t *fakeTx) Notifications() shared.NotificationRepository         { return t.notifications }

type fakeBookingRepo struct {
	byID     map[int64]*booking.Booking
	byUID    map[string]*booking.Booking
	overlaps map[int64]bool
	refs     map[int64]*shared.CalendarReference
	nextID   int64

	createDupUIDs    map[string]bool
	created          []*booking.Booking
	organizerUpdates []shared.OrganizerUpdate
	attendeeUpdates  []booking.Attendee
	replaced         map[int64][]booking.Attendee
	statusUpdates    map[int64]booking.Status
	metadataUpdates  []booking.Metadata
	externalUpdates  []shared.ExternalEventUpdate
	settlements      []shared.SettlementUpdate
	addedRefs        []shared.CalendarReference
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		byID:          map[int64]*booking.Booking{},
		byUID:         map[string]*booking.Booking{},
		overlaps:      map[int64]bool{},
		refs:          map[int64]*shared.CalendarReference{},
		createDupUIDs: map[string]bool{},
		replaced:      map[int64][]booking.Attendee{},
		statusUpdates: map[int64]booking.Status{},
		nextID:        100,
	}
}

func (r *fakeBookingRepo) put(b *booking.Booking) {
	r.byID[b.ID] = b
	if b.UID != "" {
		r.byUID[b.UID] = b
	}
}

func (r *fakeBookingRepo) FindByIDForUpdate(_ context.Context, id int64) (*booking.Booking, error) {
	b, ok := r.byID[id]
	if !ok {
		return nil, notFoundErr("booking not found")
	}
	return b, nil
}

func (r *fakeBookingRepo) FindByUID(_ context.Context, uid string) (*booking.Booking, error) {
	b, ok := r.byUID[uid]
	if !ok {
		return nil, notFoundErr("booking not found")
	}
	return b, nil
}

func (r *fakeBookingRepo) Create(_ context.Context, b *booking.Booking) (int64, error) {
	if r.createDupUIDs[b.UID] {
		return 0, duplicateErr("uid already exists")
	}
	r.nextID++
	b.ID = r.nextID
	r.created = append(r.created, b)
	r.put(b)
	return b.ID, nil
}

func (r *fakeBookingRepo) UpdateOrganizer(_ context.Context, id int64, upd shared.OrganizerUpdate) error {
	if _, ok := r.byID[id]; !ok {
		return notFoundErr("booking not found")
	}
	r.organizerUpdates = append(r.organizerUpdates, upd)
	return nil
}

func (r *fakeBookingRepo) UpdateAttendee(_ context.Context, _ int64, a booking.Attendee) error {
	r.attendeeUpdates = append(r.attendeeUpdates, a)
	return nil
}

func (r *fakeBookingRepo) ReplaceAttendees(_ context.Context, bookingID int64, attendees []booking.Attendee) error {
	r.replaced[bookingID] = attendees
	return nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, id int64, status booking.Status) error {
	r.statusUpdates[id] = status
	if b, ok := r.byID[id]; ok {
		b.Status = status
	}
	return nil
}

func (r *fakeBookingRepo) UpdateMetadata(_ context.Context, id int64, m booking.Metadata) error {
	r.metadataUpdates = append(r.metadataUpdates, m)
	if b, ok := r.byID[id]; ok {
		b.Metadata = m
	}
	return nil
}

func (r *fakeBookingRepo) UpdateExternalEvent(_ context.Context, id int64, upd shared.ExternalEventUpdate) error {
	if _, ok := r.byID[id]; !ok {
		return notFoundErr("booking not found")
	}
	r.externalUpdates = append(r.externalUpdates, upd)
	return nil
}

func (r *fakeBookingRepo) UpdateSettlement(_ context.Context, id int64, upd shared.SettlementUpdate) error {
	if _, ok := r.byID[id]; !ok {
		return notFoundErr("booking not found")
	}
	r.settlements = append(r.settlements, upd)
	return nil
}

func (r *fakeBookingRepo) AddCalendarReference(_ context.Context, bookingID int64, ref shared.CalendarReference) error {
	r.addedRefs = append(r.addedRefs, ref)
	r.refs[bookingID] = &ref
	return nil
}

func (r *fakeBookingRepo) FindCalendarReference(_ context.Context, bookingID int64) (*shared.CalendarReference, error) {
	ref, ok := r.refs[bookingID]
	if !ok {
		return nil, notFoundErr("calendar reference not found")
	}
	return ref, nil
}

func (r *fakeBookingRepo) HasOverlapping(_ context.Context, userID int64, _, _ time.Time, _ int64) (bool, error) {
	return r.overlaps[userID], nil
}

type fakePaymentRepo struct {
	byID       map[int64]*payment.Payment
	marked     []int64
	markedData [][]byte
}

func (r *fakePaymentRepo) FindByIDForUpdate(_ context.Context, id int64) (*payment.Payment, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, notFoundErr("payment not found")
	}
	return p, nil
}

func (r *fakePaymentRepo) MarkSuccess(_ context.Context, id int64, data []byte) error {
	r.marked = append(r.marked, id)
	r.markedData = append(r.markedData, data)
	if p, ok := r.byID[id]; ok {
		p.Success = true
		p.Data = data
	}
	return nil
}

type createdReason struct {
	bookingID int64
	enum      assignment.ReasonEnum
	text      string
}

type fakeReasonRepo struct {
	created []createdReason
}

func (r *fakeReasonRepo) Create(_ context.Context, bookingID int64, enum assignment.ReasonEnum, text string) (int64, error) {
	r.created = append(r.created, createdReason{bookingID: bookingID, enum: enum, text: text})
	return int64(len(r.created)), nil
}

type notificationJob struct {
	kind    string
	topic   string
	payload []byte
}

type fakeNotificationRepo struct {
	jobs []notificationJob
}

func (r *fakeNotificationRepo) CreateJob(_ context.Context, kind, topic string, payload []byte, _ time.Time) error {
	r.jobs = append(r.jobs, notificationJob{kind: kind, topic: topic, payload: payload})
	return nil
}

// ---------------------------------------------------------------------------
// Reader fakes
// ---------------------------------------------------------------------------

type fakeEventTypeReader struct {
	byID map[int64]*booking.EventType
}

func (r *fakeEventTypeReader) FindWithHosts(_ context.Context, id int64) (*booking.EventType, error) {
	et, ok := r.byID[id]
	if !ok {
		return nil, notFoundErr("event type not found")
	}
	return et, nil
}

type fakeUserReader struct {
	byID    map[int64]*shared.User
	byEmail map[string]*shared.User
}

func (r *fakeUserReader) FindByID(_ context.Context, id int64) (*shared.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, notFoundErr("user not found")
	}
	return u, nil
}

func (r *fakeUserReader) FindByEmail(_ context.Context, email string) (*shared.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, notFoundErr("user not found")
	}
	return u, nil
}

type fakeCredentialReader struct {
	byID   map[int64]*shared.Credential
	byUser map[int64]*shared.Credential
}

func (r *fakeCredentialReader) FindByID(_ context.Context, id int64) (*shared.Credential, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, notFoundErr("credential not found")
	}
	return c, nil
}

func (r *fakeCredentialReader) FindForUser(_ context.Context, userID int64, _ string) (*shared.Credential, error) {
	c, ok := r.byUser[userID]
	if !ok {
		return nil, notFoundErr("credential not found")
	}
	return c, nil
}

type fakeSelectedCalendarReader struct {
	byChannel map[string]*shared.SelectedCalendar
}

func (r *fakeSelectedCalendarReader) FindByChannelID(_ context.Context, channelID string) (*shared.SelectedCalendar, error) {
	sc, ok := r.byChannel[channelID]
	if !ok {
		return nil, notFoundErr("selected calendar not found")
	}
	return sc, nil
}

type fakePaymentReader struct {
	byExternal map[string]*payment.Payment
}

func (r *fakePaymentReader) FindByExternalID(_ context.Context, externalID string) (*payment.Payment, error) {
	p, ok := r.byExternal[externalID]
	if !ok {
		return nil, notFoundErr("payment not found")
	}
	return p, nil
}

type fakeRoutingFormReader struct {
	responses map[int64]*assignment.FormResponse
	attrs     map[int64][]assignment.Attribute
}

func (r *fakeRoutingFormReader) FindResponse(_ context.Context, responseID int64) (*assignment.FormResponse, error) {
	resp, ok := r.responses[responseID]
	if !ok {
		return nil, notFoundErr("routing form response not found")
	}
	return resp, nil
}

func (r *fakeRoutingFormReader) UserAttributes(_ context.Context, userID, _ int64) ([]assignment.Attribute, error) {
	return r.attrs[userID], nil
}

// ---------------------------------------------------------------------------
// Calendar fake
// ---------------------------------------------------------------------------

type rescheduleCall struct {
	calendarID      string
	externalEventID string
	input           shared.CalendarEventInput
}

type fakeCalendar struct {
	createErr     error
	rescheduleErr error
	listErr       error
	listSet       *shared.ExternalEventSet
	createdRef    *shared.CalendarReference

	created     []shared.CalendarEventInput
	rescheduled []rescheduleCall
}

func (c *fakeCalendar) CreateEvent(_ context.Context, _ *shared.Credential, _ string, input shared.CalendarEventInput) (*shared.CalendarReference, error) {
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.created = append(c.created, input)
	if c.createdRef != nil {
		return c.createdRef, nil
	}
	return &shared.CalendarReference{ExternalEventID: "ext-1", ICalUID: input.UID, CalendarID: "primary"}, nil
}

func (c *fakeCalendar) RescheduleEvent(_ context.Context, _ *shared.Credential, calendarID, externalEventID string, input shared.CalendarEventInput) error {
	if c.rescheduleErr != nil {
		return c.rescheduleErr
	}
	c.rescheduled = append(c.rescheduled, rescheduleCall{
		calendarID:      calendarID,
		externalEventID: externalEventID,
		input:           input,
	})
	return nil
}

func (c *fakeCalendar) ListUpdatedEvents(_ context.Context, _ *shared.Credential, _ string, _ time.Time) (*shared.ExternalEventSet, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	if c.listSet != nil {
		return c.listSet, nil
	}
	return &shared.ExternalEventSet{}, nil
}
