package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/tripbook/internal/core/domain"
	"github.com/samirrijal/tripbook/internal/core/ports"
	"github.com/samirrijal/tripbook/internal/pkg/logging"
	"github.com/samirrijal/tripbook/internal/pkg/metrics"
)

const defaultReleaseTimeout = 5 * time.Second

// BookingService validates reservation requests and commits them against the ledger.
type BookingService struct {
	catalog   *CatalogService
	ledger    *Ledger
	bookings  ports.BookingRepository
	publisher ports.EventPublisher

	now            func() time.Time
	releaseTimeout time.Duration
}

// NewBookingService creates a new BookingService. publisher may be nil.
func NewBookingService(
	catalog *CatalogService,
	ledger *Ledger,
	bookings ports.BookingRepository,
	publisher ports.EventPublisher,
) *BookingService {
	return &BookingService{
		catalog:        catalog,
		ledger:         ledger,
		bookings:       bookings,
		publisher:      publisher,
		now:            time.Now,
		releaseTimeout: defaultReleaseTimeout,
	}
}

// Book runs one booking attempt: validate, look up the trip, reserve seats, store
// the booking. It returns the confirmed booking, or the rejected booking together
// with the typed reason. Seats reserved for a booking that is not stored are
// always released before Book returns.
func (s *BookingService) Book(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	ctx, span := tracer.Start(ctx, "BookingService.Book", trace.WithAttributes(
		attribute.String("trip.id", req.TripID),
		attribute.Int("booking.seats", req.Seats),
	))
	defer span.End()

	start := time.Now()
	booking, remaining, err := s.book(ctx, req)
	metrics.BookingDuration.Observe(time.Since(start).Seconds())

	logger := logging.FromContext(ctx).With("trip_id", req.TripID, "booking_id", booking.ID, "seats", req.Seats)
	if err != nil {
		kind := domain.Kind(err)
		metrics.BookingsTotal.WithLabelValues(kind).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		if domain.IsPersistence(err) || kind == "internal_error" {
			logger.ErrorContext(ctx, "booking failed", "reason", kind, "error", err)
		} else {
			logger.InfoContext(ctx, "booking rejected", "reason", kind, "error", err)
		}
		s.publish(ctx, booking, nil)
		return booking, err
	}

	metrics.BookingsTotal.WithLabelValues(string(domain.BookingConfirmed)).Inc()
	span.SetAttributes(attribute.String("booking.id", booking.ID))
	logger.InfoContext(ctx, "booking confirmed", "seats_available", remaining)
	s.publish(ctx, booking, &remaining)
	return booking, nil
}

func (s *BookingService) book(ctx context.Context, req domain.BookingRequest) (_ *domain.Booking, remaining int, err error) {
	req.TripID = strings.TrimSpace(req.TripID)
	req.PassengerName = strings.TrimSpace(req.PassengerName)
	req.PassengerEmail = strings.TrimSpace(req.PassengerEmail)

	// The booking id doubles as the ledger hold id.
	id := uuid.NewString()

	if err := req.Validate(s.ledger.MaxSeats()); err != nil {
		return s.rejected(id, req, err), 0, err
	}

	if _, err := s.catalog.Get(ctx, req.TripID); err != nil {
		return s.rejected(id, req, err), 0, err
	}

	remaining, err = s.ledger.TryReserve(ctx, req.TripID, id, req.Seats)
	if err != nil {
		// A storage failure may hide a reservation that did commit.
		if domain.IsPersistence(err) {
			s.compensate(ctx, req.TripID, id, req.Seats)
		}
		return s.rejected(id, req, err), 0, err
	}

	stored := false
	defer func() {
		if !stored {
			s.compensate(ctx, req.TripID, id, req.Seats)
		}
	}()

	// A caller that gave up must not leave seats held for a booking it never sees.
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = domain.PersistenceError{Op: "create booking", Err: ctxErr}
		return s.rejected(id, req, err), 0, err
	}

	booking := &domain.Booking{
		ID:             id,
		TripID:         req.TripID,
		PassengerName:  req.PassengerName,
		PassengerEmail: req.PassengerEmail,
		Seats:          req.Seats,
		Status:         domain.BookingConfirmed,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		err = domain.Persistence("create booking", err)
		return s.rejected(id, req, err), 0, err
	}

	stored = true
	return booking, remaining, nil
}

// compensate releases the booking's hold with a context detached from the
// caller's cancellation.
func (s *BookingService) compensate(ctx context.Context, tripID, holdID string, seats int) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.releaseTimeout)
	defer cancel()

	logger := logging.FromContext(rctx).With("trip_id", tripID, "booking_id", holdID, "seats", seats)
	if err := s.ledger.Release(rctx, tripID, holdID); err != nil {
		logger.ErrorContext(rctx, "seat release failed, ledger holds seats without a booking", "error", err)
		return
	}
	logger.WarnContext(rctx, "reservation released")
}

func (s *BookingService) rejected(id string, req domain.BookingRequest, reason error) *domain.Booking {
	return &domain.Booking{
		ID:             id,
		TripID:         req.TripID,
		PassengerName:  req.PassengerName,
		PassengerEmail: req.PassengerEmail,
		Seats:          req.Seats,
		Status:         domain.BookingRejected,
		Reason:         reason.Error(),
		CreatedAt:      s.now().UTC(),
	}
}

func (s *BookingService) publish(ctx context.Context, b *domain.Booking, remaining *int) {
	if s.publisher == nil {
		return
	}
	event := &domain.BookingEvent{
		BookingID:      b.ID,
		TripID:         b.TripID,
		Seats:          b.Seats,
		Status:         b.Status,
		Reason:         b.Reason,
		SeatsAvailable: remaining,
		OccurredAt:     b.CreatedAt,
	}
	if err := s.publisher.PublishBookingEvent(ctx, event); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "publish booking event", "booking_id", b.ID, "error", err)
	}
}

// GetBooking returns a stored booking by id.
func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Persistence("get booking", err)
	}
	return b, nil
}
