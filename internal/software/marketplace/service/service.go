package service

import (
	"time"

	"commuto/internal/general/logger"
	"commuto/internal/ports"
)

// marketplaceService encapsulates the trip and bid marketplace logic.
type marketplaceService struct {
	logger    *logger.Logger
	uow       ports.UnitOfWork
	trips     ports.TripRepository
	bids      ports.BidRepository
	bookings  ports.BookingRepository
	locations ports.LocationRepository
	users     ports.UserRepository
	pub       ports.EventPublisher
	notifier  ports.Notifier

	now func() time.Time
}

// NewMarketplaceService creates the service with the provided dependencies.
func NewMarketplaceService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	trips ports.TripRepository,
	bids ports.BidRepository,
	bookings ports.BookingRepository,
	locations ports.LocationRepository,
	users ports.UserRepository,
	pub ports.EventPublisher,
	notifier ports.Notifier,
) ports.MarketplaceService {
	return &marketplaceService{
		logger:    logger,
		uow:       uow,
		trips:     trips,
		bids:      bids,
		bookings:  bookings,
		locations: locations,
		users:     users,
		pub:       pub,
		notifier:  notifier,
		now:       func() time.Time { return time.Now().UTC() },
	}
}
