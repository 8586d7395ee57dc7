package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/lab-reservation/internal/application"
	"github.com/example/lab-reservation/internal/config"
	httptransport "github.com/example/lab-reservation/internal/http"
	"github.com/example/lab-reservation/internal/logging"
	"github.com/example/lab-reservation/internal/persistence"
	"github.com/example/lab-reservation/internal/persistence/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stdout, "info").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := uuid.NewString
	now := time.Now

	roomCatalog := newRoomCatalogAdapter(storage)
	slotStore := newSlotStoreAdapter(storage)
	bookingReader := newBookingReaderAdapter(storage)
	accountStore := newAccountStoreAdapter(storage)
	credentialStore := newCredentialStoreAdapter(storage)
	sessionStore := newSessionStoreAdapter(storage)

	catalogService := application.NewCatalogServiceWithLogger(roomCatalog, idGenerator, now, logger)
	reservationService := application.NewReservationServiceWithLogger(roomCatalog, slotStore, logger)
	bookingQueryService := application.NewBookingQueryServiceWithLogger(roomCatalog, bookingReader, logger)
	userService := application.NewUserServiceWithLogger(accountStore, nil, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(credentialStore, sessionStore, nil, tokenGenerator, now, cfg.SessionTTL, logger)

	if err := userService.EnsureAdmin(ctx, cfg.AdminUserName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("failed to seed admin account", "error", err)
		os.Exit(1)
	}

	authHandler := httptransport.NewAuthHandler(authService, logger)
	userHandler := httptransport.NewUserHandler(userService, logger)
	roomHandler := httptransport.NewRoomHandler(catalogService, reservationService, bookingQueryService, logger)
	bookingHandler := httptransport.NewBookingHandler(reservationService, bookingQueryService, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:     authHandler,
		Users:    userHandler,
		Rooms:    roomHandler,
		Bookings: bookingHandler,
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicRoute(r) {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("lab reservation API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// isPublicRoute reports whether the request may skip session validation:
// logging in and registering an account must work without a session.
func isPublicRoute(r *http.Request) bool {
	if strings.EqualFold(r.URL.Path, "/login") {
		return true
	}
	return strings.EqualFold(r.URL.Path, "/users") && r.Method == http.MethodPost
}

type roomCatalogAdapter struct {
	repo persistence.RoomRepository
}

func newRoomCatalogAdapter(repo persistence.RoomRepository) *roomCatalogAdapter {
	return &roomCatalogAdapter{repo: repo}
}

func (a *roomCatalogAdapter) CreateRoomWithSlots(ctx context.Context, room application.Room, slots []application.SlotRecord) error {
	models := make([]persistence.Slot, 0, len(slots))
	for _, slot := range slots {
		models = append(models, persistence.Slot{
			ID:         slot.ID,
			RoomID:     room.ID,
			ComputerID: slot.ComputerID,
			Day:        slot.Day,
			Timeslot:   slot.Timeslot,
		})
	}
	return a.repo.CreateRoomWithSlots(ctx, toPersistenceRoom(room), models)
}

func (a *roomCatalogAdapter) GetRoomByNumber(ctx context.Context, buildingCode string, roomNumber int) (application.Room, error) {
	stored, err := a.repo.GetRoomByNumber(ctx, buildingCode, roomNumber)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomCatalogAdapter) UpdateOperatingSystem(ctx context.Context, buildingCode string, roomNumber int, operatingSystem string) error {
	return a.repo.UpdateOperatingSystem(ctx, buildingCode, roomNumber, operatingSystem)
}

func (a *roomCatalogAdapter) SearchRooms(ctx context.Context, search application.RoomSearch) ([]application.Room, error) {
	models, err := a.repo.SearchRooms(ctx, persistence.RoomFilter{
		BuildingCode:    search.BuildingCode,
		OperatingSystem: search.OperatingSystem,
	})
	if err != nil {
		return nil, err
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

type slotStoreAdapter struct {
	repo persistence.SlotRepository
}

func newSlotStoreAdapter(repo persistence.SlotRepository) *slotStoreAdapter {
	return &slotStoreAdapter{repo: repo}
}

func (a *slotStoreAdapter) ClaimFirstAvailable(ctx context.Context, roomID, day, timeslot, userName string) (application.SlotRecord, error) {
	claimed, err := a.repo.ClaimFirstAvailable(ctx, roomID, day, timeslot, userName)
	if err != nil {
		return application.SlotRecord{}, err
	}
	return toApplicationSlotRecord(claimed), nil
}

func (a *slotStoreAdapter) ClaimComputer(ctx context.Context, roomID, computerID, day, timeslot, userName string) (application.SlotRecord, error) {
	claimed, err := a.repo.ClaimComputer(ctx, roomID, computerID, day, timeslot, userName)
	if err != nil {
		return application.SlotRecord{}, err
	}
	return toApplicationSlotRecord(claimed), nil
}

func (a *slotStoreAdapter) ReleaseSlot(ctx context.Context, slotID, userName string) error {
	return a.repo.ReleaseSlot(ctx, slotID, userName)
}

func (a *slotStoreAdapter) ListSlotsForRoomDay(ctx context.Context, roomID, day string) ([]application.SlotRecord, error) {
	models, err := a.repo.ListSlotsForRoomDay(ctx, roomID, day)
	if err != nil {
		return nil, err
	}
	return toApplicationSlotRecords(models), nil
}

type bookingReaderAdapter struct {
	repo persistence.SlotRepository
}

func newBookingReaderAdapter(repo persistence.SlotRepository) *bookingReaderAdapter {
	return &bookingReaderAdapter{repo: repo}
}

func (a *bookingReaderAdapter) ListBookingsForRoomDay(ctx context.Context, roomID, day string) ([]application.SlotRecord, error) {
	models, err := a.repo.ListBookingsForRoomDay(ctx, roomID, day)
	if err != nil {
		return nil, err
	}
	return toApplicationSlotRecords(models), nil
}

func (a *bookingReaderAdapter) ListBookingsForUser(ctx context.Context, userName string) ([]application.Booking, error) {
	records, err := a.repo.ListBookingsForUser(ctx, userName)
	if err != nil {
		return nil, err
	}
	bookings := make([]application.Booking, 0, len(records))
	for _, record := range records {
		occupant := userName
		if record.Slot.Occupant != nil {
			occupant = *record.Slot.Occupant
		}
		bookings = append(bookings, application.Booking{
			ID:           record.Slot.ID,
			UserName:     occupant,
			BuildingCode: record.Room.BuildingCode,
			RoomNumber:   record.Room.RoomNumber,
			ComputerID:   record.Slot.ComputerID,
			Day:          record.Slot.Day,
			Timeslot:     record.Slot.Timeslot,
		})
	}
	return bookings, nil
}

type accountStoreAdapter struct {
	repo persistence.UserRepository
}

func newAccountStoreAdapter(repo persistence.UserRepository) *accountStoreAdapter {
	return &accountStoreAdapter{repo: repo}
}

func (a *accountStoreAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	model := persistence.User{
		ID:           user.ID,
		UserName:     user.UserName,
		Email:        user.Email,
		PasswordHash: passwordHash,
		IsAdmin:      user.IsAdmin,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	if err := a.repo.CreateUser(ctx, model); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUserByName(ctx, user.UserName)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *accountStoreAdapter) GetUserByName(ctx context.Context, userName string) (application.User, error) {
	stored, err := a.repo.GetUserByName(ctx, userName)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

type credentialStoreAdapter struct {
	repo persistence.UserRepository
}

func newCredentialStoreAdapter(repo persistence.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetUserCredentials(ctx context.Context, userName string) (application.User, string, error) {
	stored, err := a.repo.GetUserByName(ctx, userName)
	if err != nil {
		return application.User{}, "", err
	}
	return toApplicationUser(stored), stored.PasswordHash, nil
}

type sessionStoreAdapter struct {
	sessions persistence.SessionRepository
	users    persistence.UserRepository
}

func newSessionStoreAdapter(storage *sqlite.Storage) *sessionStoreAdapter {
	return &sessionStoreAdapter{sessions: storage, users: storage}
}

func (a *sessionStoreAdapter) CreateSession(ctx context.Context, session application.Session) error {
	return a.sessions.CreateSession(ctx, persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	})
}

func (a *sessionStoreAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.sessions.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return application.Session{
		ID:        stored.ID,
		UserID:    stored.UserID,
		Token:     stored.Token,
		ExpiresAt: stored.ExpiresAt,
		CreatedAt: stored.CreatedAt,
		RevokedAt: cloneTime(stored.RevokedAt),
	}, nil
}

func (a *sessionStoreAdapter) GetUserByID(ctx context.Context, id string) (application.User, error) {
	stored, err := a.users.GetUserByID(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *sessionStoreAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) error {
	return a.sessions.RevokeSession(ctx, token, revokedAt)
}

func (a *sessionStoreAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.sessions.DeleteExpiredSessions(ctx, reference)
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		ID:              model.ID,
		BuildingCode:    model.BuildingCode,
		RoomNumber:      model.RoomNumber,
		OperatingSystem: model.OperatingSystem,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:              room.ID,
		BuildingCode:    room.BuildingCode,
		RoomNumber:      room.RoomNumber,
		OperatingSystem: room.OperatingSystem,
		CreatedAt:       room.CreatedAt,
		UpdatedAt:       room.UpdatedAt,
	}
}

func toApplicationSlotRecord(model persistence.Slot) application.SlotRecord {
	return application.SlotRecord{
		ID:         model.ID,
		ComputerID: model.ComputerID,
		Day:        model.Day,
		Timeslot:   model.Timeslot,
		Occupant:   cloneString(model.Occupant),
	}
}

func toApplicationSlotRecords(models []persistence.Slot) []application.SlotRecord {
	records := make([]application.SlotRecord, 0, len(models))
	for _, model := range models {
		records = append(records, toApplicationSlotRecord(model))
	}
	return records
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:        model.ID,
		UserName:  model.UserName,
		Email:     model.Email,
		IsAdmin:   model.IsAdmin,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
