package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"booking-service/internal/models"
	"booking-service/pkg/response"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const slotHolderIndex = "slot_holder_idx"

type appointmentDoc struct {
	ID              string     `bson:"_id"`
	UserID          string     `bson:"userId"`
	CustomerName    string     `bson:"customerName"`
	CustomerEmail   string     `bson:"customerEmail,omitempty"`
	Service         string     `bson:"service,omitempty"`
	Date            string     `bson:"date"`
	Timeslot        string     `bson:"timeslot"`
	Status          string     `bson:"status"`
	HoldsSlot       bool       `bson:"holdsSlot"`
	Notes           string     `bson:"notes,omitempty"`
	RescheduledFrom *string    `bson:"rescheduledFrom,omitempty"`
	RescheduleFee   string     `bson:"rescheduleFee"`
	CancelReason    string     `bson:"cancelReason,omitempty"`
	CancelledAt     *time.Time `bson:"cancelledAt,omitempty"`
	CreatedAt       time.Time  `bson:"createdAt"`
	UpdatedAt       time.Time  `bson:"updatedAt"`
}

type blockedSlotDoc struct {
	ID        string    `bson:"_id"`
	Date      string    `bson:"date"`
	Timeslots []string  `bson:"timeslots"`
	Reason    string    `bson:"reason,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
}

type Storage struct {
	client       *mongo.Client
	appointments *mongo.Collection
	blocked      *mongo.Collection
}

func New(uri, database string) (*Storage, error) {
	const op = "storage.mongo.New"

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db := client.Database(database)
	s := &Storage{
		client:       client,
		appointments: db.Collection("appointments"),
		blocked:      db.Collection("blocked_slots"),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	if s == nil || s.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.client.Disconnect(ctx)
}

// ensureIndexes makes (date, timeslot) unique among slot-holding appointments.
func (s *Storage) ensureIndexes(ctx context.Context) error {
	appointmentIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "date", Value: 1}, {Key: "timeslot", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName(slotHolderIndex).
				SetPartialFilterExpression(bson.M{"holdsSlot": true}),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("user_idx"),
		},
	}

	if _, err := s.appointments.Indexes().CreateMany(ctx, appointmentIndexes); err != nil {
		return fmt.Errorf("failed to create appointment indexes: %w", err)
	}

	if _, err := s.blocked.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}},
		Options: options.Index().SetName("date_idx"),
	}); err != nil {
		return fmt.Errorf("failed to create blocked slot indexes: %w", err)
	}

	return nil
}

// #### availability ####

func (s *Storage) BookedSlots(ctx context.Context, date string) ([]string, error) {
	const op = "storage.mongo.BookedSlots"

	cursor, err := s.appointments.Find(ctx,
		bson.M{"date": date, "holdsSlot": true},
		options.Find().SetProjection(bson.M{"timeslot": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		Timeslot string `bson:"timeslot"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slots := make([]string, len(docs))
	for i, d := range docs {
		slots[i] = d.Timeslot
	}

	return slots, nil
}

func (s *Storage) BlockedSlots(ctx context.Context, date string) ([]models.BlockedSlot, error) {
	const op = "storage.mongo.BlockedSlots"

	blocks, err := s.ListBlockedSlots(ctx, &date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]models.BlockedSlot, len(blocks))
	for i, b := range blocks {
		out[i] = *b
	}

	return out, nil
}

// #### appointments ####

func (s *Storage) CreateAppointment(ctx context.Context, a *models.Appointment) (string, error) {
	const op = "storage.mongo.CreateAppointment"

	if _, err := s.appointments.InsertOne(ctx, toAppointmentDoc(a)); err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err))
	}

	return a.ID, nil
}

func (s *Storage) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	const op = "storage.mongo.GetAppointment"

	var doc appointmentDoc
	if err := s.appointments.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return fromAppointmentDoc(doc), nil
}

func (s *Storage) ListAppointments(ctx context.Context, filter models.AppointmentFilter) ([]*models.Appointment, error) {
	const op = "storage.mongo.ListAppointments"

	query := bson.M{}
	if filter.Date != nil {
		query["date"] = *filter.Date
	}
	if filter.UserID != nil {
		query["userId"] = *filter.UserID
	}
	if filter.Status != nil {
		query["status"] = string(*filter.Status)
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "timeslot", Value: 1},
		{Key: "createdAt", Value: 1},
	})

	cursor, err := s.appointments.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cursor.Close(ctx)

	var docs []appointmentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	appointments := make([]*models.Appointment, len(docs))
	for i, d := range docs {
		appointments[i] = fromAppointmentDoc(d)
	}

	return appointments, nil
}

func (s *Storage) UpdateAppointmentStatus(ctx context.Context, id string, from, to models.AppointmentStatus, reason string, at time.Time) error {
	const op = "storage.mongo.UpdateAppointmentStatus"

	if err := s.updateStatus(ctx, id, from, to, reason, at); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RescheduleAppointment releases the old appointment and inserts next inside
// one session transaction. Transactions need a replica set.
func (s *Storage) RescheduleAppointment(ctx context.Context, oldID string, from models.AppointmentStatus, next *models.Appointment, at time.Time) (string, error) {
	const op = "storage.mongo.RescheduleAppointment"

	session, err := s.client.StartSession()
	if err != nil {
		return "", fmt.Errorf("%s: start session: %w", op, err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := s.updateStatus(sc, oldID, from, models.StatusCancelledReschedule, "", at); err != nil {
			return nil, err
		}
		if _, err := s.appointments.InsertOne(sc, toAppointmentDoc(next)); err != nil {
			return nil, mapError(err)
		}
		return nil, nil
	}, txnOpts)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return next.ID, nil
}

func (s *Storage) updateStatus(ctx context.Context, id string, from, to models.AppointmentStatus, reason string, at time.Time) error {
	set := bson.M{
		"status":    string(to),
		"holdsSlot": to.HoldsSlot(),
		"updatedAt": at,
	}
	if reason != "" {
		set["cancelReason"] = reason
	}
	if to == models.StatusCancelled || to == models.StatusCancelledReschedule {
		set["cancelledAt"] = at
	}

	res, err := s.appointments.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": set},
	)
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := s.appointments.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return response.ErrNotFound
	}

	return response.ErrConflict
}

// #### blocked slots ####

func (s *Storage) CreateBlockedSlot(ctx context.Context, b *models.BlockedSlot) (string, error) {
	const op = "storage.mongo.CreateBlockedSlot"

	doc := blockedSlotDoc{
		ID:        b.ID,
		Date:      b.Date,
		Timeslots: b.Timeslots,
		Reason:    b.Reason,
		CreatedAt: b.CreatedAt,
	}

	if _, err := s.blocked.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err))
	}

	return b.ID, nil
}

func (s *Storage) GetBlockedSlot(ctx context.Context, id string) (*models.BlockedSlot, error) {
	const op = "storage.mongo.GetBlockedSlot"

	var doc blockedSlotDoc
	if err := s.blocked.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return fromBlockedSlotDoc(doc), nil
}

func (s *Storage) ListBlockedSlots(ctx context.Context, date *string) ([]*models.BlockedSlot, error) {
	const op = "storage.mongo.ListBlockedSlots"

	query := bson.M{}
	if date != nil {
		query["date"] = *date
	}

	cursor, err := s.blocked.Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cursor.Close(ctx)

	var docs []blockedSlotDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	blocks := make([]*models.BlockedSlot, len(docs))
	for i, d := range docs {
		blocks[i] = fromBlockedSlotDoc(d)
	}

	return blocks, nil
}

func (s *Storage) DeleteBlockedSlot(ctx context.Context, id string) error {
	const op = "storage.mongo.DeleteBlockedSlot"

	res, err := s.blocked.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### mapping ####

func toAppointmentDoc(a *models.Appointment) appointmentDoc {
	return appointmentDoc{
		ID:              a.ID,
		UserID:          a.UserID,
		CustomerName:    a.CustomerName,
		CustomerEmail:   a.CustomerEmail,
		Service:         a.Service,
		Date:            a.Date,
		Timeslot:        a.Timeslot,
		Status:          string(a.Status),
		HoldsSlot:       a.Status.HoldsSlot(),
		Notes:           a.Notes,
		RescheduledFrom: a.RescheduledFrom,
		RescheduleFee:   a.RescheduleFee.String(),
		CancelReason:    a.CancelReason,
		CancelledAt:     a.CancelledAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func fromAppointmentDoc(d appointmentDoc) *models.Appointment {
	fee, err := decimal.NewFromString(d.RescheduleFee)
	if err != nil {
		fee = decimal.Zero
	}

	return &models.Appointment{
		ID:              d.ID,
		UserID:          d.UserID,
		CustomerName:    d.CustomerName,
		CustomerEmail:   d.CustomerEmail,
		Service:         d.Service,
		Date:            d.Date,
		Timeslot:        d.Timeslot,
		Status:          models.AppointmentStatus(d.Status),
		Notes:           d.Notes,
		RescheduledFrom: d.RescheduledFrom,
		RescheduleFee:   fee,
		CancelReason:    d.CancelReason,
		CancelledAt:     d.CancelledAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func fromBlockedSlotDoc(d blockedSlotDoc) *models.BlockedSlot {
	return &models.BlockedSlot{
		ID:        d.ID,
		Date:      d.Date,
		Timeslots: d.Timeslots,
		Reason:    d.Reason,
		CreatedAt: d.CreatedAt,
	}
}

// mapError turns a duplicate key on the slot-holder index into ErrSlotNotAvailable.
func mapError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}

	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if strings.Contains(e.Message, slotHolderIndex) {
				return fmt.Errorf("%w: %s", response.ErrSlotNotAvailable, e.Message)
			}
		}
	}

	return fmt.Errorf("%w: %v", response.ErrConflict, err)
}
