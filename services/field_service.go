package services

import (
	"context"
	"strings"
	"time"

	"github.com/anjiri1684/field_booking/apperrors"
	"github.com/anjiri1684/field_booking/database"
	"github.com/anjiri1684/field_booking/models"
	"github.com/anjiri1684/field_booking/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type FieldService struct {
	db     *gorm.DB
	log    *logrus.Logger
	window Window
}

func NewFieldService(db *gorm.DB, log *logrus.Logger) *FieldService {
	return &FieldService{db: db, log: log, window: BusinessWindow}
}

type CreateFieldInput struct {
	FieldName   string
	Description *string
	Capacity    int
	HourlyRate  decimal.Decimal
	FieldType   string
}

// UpdateFieldInput is a partial update; nil members are left unchanged.
type UpdateFieldInput struct {
	FieldName   *string
	Description *string
	Capacity    *int
	HourlyRate  *decimal.Decimal
	FieldType   *string
	IsAvailable *bool
}

type FieldFilter struct {
	Available *bool
	Type      string
}

type Availability struct {
	FieldID        string `json:"field_id"`
	FieldName      string `json:"field_name"`
	Date           string `json:"date"`
	AvailableSlots []Slot `json:"available_slots"`
	BookedSlots    []Slot `json:"booked_slots"`
}

func imagesPrimaryFirst(db *gorm.DB) *gorm.DB {
	return db.Order("is_primary DESC").Order("created_at ASC")
}

func (f FieldFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Available != nil {
		db = db.Where("is_available = ?", *f.Available)
	}
	if f.Type != "" {
		db = db.Where("field_type = ?", f.Type)
	}
	return db
}

func (s *FieldService) Create(ctx context.Context, in CreateFieldInput) (*models.Field, error) {
	if !in.HourlyRate.IsPositive() {
		return nil, apperrors.Validation("Hourly rate must be positive")
	}
	field := models.Field{
		ID:          utils.NewID(utils.KindField),
		FieldName:   strings.TrimSpace(in.FieldName),
		Description: in.Description,
		Capacity:    in.Capacity,
		HourlyRate:  in.HourlyRate.Round(2),
		FieldType:   in.FieldType,
		IsAvailable: true,
	}
	if err := s.db.WithContext(ctx).Create(&field).Error; err != nil {
		return nil, storeErr(err, "Failed to create field")
	}
	field.Images = []models.FieldImage{}
	s.log.WithField("field_id", field.ID).Info("field created")
	return &field, nil
}

func (s *FieldService) List(ctx context.Context, filter FieldFilter, page utils.Page) ([]models.Field, utils.PageMeta, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Field{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, utils.PageMeta{}, storeErr(err, "Failed to count fields")
	}

	var fields []models.Field
	err := s.db.WithContext(ctx).
		Scopes(filter.scope, page.Scope).
		Preload("Images", imagesPrimaryFirst).
		Order("created_at DESC").
		Find(&fields).Error
	if err != nil {
		return nil, utils.PageMeta{}, storeErr(err, "Failed to list fields")
	}
	return fields, page.Meta(total), nil
}

func (s *FieldService) Get(ctx context.Context, id string) (*models.Field, error) {
	var field models.Field
	err := s.db.WithContext(ctx).Preload("Images", imagesPrimaryFirst).First(&field, "id = ?", id).Error
	if database.IsNotFound(err) {
		return nil, apperrors.NotFound("Field not found")
	}
	if err != nil {
		return nil, storeErr(err, "Failed to load field")
	}
	return &field, nil
}

func (s *FieldService) Update(ctx context.Context, id string, in UpdateFieldInput) (*models.Field, error) {
	updates := map[string]any{}
	if in.FieldName != nil {
		updates["field_name"] = strings.TrimSpace(*in.FieldName)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Capacity != nil {
		updates["capacity"] = *in.Capacity
	}
	if in.HourlyRate != nil {
		if !in.HourlyRate.IsPositive() {
			return nil, apperrors.Validation("Hourly rate must be positive")
		}
		updates["hourly_rate"] = in.HourlyRate.Round(2)
	}
	if in.FieldType != nil {
		updates["field_type"] = *in.FieldType
	}
	if in.IsAvailable != nil {
		updates["is_available"] = *in.IsAvailable
	}

	if len(updates) == 0 {
		updates["updated_at"] = time.Now().UTC()
	}
	res := s.db.WithContext(ctx).Model(&models.Field{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, storeErr(res.Error, "Failed to update field")
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("Field not found")
	}
	return s.Get(ctx, id)
}

// Delete removes the field; images and bookings go with it by foreign key.
func (s *FieldService) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Field{}, "id = ?", id)
	if res.Error != nil {
		return storeErr(res.Error, "Failed to delete field")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("Field not found")
	}
	s.log.WithField("field_id", id).Info("field deleted")
	return nil
}

// AddImages stores urls in one transaction. With primary set, existing
// primaries are cleared and only the first new image becomes primary.
func (s *FieldService) AddImages(ctx context.Context, fieldID string, urls []string, primary bool) ([]models.FieldImage, error) {
	if len(urls) == 0 {
		return nil, apperrors.Validation("At least one image is required")
	}

	var images []models.FieldImage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var field models.Field
		if err := tx.Select("id").First(&field, "id = ?", fieldID).Error; err != nil {
			if database.IsNotFound(err) {
				return apperrors.NotFound("Field not found")
			}
			return err
		}

		if primary {
			if err := tx.Model(&models.FieldImage{}).Where("field_id = ?", fieldID).Update("is_primary", false).Error; err != nil {
				return err
			}
		}

		for i, url := range urls {
			img := models.FieldImage{
				ID:        utils.NewID(utils.KindImage),
				FieldID:   fieldID,
				ImageURL:  url,
				IsPrimary: primary && i == 0,
			}
			if err := tx.Create(&img).Error; err != nil {
				return err
			}
			images = append(images, img)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "Failed to add field images")
	}
	return images, nil
}

// CheckAvailability lists free and booked slots of a field on date (YYYY-MM-DD).
func (s *FieldService) CheckAvailability(ctx context.Context, fieldID, date string) (*Availability, error) {
	if strings.TrimSpace(date) == "" {
		return nil, apperrors.Validation("Date is required")
	}
	day, err := utils.ParseDate(date)
	if err != nil {
		return nil, apperrors.Validation("Invalid date, expected YYYY-MM-DD")
	}

	var field models.Field
	if err := s.db.WithContext(ctx).Select("id", "field_name").First(&field, "id = ?", fieldID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.NotFound("Field not found")
		}
		return nil, storeErr(err, "Failed to load field")
	}

	booked, err := bookedSlots(s.db.WithContext(ctx), fieldID, day)
	if err != nil {
		return nil, storeErr(err, "Failed to load bookings")
	}

	return &Availability{
		FieldID:        field.ID,
		FieldName:      field.FieldName,
		Date:           day.Format(utils.DateLayout),
		AvailableSlots: ComputeSlots(s.window, booked),
		BookedSlots:    booked,
	}, nil
}

// bookedSlots loads the non-cancelled bookings of a field on one day,
// ordered by start time.
func bookedSlots(db *gorm.DB, fieldID string, day time.Time) ([]Slot, error) {
	var rows []models.Booking
	err := db.Select("start_time", "end_time").
		Where("field_id = ? AND booking_date = ? AND booking_status <> ?", fieldID, utils.DateOf(day), models.BookingCancelled).
		Order("start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Slot, 0, len(rows))
	for _, b := range rows {
		out = append(out, Slot{Start: utils.ClockMinutes(b.StartTime), End: utils.ClockMinutes(b.EndTime)})
	}
	return out, nil
}
