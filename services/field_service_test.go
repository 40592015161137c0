package services

import (
	"context"
	"testing"

	"github.com/anjiri1684/field_booking/apperrors"
	"github.com/anjiri1684/field_booking/models"
	"github.com/anjiri1684/field_booking/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldCRUD(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Fields.Create(ctx, CreateFieldInput{FieldName: "Zero", Capacity: 4, HourlyRate: decimal.Zero, FieldType: models.FieldIndoor})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	f, err := e.svc.Fields.Create(ctx, CreateFieldInput{
		FieldName: "  Arena  ", Capacity: 12, HourlyRate: dec("75000.456"), FieldType: models.FieldIndoor,
	})
	require.NoError(t, err)
	assert.Equal(t, "Arena", f.FieldName)
	assert.True(t, f.IsAvailable)
	assert.True(t, dec("75000.46").Equal(f.HourlyRate))

	name, capacity := "Main Arena", 14
	got, err := e.svc.Fields.Update(ctx, f.ID, UpdateFieldInput{FieldName: &name, Capacity: &capacity})
	require.NoError(t, err)
	assert.Equal(t, "Main Arena", got.FieldName)
	assert.Equal(t, 14, got.Capacity)
	assert.Equal(t, models.FieldIndoor, got.FieldType)

	neg := dec("-1")
	_, err = e.svc.Fields.Update(ctx, f.ID, UpdateFieldInput{HourlyRate: &neg})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = e.svc.Fields.Update(ctx, f.ID, UpdateFieldInput{})
	assert.NoError(t, err)

	_, err = e.svc.Fields.Update(ctx, "field-missing", UpdateFieldInput{FieldName: &name})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	require.NoError(t, e.svc.Fields.Delete(ctx, f.ID))
	_, err = e.svc.Fields.Get(ctx, f.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.True(t, apperrors.Is(e.svc.Fields.Delete(ctx, f.ID), apperrors.KindNotFound))
}

func TestListFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	open := e.field(t, 50000)
	closed := e.field(t, 60000)
	off := false
	_, err := e.svc.Fields.Update(ctx, closed.ID, UpdateFieldInput{IsAvailable: &off})
	require.NoError(t, err)

	all, meta, err := e.svc.Fields.List(ctx, FieldFilter{}, utils.NewPage(1, 10))
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, int64(2), meta.TotalItems)

	on := true
	avail, _, err := e.svc.Fields.List(ctx, FieldFilter{Available: &on}, utils.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, open.ID, avail[0].ID)

	indoor, _, err := e.svc.Fields.List(ctx, FieldFilter{Type: models.FieldIndoor}, utils.NewPage(1, 10))
	require.NoError(t, err)
	assert.Empty(t, indoor)
}

func TestAddImagesPrimary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	f := e.field(t, 50000)

	_, err := e.svc.Fields.AddImages(ctx, f.ID, nil, false)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	_, err = e.svc.Fields.AddImages(ctx, "field-missing", []string{"https://img.example/x.jpg"}, false)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	imgs, err := e.svc.Fields.AddImages(ctx, f.ID, []string{"https://img.example/a.jpg", "https://img.example/b.jpg"}, true)
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.True(t, imgs[0].IsPrimary)
	assert.False(t, imgs[1].IsPrimary)

	_, err = e.svc.Fields.AddImages(ctx, f.ID, []string{"https://img.example/c.jpg"}, true)
	require.NoError(t, err)

	got, err := e.svc.Fields.Get(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 3)
	assert.Equal(t, "https://img.example/c.jpg", got.Images[0].ImageURL)
	primaries := 0
	for _, img := range got.Images {
		if img.IsPrimary {
			primaries++
		}
	}
	assert.Equal(t, 1, primaries)
}

func TestCheckAvailability(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := principal(e.user(t, models.RoleCustomer))
	f := e.field(t, 50000)
	day := tomorrow()

	a, err := e.svc.Fields.CheckAvailability(ctx, f.ID, day)
	require.NoError(t, err)
	assert.Len(t, a.AvailableSlots, 14)
	assert.Empty(t, a.BookedSlots)

	e.book(t, p, f.ID, day, "09:00", "11:00")
	e.book(t, p, f.ID, day, "13:30", "14:15")
	c := e.book(t, p, f.ID, day, "18:00", "19:00")
	_, err = e.svc.Bookings.Cancel(ctx, p, c.BookingID)
	require.NoError(t, err)

	a, err = e.svc.Fields.CheckAvailability(ctx, f.ID, day)
	require.NoError(t, err)
	assert.Equal(t, f.FieldName, a.FieldName)
	assert.Equal(t, day, a.Date)
	assert.Equal(t, []Slot{{Start: 540, End: 660}, {Start: 810, End: 855}}, a.BookedSlots)
	// 09-10, 10-11 overlap the first booking; 13-14, 14-15 the second.
	assert.Len(t, a.AvailableSlots, 10)
	for _, s := range a.AvailableSlots {
		for _, b := range a.BookedSlots {
			assert.False(t, s.Overlaps(b), "%v overlaps %v", s, b)
		}
	}

	_, err = e.svc.Fields.CheckAvailability(ctx, f.ID, "")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	_, err = e.svc.Fields.CheckAvailability(ctx, f.ID, "18/10/2026")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	_, err = e.svc.Fields.CheckAvailability(ctx, "field-missing", day)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}
