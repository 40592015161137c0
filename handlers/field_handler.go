package handlers

import (
	"github.com/anjiri1684/field_booking/services"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateFieldRequest struct {
	FieldName   string          `json:"field_name" validate:"required,max=100"`
	Description *string         `json:"description"`
	Capacity    int             `json:"capacity" validate:"required,gt=0"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	FieldType   string          `json:"field_type" validate:"required,oneof=indoor outdoor hybrid"`
}

type UpdateFieldRequest struct {
	FieldName   *string          `json:"field_name" validate:"omitempty,max=100"`
	Description *string          `json:"description"`
	Capacity    *int             `json:"capacity" validate:"omitempty,gt=0"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate"`
	FieldType   *string          `json:"field_type" validate:"omitempty,oneof=indoor outdoor hybrid"`
	IsAvailable *bool            `json:"is_available"`
}

type AddImagesRequest struct {
	ImageURLs []string `json:"image_urls" validate:"required,min=1,dive,url"`
	IsPrimary bool     `json:"is_primary"`
}

func (h *Handler) ListFields(c *fiber.Ctx) error {
	filter := services.FieldFilter{Available: optionalBool(c, "available"), Type: c.Query("type")}
	fields, meta, err := h.svc.Fields.List(c.UserContext(), filter, pageOf(c))
	if err != nil {
		return err
	}
	return paginated(c, "Fields retrieved successfully", fields, meta)
}

func (h *Handler) GetField(c *fiber.Ctx) error {
	field, err := h.svc.Fields.Get(c.UserContext(), c.Params("fieldId"))
	if err != nil {
		return err
	}
	return ok(c, "Field retrieved successfully", field)
}

func (h *Handler) CheckAvailability(c *fiber.Ctx) error {
	a, err := h.svc.Fields.CheckAvailability(c.UserContext(), c.Params("fieldId"), c.Query("date"))
	if err != nil {
		return err
	}
	return ok(c, "Field availability retrieved successfully", a)
}

func (h *Handler) CreateField(c *fiber.Ctx) error {
	var req CreateFieldRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	field, err := h.svc.Fields.Create(c.UserContext(), services.CreateFieldInput{
		FieldName:   req.FieldName,
		Description: req.Description,
		Capacity:    req.Capacity,
		HourlyRate:  req.HourlyRate,
		FieldType:   req.FieldType,
	})
	if err != nil {
		return err
	}
	return created(c, "Field created successfully", field)
}

func (h *Handler) UpdateField(c *fiber.Ctx) error {
	var req UpdateFieldRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	field, err := h.svc.Fields.Update(c.UserContext(), c.Params("fieldId"), services.UpdateFieldInput{
		FieldName:   req.FieldName,
		Description: req.Description,
		Capacity:    req.Capacity,
		HourlyRate:  req.HourlyRate,
		FieldType:   req.FieldType,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		return err
	}
	return ok(c, "Field updated successfully", field)
}

func (h *Handler) DeleteField(c *fiber.Ctx) error {
	if err := h.svc.Fields.Delete(c.UserContext(), c.Params("fieldId")); err != nil {
		return err
	}
	return ok(c, "Field deleted successfully", nil)
}

// AddFieldImages records images already uploaded to Cloudinary with a
// signature from GenerateUploadSignature.
func (h *Handler) AddFieldImages(c *fiber.Ctx) error {
	var req AddImagesRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	images, err := h.svc.Fields.AddImages(c.UserContext(), c.Params("fieldId"), req.ImageURLs, req.IsPrimary)
	if err != nil {
		return err
	}
	return created(c, "Field images added successfully", images)
}
