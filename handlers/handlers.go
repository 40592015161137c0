package handlers

import (
	"errors"
	"strings"
	"time"

	config "github.com/anjiri1684/field_booking/configs"
	"github.com/anjiri1684/field_booking/apperrors"
	"github.com/anjiri1684/field_booking/services"
	"github.com/anjiri1684/field_booking/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

// Handler serves the HTTP API on top of the services.
type Handler struct {
	svc *services.Services
	cfg config.Config
	log *logrus.Logger
}

func New(svc *services.Services, cfg config.Config, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, cfg: cfg, log: log}
}

var kindStatus = map[apperrors.Kind]int{
	apperrors.KindNotFound:       fiber.StatusNotFound,
	apperrors.KindValidation:     fiber.StatusBadRequest,
	apperrors.KindConflict:       fiber.StatusConflict,
	apperrors.KindAuthorization:  fiber.StatusForbidden,
	apperrors.KindAuthentication: fiber.StatusUnauthorized,
}

// ErrorHandler turns handler errors into the JSON error envelope.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"status": "error", "code": fe.Code, "message": fe.Message})
		}

		var ae *apperrors.Error
		if !errors.As(err, &ae) {
			ae = apperrors.Internal("Internal server error", err)
		}
		code, ok := kindStatus[ae.Kind]
		if !ok {
			code = fiber.StatusInternalServerError
			log.WithError(err).WithFields(logrus.Fields{"path": c.Path(), "method": c.Method()}).Error("request failed")
		}
		return c.Status(code).JSON(fiber.Map{"status": "error", "code": ae.Kind.String(), "message": ae.Message})
	}
}

// bind parses the JSON body into req and validates its tags.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.Validation("Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return apperrors.Validation("%s", strings.Join(msgs, "; "))
		}
		return apperrors.Validation("%s", err.Error())
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	name := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email"
	case "min", "gte":
		return name + " must be at least " + fe.Param()
	case "max", "lte":
		return name + " must be at most " + fe.Param()
	case "oneof":
		return name + " must be one of " + fe.Param()
	default:
		return name + " is invalid"
	}
}

func ok(c *fiber.Ctx, message string, data any) error {
	return c.JSON(fiber.Map{"status": "success", "message": message, "data": data})
}

func created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "message": message, "data": data})
}

func paginated(c *fiber.Ctx, message string, data any, meta utils.PageMeta) error {
	return c.JSON(fiber.Map{"status": "success", "message": message, "data": data, "pagination": meta})
}

func pageOf(c *fiber.Ctx) utils.Page {
	return utils.NewPage(c.QueryInt("page", utils.DefaultPage), c.QueryInt("limit", utils.DefaultLimit))
}

// optionalDate reads a YYYY-MM-DD query parameter; empty means not set.
func optionalDate(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := utils.ParseDate(raw)
	if err != nil {
		return nil, apperrors.Validation("Invalid %s, expected YYYY-MM-DD", key)
	}
	return &d, nil
}

// dateRange reads from_date and to_date, defaulting to the last 30 days.
func dateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	to := utils.DateOf(time.Now().UTC())
	from := to.AddDate(0, 0, -30)
	f, err := optionalDate(c, "from_date")
	if err != nil {
		return from, to, err
	}
	t, err := optionalDate(c, "to_date")
	if err != nil {
		return from, to, err
	}
	if f != nil {
		from = *f
	}
	if t != nil {
		to = *t
	}
	return from, to, nil
}

func optionalBool(c *fiber.Ctx, key string) *bool {
	switch strings.ToLower(c.Query(key)) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}
