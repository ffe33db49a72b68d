package person

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wichananm65/persons-service/internal/interface/presenter"
)

const (
	basePath = "/api/v1/persons"

	conflictMessage   = "The data was modified by another user. Please refresh and try again."
	unexpectedMessage = "An unexpected error occurred."
)

// Handler exposes the person service over HTTP.
type Handler struct {
	service *Service
	logger  *zap.SugaredLogger
}

func NewHandler(service *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get(basePath, h.listPersons)
	app.Post(basePath, h.createPerson)
	app.Get(basePath+"/:id", h.getPerson)
	app.Delete(basePath+"/:id", h.deletePerson)
	app.Post(basePath+"/:id/addresses", h.addEmailAddresses)
	app.Post(basePath+"/:id/phone-numbers", h.addPhoneNumbers)
}

func (h *Handler) listPersons(c *fiber.Ctx) error {
	persons, err := h.service.List(c.UserContext(), optionalQuery(c, "name"), optionalQuery(c, "surname"), optionalQuery(c, "sex"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(ToDTOs(persons))
}

func (h *Handler) getPerson(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	p, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(ToDTO(&p))
}

func (h *Handler) createPerson(c *fiber.Ctx) error {
	payload := new(PersonDTO)
	if err := c.BodyParser(payload); err != nil {
		return writeBadRequest(c, err.Error())
	}
	if ok, err := h.validate(c, payload); !ok {
		return err
	}

	created, err := h.service.Create(c.UserContext(), *ToEntity(payload))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ToDTO(&created))
}

func (h *Handler) deletePerson(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) addEmailAddresses(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	payload := new(EmailAddressesRequest)
	if isJSONArray(c.Body()) {
		err = c.BodyParser(&payload.EmailAddresses)
	} else {
		err = c.BodyParser(payload)
	}
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if ok, err := h.validate(c, payload); !ok {
		return err
	}

	updated, err := h.service.AddEmailAddresses(c.UserContext(), id, payload.EmailAddresses)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ToDTO(&updated))
}

func (h *Handler) addPhoneNumbers(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	payload := new(PhoneNumbersRequest)
	if isJSONArray(c.Body()) {
		err = c.BodyParser(&payload.PhoneNumbers)
	} else {
		err = c.BodyParser(payload)
	}
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if ok, err := h.validate(c, payload); !ok {
		return err
	}

	updated, err := h.service.AddPhoneNumbers(c.UserContext(), id, payload.PhoneNumbers)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ToDTO(&updated))
}

// validate writes the 400 response itself when payload is invalid; the
// returned error is the result of that write.
func (h *Handler) validate(c *fiber.Ctx, payload any) (bool, error) {
	fieldErrors, err := validatePayload(payload)
	if err != nil {
		return false, h.writeError(c, err)
	}
	if len(fieldErrors) > 0 {
		return false, c.Status(fiber.StatusBadRequest).JSON(presenter.NewValidationError(fieldErrors))
	}
	return true, nil
}

func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	var resp *presenter.ErrorResponse
	switch {
	case errors.Is(err, ErrInvalidArgument):
		resp = presenter.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		resp = presenter.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		resp = presenter.NewError(fiber.StatusConflict, conflictMessage)
	case errors.Is(err, ErrDuplicatePIN):
		resp = presenter.NewError(fiber.StatusConflict, err.Error())
	default:
		h.logger.Errorw("person request failed", "method", c.Method(), "path", c.Path(), "err", err)
		resp = presenter.NewError(fiber.StatusInternalServerError, unexpectedMessage)
	}
	return c.Status(resp.Status).JSON(resp)
}

func writeBadRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(presenter.NewError(fiber.StatusBadRequest, message))
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid person id: " + c.Params("id"))
	}
	return id, nil
}

// optionalQuery distinguishes an absent parameter (nil) from an empty one.
func optionalQuery(c *fiber.Ctx, key string) *string {
	args := c.Context().QueryArgs()
	if !args.Has(key) {
		return nil
	}
	v := string(args.Peek(key))
	return &v
}

func isJSONArray(body []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(body), []byte("["))
}
