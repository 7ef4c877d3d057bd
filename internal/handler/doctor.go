package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/healthcare-backend/internal/apperr"
	"github.com/iliyamo/healthcare-backend/internal/model"
	"github.com/iliyamo/healthcare-backend/internal/queue"
	"github.com/iliyamo/healthcare-backend/internal/repository"
	"github.com/iliyamo/healthcare-backend/internal/schema"
	"github.com/iliyamo/healthcare-backend/internal/service"
)

// DoctorHandler serves the doctor directory. Reads are public; the route
// middleware requires authentication for writes.
type DoctorHandler struct {
	Doctors repository.Doctors
	Events  service.Emitter
}

func NewDoctorHandler(doctors repository.Doctors, events service.Emitter) *DoctorHandler {
	if doctors == nil {
		panic("nil repository passed to NewDoctorHandler")
	}
	if events == nil {
		events = service.NopEmitter{}
	}
	return &DoctorHandler{Doctors: doctors, Events: events}
}

func (h *DoctorHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	ds, err := h.Doctors.List(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, schema.NewDoctorList(ds))
}

func (h *DoctorHandler) Create(c echo.Context) error {
	var in schema.DoctorInput
	if err := bind(c, &in); err != nil {
		return err
	}
	d := &model.Doctor{}
	in.Apply(d)

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Doctors.Create(ctx, d); err != nil {
		return mapDoctorErr(err)
	}
	emit(h.Events, c, queue.EventDoctorCreated, "doctor", d.ID)
	return c.JSON(http.StatusCreated, schema.NewDoctorResponse(d))
}

func (h *DoctorHandler) Get(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	d, err := h.load(ctx, c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, schema.NewDoctorResponse(d))
}

func (h *DoctorHandler) Update(c echo.Context) error {
	var in schema.DoctorInput
	return h.save(c, &in, in.Apply)
}

func (h *DoctorHandler) Patch(c echo.Context) error {
	var in schema.DoctorPatch
	return h.save(c, &in, in.Apply)
}

func (h *DoctorHandler) save(c echo.Context, in any, apply func(*model.Doctor)) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	d, err := h.load(ctx, c)
	if err != nil {
		return err
	}
	if err := bind(c, in); err != nil {
		return err
	}
	apply(d)
	if err := h.Doctors.Update(ctx, d); err != nil {
		return mapDoctorErr(err)
	}
	emit(h.Events, c, queue.EventDoctorUpdated, "doctor", d.ID)
	return c.JSON(http.StatusOK, schema.NewDoctorResponse(d))
}

// Delete removes the doctor together with its mappings.
func (h *DoctorHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Doctors.Delete(ctx, id); err != nil {
		return mapDoctorErr(err)
	}
	emit(h.Events, c, queue.EventDoctorDeleted, "doctor", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *DoctorHandler) load(ctx context.Context, c echo.Context) (*model.Doctor, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}
	d, err := h.Doctors.GetByID(ctx, id)
	if err != nil {
		return nil, mapDoctorErr(err)
	}
	return d, nil
}

func mapDoctorErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrDoctorNotFound):
		return apperr.NotFound("not found")
	case errors.Is(err, repository.ErrDoctorEmailTaken):
		return apperr.Field("email", "doctor with this email already exists.")
	}
	return apperr.Internal(err)
}
