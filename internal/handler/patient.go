package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/healthcare-backend/internal/apperr"
	"github.com/iliyamo/healthcare-backend/internal/middleware"
	"github.com/iliyamo/healthcare-backend/internal/model"
	"github.com/iliyamo/healthcare-backend/internal/policy"
	"github.com/iliyamo/healthcare-backend/internal/queue"
	"github.com/iliyamo/healthcare-backend/internal/repository"
	"github.com/iliyamo/healthcare-backend/internal/schema"
	"github.com/iliyamo/healthcare-backend/internal/service"
)

// PatientHandler serves the owner-scoped patient endpoints.
type PatientHandler struct {
	Patients repository.Patients
	Events   service.Emitter
}

func NewPatientHandler(patients repository.Patients, events service.Emitter) *PatientHandler {
	if patients == nil {
		panic("nil repository passed to NewPatientHandler")
	}
	if events == nil {
		events = service.NopEmitter{}
	}
	return &PatientHandler{Patients: patients, Events: events}
}

// List returns the caller's patients, newest first.
func (h *PatientHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	ps, err := h.Patients.ListByOwner(ctx, middleware.IdentityFrom(c).UserID)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, schema.NewPatientList(ps))
}

// Create stores a patient owned by the caller. Any owner in the body is
// ignored.
func (h *PatientHandler) Create(c echo.Context) error {
	var in schema.PatientInput
	if err := bind(c, &in); err != nil {
		return err
	}
	id := middleware.IdentityFrom(c)
	if err := policy.Authorize(id, policy.Create, policy.OfKind(policy.KindPatient)); err != nil {
		return err
	}
	p := &model.Patient{OwnerID: id.UserID}
	in.Apply(p)

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Patients.Create(ctx, p); err != nil {
		return apperr.Internal(err)
	}
	emit(h.Events, c, queue.EventPatientCreated, "patient", p.ID)
	return c.JSON(http.StatusCreated, schema.NewPatientResponse(p))
}

func (h *PatientHandler) Get(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.load(ctx, c, policy.Read)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, schema.NewPatientResponse(p))
}

// Update replaces every writable field (PUT).
func (h *PatientHandler) Update(c echo.Context) error {
	var in schema.PatientInput
	return h.save(c, &in, in.Apply)
}

// Patch changes only the fields present in the body (PATCH).
func (h *PatientHandler) Patch(c echo.Context) error {
	var in schema.PatientPatch
	return h.save(c, &in, in.Apply)
}

func (h *PatientHandler) save(c echo.Context, in any, apply func(*model.Patient)) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	// existence and ownership are settled before the body is looked at
	p, err := h.load(ctx, c, policy.Write)
	if err != nil {
		return err
	}
	if err := bind(c, in); err != nil {
		return err
	}
	apply(p)
	if err := h.Patients.Update(ctx, p); err != nil {
		return mapPatientErr(err)
	}
	emit(h.Events, c, queue.EventPatientUpdated, "patient", p.ID)
	return c.JSON(http.StatusOK, schema.NewPatientResponse(p))
}

// Delete removes the patient together with its mappings.
func (h *PatientHandler) Delete(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.load(ctx, c, policy.Write)
	if err != nil {
		return err
	}
	if err := h.Patients.Delete(ctx, p.ID, p.OwnerID); err != nil {
		return mapPatientErr(err)
	}
	emit(h.Events, c, queue.EventPatientDeleted, "patient", p.ID)
	return c.NoContent(http.StatusNoContent)
}

// load fetches the patient named by :id and applies the record-level
// policy. Missing and foreign patients yield the same error.
func (h *PatientHandler) load(ctx context.Context, c echo.Context, op policy.Operation) (*model.Patient, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, errPatientNotFound()
	}
	p, err := h.Patients.GetByID(ctx, id)
	if err != nil {
		return nil, mapPatientErr(err)
	}
	if err := policy.Authorize(middleware.IdentityFrom(c), op, policy.Patient(p.OwnerID)); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, errPatientNotFound()
		}
		return nil, err
	}
	return p, nil
}

func errPatientNotFound() *apperr.Error { return apperr.NotFound("not found") }

func mapPatientErr(err error) error {
	if errors.Is(err, repository.ErrPatientNotFound) {
		return errPatientNotFound()
	}
	return apperr.Internal(err)
}
