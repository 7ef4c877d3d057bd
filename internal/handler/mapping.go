package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/healthcare-backend/internal/apperr"
	"github.com/iliyamo/healthcare-backend/internal/model"
	"github.com/iliyamo/healthcare-backend/internal/queue"
	"github.com/iliyamo/healthcare-backend/internal/repository"
	"github.com/iliyamo/healthcare-backend/internal/schema"
	"github.com/iliyamo/healthcare-backend/internal/service"
)

// MappingHandler serves patient-doctor links. Any authenticated caller may
// list, create and delete mappings; patient ownership is not checked here.
type MappingHandler struct {
	Mappings repository.Mappings
	Patients repository.Patients
	Doctors  repository.Doctors
	Events   service.Emitter
}

func NewMappingHandler(mappings repository.Mappings, patients repository.Patients, doctors repository.Doctors, events service.Emitter) *MappingHandler {
	if mappings == nil || patients == nil || doctors == nil {
		panic("nil repository passed to NewMappingHandler")
	}
	if events == nil {
		events = service.NopEmitter{}
	}
	return &MappingHandler{Mappings: mappings, Patients: patients, Doctors: doctors, Events: events}
}

func (h *MappingHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	ms, err := h.Mappings.List(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, schema.NewMappingList(ms))
}

// ListByPatient returns the mappings of the patient named by :id. An
// unknown patient yields an empty list.
func (h *MappingHandler) ListByPatient(c echo.Context) error {
	patientID, err := pathID(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	ms, err := h.Mappings.ListByPatient(ctx, patientID)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, schema.NewMappingList(ms))
}

// Create links a patient to a doctor. A duplicate pair is rejected by the
// unique index, not by a prior lookup.
func (h *MappingHandler) Create(c echo.Context) error {
	var in schema.MappingInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.checkRefs(ctx, *in.Patient, *in.Doctor); err != nil {
		return err
	}
	m := &model.Mapping{PatientID: *in.Patient, DoctorID: *in.Doctor}
	if err := h.Mappings.Create(ctx, m); err != nil {
		switch {
		case errors.Is(err, repository.ErrMappingExists):
			return apperr.Conflict("this patient is already mapped to this doctor")
		case errors.Is(err, repository.ErrInvalidReference):
			// patient or doctor deleted between the check and the insert
			if err := h.checkRefs(ctx, m.PatientID, m.DoctorID); err != nil {
				return err
			}
			return apperr.Validation("referenced record does not exist", nil)
		}
		return apperr.Internal(err)
	}
	emit(h.Events, c, queue.EventMappingCreated, "mapping", m.ID)
	return c.JSON(http.StatusCreated, schema.NewMappingResponse(m))
}

func (h *MappingHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Mappings.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrMappingNotFound) {
			return apperr.NotFound("not found")
		}
		return apperr.Internal(err)
	}
	emit(h.Events, c, queue.EventMappingDeleted, "mapping", id)
	return c.NoContent(http.StatusNoContent)
}

// checkRefs reports every referenced record that does not exist as a
// field error.
func (h *MappingHandler) checkRefs(ctx context.Context, patientID, doctorID uint64) error {
	fields := map[string][]string{}
	if _, err := h.Patients.GetByID(ctx, patientID); err != nil {
		if !errors.Is(err, repository.ErrPatientNotFound) {
			return apperr.Internal(err)
		}
		fields["patient"] = []string{missingPK(patientID)}
	}
	if _, err := h.Doctors.GetByID(ctx, doctorID); err != nil {
		if !errors.Is(err, repository.ErrDoctorNotFound) {
			return apperr.Internal(err)
		}
		fields["doctor"] = []string{missingPK(doctorID)}
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid input", fields)
	}
	return nil
}

func missingPK(id uint64) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}
