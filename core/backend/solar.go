package backend

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sahnaf-tech/storefront/core"
	"github.com/sahnaf-tech/storefront/core/catalog"
	"github.com/sahnaf-tech/storefront/core/logger"
)

func (b *Backend) handleSolarProjects(router *mux.Router) {
	rlog := logger.Default()
	rlog.Debugln("solar projects")
	rlog.Debugln("  handle route: /solar-projects GET")
	rlog.Debugln("  handle route: /solar-projects POST")
	rlog.Debugln("  handle route: /solar-projects PUT")
	rlog.Debugln("  handle route: /solar-projects DELETE")

	router.HandleFunc("/solar-projects", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		projects, err := b.store.ListSolarProjects(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSONWithEtag(w, r, projects)
	}).Methods(http.MethodGet)

	router.HandleFunc("/solar-projects", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		if !b.authorize(w, r) {
			return
		}
		b.createSolarProject(w, r)
	}).Methods(http.MethodPost)

	router.HandleFunc("/solar-projects", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		if !b.authorize(w, r) {
			return
		}
		b.updateSolarProject(w, r)
	}).Methods(http.MethodPut)

	router.HandleFunc("/solar-projects", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		if !b.authorize(w, r) {
			return
		}
		b.deleteSolarProject(w, r)
	}).Methods(http.MethodDelete)
}

func (b *Backend) createSolarProject(w http.ResponseWriter, r *http.Request) {
	p, err := b.readPayload(w, r, solarProjectSchemaID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	patch, err := decodeSolarProjectPatch(p)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if missing := patch.MissingForCreate(); len(missing) > 0 {
		handleError(w, r, catalog.MissingFieldsError(missing...))
		return
	}

	now := b.now()
	project := catalog.SolarProject{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	patch.Apply(&project)
	if err = b.store.CreateSolarProject(r.Context(), project); err != nil {
		handleError(w, r, err)
		return
	}

	b.notify(r.Context(), core.ResourceSolarProject, core.OperationCreate, project.ID.String(), project)
	writeJSON(w, r, http.StatusCreated, writeResult{Success: true, Data: project})
}

// updateSolarProject applies the fields present in the payload. Absent
// fields are left untouched.
func (b *Backend) updateSolarProject(w http.ResponseWriter, r *http.Request) {
	p, err := b.readPayload(w, r, solarProjectSchemaID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	id, err := decodeID(p)
	if err != nil {
		handleError(w, r, err)
		return
	}
	patch, err := decodeSolarProjectPatch(p)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err = patch.Validate(); err != nil {
		handleError(w, r, err)
		return
	}

	updated, err := b.store.UpdateSolarProject(r.Context(), id, patch, b.now())
	if err != nil {
		handleError(w, r, err)
		return
	}

	b.notify(r.Context(), core.ResourceSolarProject, core.OperationUpdate, updated.ID.String(), updated)
	writeJSON(w, r, http.StatusOK, writeResult{Success: true, Data: updated})
}

func (b *Backend) deleteSolarProject(w http.ResponseWriter, r *http.Request) {
	p, err := b.readPayload(w, r, solarProjectSchemaID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	id, err := decodeID(p)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err = b.store.DeleteSolarProject(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}

	b.notify(r.Context(), core.ResourceSolarProject, core.OperationDelete, id.String(), map[string]string{"id": id.String()})
	writeJSON(w, r, http.StatusOK, writeResult{Success: true, Message: "Project deleted successfully"})
}
