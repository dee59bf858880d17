package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/loggier/app-corte/internal/db"
	"github.com/loggier/app-corte/internal/form"
	"github.com/loggier/app-corte/internal/middleware"
	"github.com/loggier/app-corte/internal/models"
	"github.com/loggier/app-corte/internal/session"
)

const maxMultipartMemory = 32 << 20

// VehicleHandler serves the vehicle inventory endpoints. Create and update
// requests run through a fresh form controller per request.
type VehicleHandler struct {
	vehicles db.VehicleCollection
	gateway  form.ReferenceData
	uploader form.Uploader
	notifier form.Notifier
}

// NewVehicleHandler creates a vehicle handler.
func NewVehicleHandler(vehicles db.VehicleCollection, gateway form.ReferenceData, uploader form.Uploader, notifier form.Notifier) *VehicleHandler {
	return &VehicleHandler{
		vehicles: vehicles,
		gateway:  gateway,
		uploader: uploader,
		notifier: notifier,
	}
}

// Collection routes /api/vehicles (list + create).
func (h *VehicleHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ByID routes /api/vehicles/{id} (get, update, delete).
func (h *VehicleHandler) ByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/vehicles/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Vehicle id required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *VehicleHandler) list(w http.ResponseWriter, r *http.Request) {
	cursor, err := h.vehicles.FindVehicles(r.Context(), bson.M{})
	if err != nil {
		http.Error(w, "Failed to fetch vehicles", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(r.Context())

	vehicles := []models.Vehicle{}
	if err := cursor.All(r.Context(), &vehicles); err != nil {
		http.Error(w, "Failed to decode vehicles", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(vehicles)
}

func (h *VehicleHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch vehicle", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(vehicle)
}

func (h *VehicleHandler) create(w http.ResponseWriter, r *http.Request) {
	values, files, _, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	ctrl := form.NewController(h.gateway, h.uploader, h.vehicles, sess)
	if h.notifier != nil {
		ctrl.SetNotifier(h.notifier)
	}
	if err := ctrl.LoadBrands(r.Context()); err != nil {
		writeFormError(w, err)
		return
	}
	if err := ctrl.SelectBrandAndLoad(r.Context(), values.Brand); err != nil {
		writeFormError(w, err)
		return
	}
	if verr := ctrl.Images().AddFiles(files...); verr != nil {
		writeFormError(w, verr)
		return
	}

	id, err := ctrl.Submit(r.Context(), values)
	if err != nil {
		writeFormError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

func (h *VehicleHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	values, files, keptURLs, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	initial, err := h.vehicles.FindVehicleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch vehicle", http.StatusInternalServerError)
		return
	}

	// The client sends back the persisted URLs it kept; anything omitted was
	// removed in the form.
	if keptURLs != nil {
		initial.ImageURLs = keptURLs
	}

	// Brand and model are immutable on edit; the stored values win over
	// whatever the form carries.
	values.Brand = initial.BrandID
	values.Model = initial.Model

	ctrl := form.NewEditController(h.gateway, h.uploader, h.vehicles, sess, id, *initial)
	if h.notifier != nil {
		ctrl.SetNotifier(h.notifier)
	}
	if verr := ctrl.Images().AddFiles(files...); verr != nil {
		writeFormError(w, verr)
		return
	}

	if _, err := ctrl.Submit(r.Context(), values); err != nil {
		writeFormError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

func (h *VehicleHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.vehicles.DeleteVehicle(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete vehicle", http.StatusInternalServerError)
		return
	}

	if deleter, ok := h.notifier.(interface{ VehicleDeleted(string) }); ok && h.notifier != nil {
		deleter.VehicleDeleted(id)
	}
	log.WithField("vehicle_id", id).Info("vehicle deleted")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

// parseForm reads the multipart form: scalar fields, newly selected image
// files and the list of persisted URLs the client kept.
func (h *VehicleHandler) parseForm(w http.ResponseWriter, r *http.Request) (form.Values, []form.File, []string, bool) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return form.Values{}, nil, nil, false
	}

	values := form.Values{
		Brand:       r.FormValue("brand"),
		Model:       r.FormValue("model"),
		Year:        r.FormValue("year"),
		Tipo:        models.Tipo(r.FormValue("tipo")),
		Corte:       r.FormValue("corte"),
		Colors:      r.FormValue("colors"),
		Ubicacion:   r.FormValue("ubicacion"),
		Observation: r.FormValue("observation"),
	}

	var keptURLs []string
	if r.MultipartForm != nil {
		if urls, present := r.MultipartForm.Value["existingImageUrls"]; present {
			keptURLs = urls
		}
	}

	var files []form.File
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			f, err := fh.Open()
			if err != nil {
				http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
				return form.Values{}, nil, nil, false
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
				return form.Values{}, nil, nil, false
			}
			files = append(files, form.File{
				Name:        fh.Filename,
				Size:        fh.Size,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}

	return values, files, keptURLs, true
}

// sessionFromRequest builds the submitting user's session from the request's
// JWT claims.
func (h *VehicleHandler) sessionFromRequest(w http.ResponseWriter, r *http.Request) (session.Reader, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return nil, false
	}
	return session.Static{User: &session.User{
		ID:     claims.UserID,
		Correo: claims.Correo,
		Perfil: claims.Perfil,
		Status: models.StatusActivo,
	}}, true
}

// writeFormError maps the submit pipeline error taxonomy onto HTTP statuses
// and a single user-facing message.
func writeFormError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := map[string]interface{}{"message": form.UserMessage(err)}

	var verr *form.ValidationError
	var uerr *form.UploadError
	var nerr *form.NotFoundError
	var serr *form.SessionError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		body["errors"] = verr.Fields
	case errors.As(err, &uerr):
		status = http.StatusBadGateway
	case errors.As(err, &nerr):
		status = http.StatusNotFound
	case errors.As(err, &serr):
		status = http.StatusUnauthorized
	case errors.Is(err, form.ErrSubmitInProgress), errors.Is(err, form.ErrFormDone):
		status = http.StatusConflict
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
