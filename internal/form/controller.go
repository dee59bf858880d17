package form

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/loggier/app-corte/internal/db"
	"github.com/loggier/app-corte/internal/models"
	"github.com/loggier/app-corte/internal/session"
)

// State of a form instance. Done is terminal; a failed submission returns to
// Editing with the error surfaced to the user.
type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateDone       State = "done"
)

// ReferenceData loads the brand/model entities the form is built from.
type ReferenceData interface {
	ListBrands(ctx context.Context) ([]models.Brand, error)
	ListModelsForBrand(ctx context.Context, brandID string) ([]models.Model, error)
}

// Uploader pushes pending files to the image backend and returns their
// public URLs.
type Uploader interface {
	Upload(ctx context.Context, files []File) ([]string, error)
}

// RecordStore is the create/update surface of the vehicle collection.
type RecordStore interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) (string, error)
	UpdateVehicle(ctx context.Context, id string, update models.VehicleUpdate) error
}

// Notifier is told about a successful submit, e.g. to publish an event or
// navigate back to the list.
type Notifier interface {
	VehicleSaved(vehicleID string, created bool)
}

// Controller orchestrates one vehicle form instance: dependent-select
// loading, image set reconciliation and the submit pipeline.
type Controller struct {
	gateway  ReferenceData
	uploader Uploader
	store    RecordStore
	session  session.Reader
	notifier Notifier

	mu        sync.Mutex
	state     State
	vehicleID string
	editing   bool
	images    *ImageSet
	brands    []models.Brand
	models    []models.Model
	brandID   string
	gen       uint64
}

// NewController builds a form for a brand-new vehicle.
func NewController(gateway ReferenceData, uploader Uploader, store RecordStore, sess session.Reader) *Controller {
	return &Controller{
		gateway:  gateway,
		uploader: uploader,
		store:    store,
		session:  sess,
		state:    StateEditing,
		images:   NewImageSet(nil),
	}
}

// NewEditController builds a form bound to an existing vehicle. The initial
// record seeds the image set and the (immutable) brand selection.
func NewEditController(gateway ReferenceData, uploader Uploader, store RecordStore, sess session.Reader, vehicleID string, initial models.Vehicle) *Controller {
	c := NewController(gateway, uploader, store, sess)
	c.vehicleID = vehicleID
	c.editing = true
	c.images = NewImageSet(initial.ImageURLs)
	c.brandID = initial.BrandID
	return c
}

// SetNotifier attaches an optional success listener.
func (c *Controller) SetNotifier(n Notifier) { c.notifier = n }

// Images exposes the form's image set.
func (c *Controller) Images() *ImageSet { return c.images }

// State returns the current form state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LoadBrands fetches the brand list once per form instance.
func (c *Controller) LoadBrands(ctx context.Context) error {
	brands, err := c.gateway.ListBrands(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.brands = brands
	c.mu.Unlock()
	return nil
}

// Brands returns the loaded brand list.
func (c *Controller) Brands() []models.Brand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brands
}

// Models returns the model list loaded for the current brand selection.
func (c *Controller) Models() []models.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.models
}

// SelectBrand records a new brand selection, clears the loaded models and
// invalidates any in-flight model fetch. The returned generation token ties
// a subsequent LoadModels call to this selection; a fetch whose token no
// longer matches is discarded instead of applied.
func (c *Controller) SelectBrand(brandID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.brandID = brandID
	c.models = nil
	c.gen++
	return c.gen
}

// LoadModels fetches models for the selection captured by gen and applies
// them only if the selection has not moved on since. Stale completions are a
// no-op and return nil.
func (c *Controller) LoadModels(ctx context.Context, gen uint64) error {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return nil
	}
	brandID := c.brandID
	c.mu.Unlock()

	loaded, err := c.gateway.ListModelsForBrand(ctx, brandID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.models = loaded
	return nil
}

// SelectBrandAndLoad is the synchronous convenience used by the HTTP layer.
func (c *Controller) SelectBrandAndLoad(ctx context.Context, brandID string) error {
	return c.LoadModels(ctx, c.SelectBrand(brandID))
}

// Submit validates the form and runs the save pipeline:
// upload pending images, resolve the brand/model references, build the
// payload and create or update the vehicle document. On failure the form
// returns to Editing; on success it reaches the terminal Done state and the
// notifier (if any) is informed.
func (c *Controller) Submit(ctx context.Context, values Values) (string, error) {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		return "", ErrSubmitInProgress
	case StateDone:
		c.mu.Unlock()
		return "", ErrFormDone
	}
	c.state = StateSubmitting
	c.mu.Unlock()

	id, err := c.submit(ctx, values)

	c.mu.Lock()
	if err != nil {
		c.state = StateEditing
	} else {
		c.state = StateDone
	}
	c.mu.Unlock()

	if err != nil {
		log.WithError(err).WithField("vehicle_id", c.vehicleID).Error("vehicle form submission failed")
		return "", err
	}
	if c.notifier != nil {
		c.notifier.VehicleSaved(id, !c.editing)
	}
	return id, nil
}

func (c *Controller) submit(ctx context.Context, values Values) (string, error) {
	normalized, verr := Validate(values, c.images)
	if verr != nil {
		return "", verr
	}

	// Upload before any document write. If a later step fails the uploaded
	// images stay behind as orphans; the document itself is never written
	// partially.
	if pending := c.images.PendingFiles(); len(pending) > 0 {
		uploaded, err := c.uploader.Upload(ctx, pending)
		if err != nil {
			return "", &UploadError{Err: err}
		}
		c.images.Uploaded(uploaded)
	}
	imageURLs := c.images.ExistingURLs()

	sessionUser, err := c.session.Current()
	if err != nil {
		return "", &SessionError{Err: err}
	}

	if c.editing {
		update := models.VehicleUpdate{
			Year:        normalized.Year,
			Tipo:        normalized.Tipo,
			Corte:       normalized.Corte,
			Colors:      normalized.Colors,
			Ubicacion:   normalized.Ubicacion,
			ImageURLs:   imageURLs,
			UserEmail:   sessionUser.Correo,
			Observation: normalized.Observation,
		}
		if err := c.store.UpdateVehicle(ctx, c.vehicleID, update); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return "", &NotFoundError{Entity: "vehicle", Key: c.vehicleID}
			}
			return "", &DataAccessError{Op: "update vehicle", Err: err}
		}
		log.WithField("vehicle_id", c.vehicleID).Info("vehicle updated")
		return c.vehicleID, nil
	}

	brand := c.resolveBrand(ctx, normalized.Brand)
	if brand == nil {
		return "", &NotFoundError{Entity: "brand", Key: normalized.Brand}
	}
	model := c.resolveModel(normalized.Model)
	if model == nil {
		return "", &NotFoundError{Entity: "model", Key: normalized.Model}
	}

	vehicle := models.Vehicle{
		Brand:       brand.Name,
		BrandID:     brand.ID.Hex(),
		Model:       model.Name,
		ModelID:     model.ID.Hex(),
		Year:        normalized.Year,
		Tipo:        normalized.Tipo,
		Corte:       normalized.Corte,
		Colors:      normalized.Colors,
		Ubicacion:   normalized.Ubicacion,
		ImageURLs:   imageURLs,
		Observation: normalized.Observation,
		UserEmail:   sessionUser.Correo,
	}
	id, err := c.store.InsertVehicle(ctx, vehicle)
	if err != nil {
		return "", &DataAccessError{Op: "create vehicle", Err: err}
	}
	log.WithFields(log.Fields{"vehicle_id": id, "brand": brand.Name, "model": model.Name}).Info("vehicle created")
	return id, nil
}

// resolveBrand looks the selected brand up in the loaded list, fetching the
// list first when the form was submitted before LoadBrands ran.
func (c *Controller) resolveBrand(ctx context.Context, brandID string) *models.Brand {
	c.mu.Lock()
	brands := c.brands
	c.mu.Unlock()
	if len(brands) == 0 {
		if err := c.LoadBrands(ctx); err != nil {
			return nil
		}
		c.mu.Lock()
		brands = c.brands
		c.mu.Unlock()
	}
	for i := range brands {
		if brands[i].ID.Hex() == brandID {
			return &brands[i]
		}
	}
	return nil
}

// resolveModel looks the submitted model name up in the models loaded for
// the current brand selection.
func (c *Controller) resolveModel(name string) *models.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.models {
		if c.models[i].Name == name {
			return &c.models[i]
		}
	}
	return nil
}

// UserMessage translates a submit pipeline error into the single message
// shown to the user.
func UserMessage(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return "Revise los campos marcados."
	}
	var uerr *UploadError
	if errors.As(err, &uerr) {
		return "No se pudieron subir las imágenes. Intente de nuevo."
	}
	var nerr *NotFoundError
	if errors.As(err, &nerr) {
		return "El registro seleccionado ya no existe."
	}
	var serr *SessionError
	if errors.As(err, &serr) {
		return "Su sesión no es válida. Vuelva a iniciar sesión."
	}
	if errors.Is(err, ErrSubmitInProgress) {
		return "El formulario ya se está guardando."
	}
	if errors.Is(err, ErrFormDone) {
		return "El formulario ya fue guardado."
	}
	return "Ocurrió un error inesperado."
}
