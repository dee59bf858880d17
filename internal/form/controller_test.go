package form

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loggier/app-corte/internal/db"
	"github.com/loggier/app-corte/internal/models"
	"github.com/loggier/app-corte/internal/session"
)

type fakeGateway struct {
	mu            sync.Mutex
	brands        []models.Brand
	modelsByBrand map[string][]models.Model
	modelCalls    int
	release       chan struct{} // when set, ListModelsForBrand waits on it
	started       chan string   // receives the brandID of each fetch start
}

func (g *fakeGateway) ListBrands(ctx context.Context) ([]models.Brand, error) {
	return g.brands, nil
}

func (g *fakeGateway) ListModelsForBrand(ctx context.Context, brandID string) ([]models.Model, error) {
	g.mu.Lock()
	g.modelCalls++
	release := g.release
	g.mu.Unlock()
	if g.started != nil {
		g.started <- brandID
	}
	if release != nil {
		<-release
	}
	return g.modelsByBrand[brandID], nil
}

type fakeUploader struct {
	calls int
	files []File
	urls  []string
	err   error
}

func (u *fakeUploader) Upload(ctx context.Context, files []File) ([]string, error) {
	u.calls++
	u.files = files
	if u.err != nil {
		return nil, u.err
	}
	return u.urls, nil
}

type fakeStore struct {
	insertCalls int
	inserted    models.Vehicle
	insertedID  string
	insertErr   error
	updateCalls int
	updatedID   string
	updated     models.VehicleUpdate
	updateErr   error
	blocked     chan struct{} // when set, InsertVehicle waits on it
}

func (s *fakeStore) InsertVehicle(ctx context.Context, vehicle models.Vehicle) (string, error) {
	s.insertCalls++
	s.inserted = vehicle
	if s.blocked != nil {
		<-s.blocked
	}
	if s.insertErr != nil {
		return "", s.insertErr
	}
	if s.insertedID == "" {
		s.insertedID = "v1"
	}
	return s.insertedID, nil
}

func (s *fakeStore) UpdateVehicle(ctx context.Context, id string, update models.VehicleUpdate) error {
	s.updateCalls++
	s.updatedID = id
	s.updated = update
	return s.updateErr
}

type fakeNotifier struct {
	savedID string
	created bool
	calls   int
}

func (n *fakeNotifier) VehicleSaved(vehicleID string, created bool) {
	n.calls++
	n.savedID = vehicleID
	n.created = created
}

var (
	brandToyota = models.Brand{ID: primitive.NewObjectID(), Name: "Toyota"}
	brandHonda  = models.Brand{ID: primitive.NewObjectID(), Name: "Honda"}
)

func testGateway() *fakeGateway {
	corolla := models.Model{ID: primitive.NewObjectID(), Name: "Corolla", BrandID: brandToyota.ID.Hex()}
	civic := models.Model{ID: primitive.NewObjectID(), Name: "Civic", BrandID: brandHonda.ID.Hex()}
	return &fakeGateway{
		brands: []models.Brand{brandHonda, brandToyota},
		modelsByBrand: map[string][]models.Model{
			brandToyota.ID.Hex(): {corolla},
			brandHonda.ID.Hex():  {civic},
		},
	}
}

func testSession() session.Reader {
	return session.Static{User: &session.User{
		ID:     "u1",
		Correo: "user@example.com",
		Perfil: models.PerfilUser,
		Status: models.StatusActivo,
	}}
}

func createValues() Values {
	return Values{
		Brand:     brandToyota.ID.Hex(),
		Model:     "Corolla",
		Year:      "2022",
		Tipo:      models.TipoAuto,
		Corte:     models.CorteIgnicion,
		Colors:    "Rojo",
		Ubicacion: "Bajo el tablero",
	}
}

func TestController_StaleModelFetchDiscarded(t *testing.T) {
	gateway := testGateway()
	c := NewController(gateway, &fakeUploader{}, &fakeStore{}, testSession())
	ctx := context.Background()

	gen1 := c.SelectBrand(brandToyota.ID.Hex())
	gen2 := c.SelectBrand(brandHonda.ID.Hex())

	assert.NoError(t, c.LoadModels(ctx, gen2))
	assert.NoError(t, c.LoadModels(ctx, gen1)) // stale, must be a no-op

	loaded := c.Models()
	if assert.Equal(t, 1, len(loaded)) {
		assert.Equal(t, "Civic", loaded[0].Name, "only the last-selected brand's models may be shown")
	}
}

func TestController_StaleModelFetchDiscarded_InFlight(t *testing.T) {
	gateway := testGateway()
	gateway.release = make(chan struct{})
	gateway.started = make(chan string, 2)
	c := NewController(gateway, &fakeUploader{}, &fakeStore{}, testSession())
	ctx := context.Background()

	gen1 := c.SelectBrand(brandToyota.ID.Hex())
	done := make(chan error, 1)
	go func() { done <- c.LoadModels(ctx, gen1) }()
	<-gateway.started // first fetch is in flight

	// Selection moves on while the fetch hangs.
	gen2 := c.SelectBrand(brandHonda.ID.Hex())
	go func() {
		<-gateway.started
		close(gateway.release)
	}()
	assert.NoError(t, c.LoadModels(ctx, gen2))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("first fetch never completed")
	}

	loaded := c.Models()
	if assert.Equal(t, 1, len(loaded)) {
		assert.Equal(t, "Civic", loaded[0].Name)
	}
}

func TestController_Submit_Create(t *testing.T) {
	gateway := testGateway()
	uploader := &fakeUploader{urls: []string{"https://backend/x.jpg"}}
	store := &fakeStore{insertedID: "v1"}
	notifier := &fakeNotifier{}

	c := NewController(gateway, uploader, store, testSession())
	c.SetNotifier(notifier)
	ctx := context.Background()
	assert.NoError(t, c.LoadBrands(ctx))
	assert.NoError(t, c.SelectBrandAndLoad(ctx, brandToyota.ID.Hex()))
	assert.Nil(t, c.Images().AddFiles(File{Name: "x.jpg", Size: 1_000_000, ContentType: "image/jpeg", Data: []byte("img")}))

	id, err := c.Submit(ctx, createValues())
	assert.NoError(t, err)
	assert.Equal(t, "v1", id)
	assert.Equal(t, StateDone, c.State())

	assert.Equal(t, 1, uploader.calls, "upload must be called exactly once")
	assert.Equal(t, 1, len(uploader.files))

	assert.Equal(t, 1, store.insertCalls)
	v := store.inserted
	assert.Equal(t, "Toyota", v.Brand)
	assert.Equal(t, brandToyota.ID.Hex(), v.BrandID)
	assert.Equal(t, "Corolla", v.Model)
	assert.Equal(t, gateway.modelsByBrand[brandToyota.ID.Hex()][0].ID.Hex(), v.ModelID)
	assert.Equal(t, 2022, v.Year)
	assert.Equal(t, models.TipoAuto, v.Tipo)
	assert.Equal(t, []string{"https://backend/x.jpg"}, v.ImageURLs)
	assert.Equal(t, "user@example.com", v.UserEmail)

	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, "v1", notifier.savedID)
	assert.True(t, notifier.created)

	// Done is terminal.
	_, err = c.Submit(ctx, createValues())
	assert.ErrorIs(t, err, ErrFormDone)
	assert.Equal(t, 1, store.insertCalls)
}

func TestController_Submit_ValidationFailure(t *testing.T) {
	uploader := &fakeUploader{}
	store := &fakeStore{}
	c := NewController(testGateway(), uploader, store, testSession())

	values := createValues()
	values.Year = "1899"

	_, err := c.Submit(context.Background(), values)
	var verr *ValidationError
	if assert.ErrorAs(t, err, &verr) {
		assert.Contains(t, verr.Fields, "year")
	}
	assert.Equal(t, StateEditing, c.State(), "failed submit returns to editing")
	assert.Equal(t, 0, uploader.calls, "nothing uploaded for an invalid form")
	assert.Equal(t, 0, store.insertCalls)
}

func TestController_Submit_UploadFailure(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("image upload failed: 500 Internal Server Error")}
	store := &fakeStore{}
	c := NewController(testGateway(), uploader, store, testSession())
	ctx := context.Background()
	assert.NoError(t, c.LoadBrands(ctx))
	assert.NoError(t, c.SelectBrandAndLoad(ctx, brandToyota.ID.Hex()))
	assert.Nil(t, c.Images().AddFiles(jpegFile("x.jpg", 100)))

	_, err := c.Submit(ctx, createValues())
	var uerr *UploadError
	assert.ErrorAs(t, err, &uerr)
	assert.Equal(t, StateEditing, c.State())
	assert.Equal(t, 0, store.insertCalls, "no document may be written after a failed upload")
	assert.Equal(t, 0, store.updateCalls)
}

func TestController_Submit_BrandNotFound(t *testing.T) {
	store := &fakeStore{}
	c := NewController(testGateway(), &fakeUploader{}, store, testSession())
	ctx := context.Background()
	assert.NoError(t, c.LoadBrands(ctx))

	values := createValues()
	values.Brand = primitive.NewObjectID().Hex() // deleted concurrently

	_, err := c.Submit(ctx, values)
	var nerr *NotFoundError
	if assert.ErrorAs(t, err, &nerr) {
		assert.Equal(t, "brand", nerr.Entity)
	}
	assert.Equal(t, StateEditing, c.State())
	assert.Equal(t, 0, store.insertCalls)
}

func TestController_Submit_ModelNotFound(t *testing.T) {
	store := &fakeStore{}
	c := NewController(testGateway(), &fakeUploader{}, store, testSession())
	ctx := context.Background()
	assert.NoError(t, c.LoadBrands(ctx))
	assert.NoError(t, c.SelectBrandAndLoad(ctx, brandToyota.ID.Hex()))

	values := createValues()
	values.Model = "Hilux" // not in the loaded model list

	_, err := c.Submit(ctx, values)
	var nerr *NotFoundError
	if assert.ErrorAs(t, err, &nerr) {
		assert.Equal(t, "model", nerr.Entity)
	}
	assert.Equal(t, 0, store.insertCalls)
}

func TestController_Submit_SessionError(t *testing.T) {
	store := &fakeStore{}
	c := NewController(testGateway(), &fakeUploader{}, store, session.Static{})
	ctx := context.Background()
	assert.NoError(t, c.LoadBrands(ctx))
	assert.NoError(t, c.SelectBrandAndLoad(ctx, brandToyota.ID.Hex()))

	_, err := c.Submit(ctx, createValues())
	var serr *SessionError
	assert.ErrorAs(t, err, &serr)
	assert.Equal(t, 0, store.insertCalls, "no orphaned record without a readable session")
	assert.Equal(t, StateEditing, c.State())
}

func TestController_Submit_Edit(t *testing.T) {
	gateway := testGateway()
	uploader := &fakeUploader{}
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	initial := models.Vehicle{
		ID:        primitive.NewObjectID(),
		Brand:     "Toyota",
		BrandID:   brandToyota.ID.Hex(),
		Model:     "Corolla",
		ModelID:   primitive.NewObjectID().Hex(),
		Year:      2022,
		Tipo:      models.TipoAuto,
		Corte:     models.CorteIgnicion,
		Colors:    "Rojo",
		Ubicacion: "Bajo el tablero",
		ImageURLs: []string{"https://backend/a.jpg", "https://backend/b.jpg"},
	}
	c := NewEditController(gateway, uploader, store, testSession(), initial.ID.Hex(), initial)
	c.SetNotifier(notifier)

	// Only ubicacion changes.
	values := createValues()
	values.Ubicacion = "Debajo del asiento"

	id, err := c.Submit(context.Background(), values)
	assert.NoError(t, err)
	assert.Equal(t, initial.ID.Hex(), id)
	assert.Equal(t, StateDone, c.State())

	assert.Equal(t, 0, uploader.calls, "no pending files, no upload call")
	assert.Equal(t, 0, store.insertCalls)
	assert.Equal(t, 1, store.updateCalls)
	assert.Equal(t, initial.ID.Hex(), store.updatedID)

	u := store.updated
	assert.Equal(t, 2022, u.Year)
	assert.Equal(t, models.CorteIgnicion, u.Corte)
	assert.Equal(t, "Rojo", u.Colors)
	assert.Equal(t, "Debajo del asiento", u.Ubicacion)
	assert.Equal(t, models.TipoAuto, u.Tipo)
	assert.Equal(t, initial.ImageURLs, u.ImageURLs, "image urls unchanged")
	assert.Equal(t, "user@example.com", u.UserEmail)
	assert.Equal(t, "", u.Observation)

	assert.Equal(t, 0, gateway.modelCalls, "brand/model not re-resolved on edit")
	assert.False(t, notifier.created)
}

func TestController_Submit_EditVehicleGone(t *testing.T) {
	store := &fakeStore{updateErr: db.ErrNotFound}
	initial := models.Vehicle{BrandID: brandToyota.ID.Hex(), ImageURLs: []string{"https://backend/a.jpg"}}
	c := NewEditController(testGateway(), &fakeUploader{}, store, testSession(), "gone", initial)

	_, err := c.Submit(context.Background(), createValues())
	var nerr *NotFoundError
	if assert.ErrorAs(t, err, &nerr) {
		assert.Equal(t, "vehicle", nerr.Entity)
	}
	assert.Equal(t, StateEditing, c.State())
}

func TestController_Submit_BlocksReentry(t *testing.T) {
	store := &fakeStore{blocked: make(chan struct{})}
	c := NewController(testGateway(), &fakeUploader{}, store, testSession())
	ctx := context.Background()
	assert.NoError(t, c.LoadBrands(ctx))
	assert.NoError(t, c.SelectBrandAndLoad(ctx, brandToyota.ID.Hex()))

	first := make(chan error, 1)
	go func() {
		_, err := c.Submit(ctx, createValues())
		first <- err
	}()

	// Wait until the first submission reaches the store.
	deadline := time.After(2 * time.Second)
	for c.State() != StateSubmitting {
		select {
		case <-deadline:
			t.Fatal("first submission never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	_, err := c.Submit(ctx, createValues())
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	close(store.blocked)
	assert.NoError(t, <-first)
	assert.Equal(t, 1, store.insertCalls)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", &ValidationError{Fields: map[string]string{"year": "x"}}, "Revise los campos marcados."},
		{"upload", &UploadError{Err: errors.New("boom")}, "No se pudieron subir las imágenes. Intente de nuevo."},
		{"not found", &NotFoundError{Entity: "brand", Key: "b1"}, "El registro seleccionado ya no existe."},
		{"session", &SessionError{Err: session.ErrNoSession}, "Su sesión no es válida. Vuelva a iniciar sesión."},
		{"in progress", ErrSubmitInProgress, "El formulario ya se está guardando."},
		{"done", ErrFormDone, "El formulario ya fue guardado."},
		{"unknown", errors.New("boom"), "Ocurrió un error inesperado."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
