package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/loggier/app-corte/internal/refdata"
)

// RefdataHandler serves the brand/model reference endpoints backing the
// form's dependent selects.
type RefdataHandler struct {
	gateway *refdata.Gateway
}

// NewRefdataHandler creates a reference data handler.
func NewRefdataHandler(gateway *refdata.Gateway) *RefdataHandler {
	return &RefdataHandler{gateway: gateway}
}

// Brands serves GET /api/brands.
func (h *RefdataHandler) Brands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	brands, err := h.gateway.ListBrands(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch brands", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(brands)
}

// Models serves GET /api/models?brand_id= and POST /api/models.
func (h *RefdataHandler) Models(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listModels(w, r)
	case http.MethodPost:
		h.addModel(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *RefdataHandler) listModels(w http.ResponseWriter, r *http.Request) {
	brandID := r.URL.Query().Get("brand_id")
	result, err := h.gateway.ListModelsForBrand(r.Context(), brandID)
	if err != nil {
		http.Error(w, "Failed to fetch models", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (h *RefdataHandler) addModel(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req struct {
		BrandID string `json:"brandId"`
		Name    string `json:"name"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	model, err := h.gateway.AddModel(r.Context(), req.BrandID, req.Name)
	if err != nil {
		writeFormError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(model)
}
