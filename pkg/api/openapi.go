package api

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/arnac-io/ordercheck/pkg/api/openapi"
)

func (h *Handler) GetOpenapiJson(w http.ResponseWriter, r *http.Request) {
	d := jx.DecodeBytes(openapi.JSON)
	result, err := d.Raw()
	if err != nil {
		writeError(w, http.StatusInternalServerError, errorJSON{Error: err.Error(), Kind: "Internal"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(result)
}

func (h *Handler) GetOpenapiYml(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(openapi.YAML)
}
