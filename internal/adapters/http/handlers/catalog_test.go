package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-engine/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-engine/internal/adapters/persistence/seed"
)

func TestCatalogHandler_Outlets(t *testing.T) {
	api := newTestAPI(t)

	var outlets []dto.OutletResponse

	w := api.do(t, http.MethodGet, "/api/v1/outlets", "", "", &outlets)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, outlets, 1)
	assert.Equal(t, "NTV", outlets[0].Abbreviation)
	assert.Equal(t, "0.16", outlets[0].VATRate)

	var resp dto.ErrorResponse

	w = api.do(t, http.MethodGet, "/api/v1/outlets/o-missing", "", "", &resp)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var saved dto.OutletResponse

	w = api.do(t, http.MethodPut, "/api/v1/outlets/o-ktn", "admin",
		`{"name":"KTN","abbreviation":"KTN","vatRate":"0.16","defaultCurrency":"KES","active":true}`, &saved)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "o-ktn", saved.ID)
	assert.Empty(t, saved.RateCards)

	w = api.do(t, http.MethodPut, "/api/v1/outlets/o-ktn", "admin",
		`{"name":"KTN","abbreviation":"KTN","vatRate":"1.5"}`, &resp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp.Error.Details, "vatRate")

	w = api.do(t, http.MethodPut, "/api/v1/outlets/o-ktn", "admin", `{"name":"KTN"}`, &resp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp.Error.Details, "abbreviation")
}

func TestCatalogHandler_SetRateCardPrice(t *testing.T) {
	path := "/api/v1/outlets/" + seed.OutletID + "/ratecards/" + seed.RateCardID + "/prices"

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantField  string
	}{
		{
			name:       "unknown band",
			path:       path,
			body:       `{"bandId":"b-none","adSizeId":"s-30","price":"1000"}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "bandId",
		},
		{
			name:       "unknown ad size",
			path:       path,
			body:       `{"bandId":"b-late","adSizeId":"s-90","price":"1000"}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "adSizeId",
		},
		{
			name:       "negative",
			path:       path,
			body:       `{"bandId":"b-late","adSizeId":"s-60","price":"-1"}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "price",
		},
		{
			name:       "unknown card",
			path:       "/api/v1/outlets/" + seed.OutletID + "/ratecards/rc-none/prices",
			body:       `{"bandId":"b-late","adSizeId":"s-60","price":"1000"}`,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)

			var resp dto.ErrorResponse

			w := api.do(t, http.MethodPut, tt.path, "admin", tt.body, &resp)

			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantField != "" {
				assert.Contains(t, resp.Error.Details, tt.wantField)
			}
		})
	}

	t.Run("new cell", func(t *testing.T) {
		api := newTestAPI(t)

		var rc dto.RateCardResponse

		w := api.do(t, http.MethodPut, path, "admin",
			`{"id":"p-late-60","bandId":"b-late","adSizeId":"s-60","price":"49999.995"}`, &rc)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var found *dto.PriceResponse

		for i := range rc.Prices {
			if rc.Prices[i].ID == "p-late-60" {
				found = &rc.Prices[i]
			}
		}

		require.NotNil(t, found)
		assert.Equal(t, "50000.00", found.Price)

		var axes dto.AxesResponse

		w = api.do(t, http.MethodGet, "/api/v1/outlets/"+seed.OutletID+"/ratecards/"+seed.RateCardID+"/axes", "", "", &axes)
		require.Equal(t, http.StatusOK, w.Code)

		bands := make([]string, 0, len(axes.Bands))
		for _, b := range axes.Bands {
			bands = append(bands, b.ID)
		}

		assert.Contains(t, bands, "b-late")
	})
}

func TestCatalogHandler_QuoteTypesAndWorkflows(t *testing.T) {
	api := newTestAPI(t)

	var qt struct {
		ID string `json:"id"`
	}

	w := api.do(t, http.MethodGet, "/api/v1/quote-types/"+seed.QuoteTypeID, "", "", &qt)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, seed.QuoteTypeID, qt.ID)

	var wf struct {
		ID           string `json:"id"`
		StartStateID string `json:"startStateId"`
	}

	w = api.do(t, http.MethodGet, "/api/v1/workflows/"+seed.WorkflowID, "", "", &wf)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, seed.StateDraft, wf.StartStateID)

	var resp dto.ErrorResponse

	w = api.do(t, http.MethodPut, "/api/v1/workflows/wf-broken", "admin",
		`{"name":"broken","startStateId":"nowhere","states":[]}`, &resp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp.Error.Details, "startStateId")

	w = api.do(t, http.MethodPut, "/api/v1/workflows/wf-broken", "admin", `{"states":`, &resp)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/workflows/wf-broken", "", "", &resp)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
