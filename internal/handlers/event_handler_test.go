package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/alisha-sapkal/aptos/internal/handlers"
	"github.com/alisha-sapkal/aptos/internal/middleware"
	"github.com/alisha-sapkal/aptos/internal/models"
)

func newHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Role{}, &models.User{}, &models.Event{}))
	return db
}

func createTestEvent(t *testing.T, db *gorm.DB) models.Event {
	t.Helper()
	event := models.Event{
		Name:             "Devnet Live",
		Description:      "An evening of on-chain music.",
		Date:             time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
		Venue:            "Warehouse 7",
		OrganizerAddress: "0xOrganizer",
		IPFSMetadataURI:  "ipfs://QmMetadata",
		ImageURL:         "ipfs://QmImage",
	}
	require.NoError(t, db.Create(&event).Error)
	return event
}

func newEventRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))
	r.GET("/v1/events", handlers.ListEvents)
	r.GET("/v1/events/:id", handlers.GetEvent)
	r.PUT("/v1/events/:id/contract", handlers.AttachContract)
	return r
}

func putJSON(t *testing.T, r *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAttachContract(t *testing.T) {
	db := newHandlerTestDB(t)
	event := createTestEvent(t, db)
	r := newEventRouter(db)

	w := putJSON(t, r, "/v1/events/"+event.ID.String()+"/contract", gin.H{
		"contract_address": "0xContract",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Event
	require.NoError(t, db.Where("id = ?", event.ID).First(&updated).Error)
	assert.Equal(t, "0xContract", updated.ContractAddress)
}

func TestAttachContractUnknownEvent(t *testing.T) {
	r := newEventRouter(newHandlerTestDB(t))

	w := putJSON(t, r, "/v1/events/"+uuid.NewString()+"/contract", gin.H{
		"contract_address": "0xContract",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttachContractMissingAddress(t *testing.T) {
	db := newHandlerTestDB(t)
	event := createTestEvent(t, db)
	r := newEventRouter(db)

	w := putJSON(t, r, "/v1/events/"+event.ID.String()+"/contract", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEvent(t *testing.T) {
	db := newHandlerTestDB(t)
	event := createTestEvent(t, db)
	r := newEventRouter(db)

	req := httptest.NewRequest(http.MethodGet, "/v1/events/"+event.ID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/events/"+uuid.NewString(), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
