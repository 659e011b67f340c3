package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alisha-sapkal/aptos/internal/helpers"
	"github.com/alisha-sapkal/aptos/internal/middleware"
	"github.com/alisha-sapkal/aptos/internal/models"
)

type eventMetadata struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	Attributes  []metadataAttribute `json:"attributes"`
}

type metadataAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// CreateEvent stores an event record and pins its image and metadata to
// IPFS. The on-chain contract is created afterwards by the organizer
// signing a transaction client-side; AttachContract records the result.
func CreateEvent(c *gin.Context) {
	name := c.PostForm("name")
	description := c.PostForm("description")
	venue := c.PostForm("venue")
	organizerAddress := c.PostForm("organizer_address")

	date, err := time.Parse(time.RFC3339, c.PostForm("date"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid date format.")
		return
	}

	imageFile, err := c.FormFile("image")
	if name == "" || description == "" || venue == "" || organizerAddress == "" || err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "All fields are required.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	pinata := middleware.GetPinataClient(c)
	if pinata == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "IPFS client not found.")
		return
	}

	imageURL, err := pinata.UploadFile(c.Request.Context(), imageFile)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to upload image to IPFS.")
		return
	}

	metadataURI, err := pinata.UploadJSON(c.Request.Context(), eventMetadata{
		Name:        name,
		Description: description,
		Image:       imageURL,
		Attributes: []metadataAttribute{
			{TraitType: "Date", Value: date.Format(time.RFC3339)},
			{TraitType: "Venue", Value: venue},
		},
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to upload metadata to IPFS.")
		return
	}

	event := models.Event{
		Name:             name,
		Description:      description,
		Date:             date,
		Venue:            venue,
		OrganizerAddress: organizerAddress,
		IPFSMetadataURI:  metadataURI,
		ImageURL:         imageURL,
	}

	if err := gormDB.Create(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create event.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Metadata prepared. Please sign the transaction to create the event on-chain.",
		"event":   event,
	})
}

func ListEvents(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var events []models.Event
	if err := gormDB.Order("created_at DESC").Find(&events).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving events.")
		return
	}

	c.JSON(http.StatusOK, events)
}

func GetEvent(c *gin.Context) {
	eventID := c.Param("id")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Where("id = ?", eventID).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	c.JSON(http.StatusOK, event)
}

type AttachContractRequest struct {
	ContractAddress string `json:"contract_address" binding:"required"`
}

// AttachContract records the deployed contract address once the
// organizer has signed the on-chain creation transaction.
func AttachContract(c *gin.Context) {
	eventID := c.Param("id")

	var req AttachContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Where("id = ?", eventID).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	event.ContractAddress = req.ContractAddress
	if err := gormDB.Save(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update event.")
		return
	}

	c.JSON(http.StatusOK, event)
}
