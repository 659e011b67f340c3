package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/alisha-sapkal/aptos/internal/helpers"
	"github.com/alisha-sapkal/aptos/internal/middleware"
	"github.com/alisha-sapkal/aptos/internal/store"
	"github.com/alisha-sapkal/aptos/internal/ticketing"
)

type GenerateQRRequest struct {
	TicketObjectAddress  string `json:"ticket_object_address" binding:"required"`
	EventContractAddress string `json:"event_contract_address" binding:"required"`
	OwnerAddress         string `json:"owner_address" binding:"required"`
}

type VerifyRequest struct {
	QRToken string `json:"qr_token" binding:"required"`
}

// GenerateQR mints the QR credential for a ticket object, or returns the
// existing one. 201 means this request created the credential, 200 means
// it already existed; the body is identical either way.
func GenerateQR(c *gin.Context) {
	var req GenerateQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	service := middleware.GetTicketingService(c)
	if service == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Ticketing service not found.")
		return
	}

	ticket, created, err := service.Issue(c.Request.Context(), req.TicketObjectAddress, req.EventContractAddress, req.OwnerAddress)
	if err != nil {
		if errors.Is(err, ticketing.ErrInvalidInput) {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR token.")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"qr_token": ticket.QRToken})
}

// Verify redeems a scanned QR credential: signature and expiry, stored
// credential, double-use guard, on-chain ownership, then the check-in
// commit. The reason field lets scanner clients and fraud monitoring
// tell a double-use attempt apart from a forged or stale code.
func Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	service := middleware.GetTicketingService(c)
	if service == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Ticketing service not found.")
		return
	}

	result, err := service.Redeem(c.Request.Context(), req.QRToken)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Server error during verification.")
		return
	}

	if result.Valid {
		c.JSON(http.StatusOK, gin.H{
			"valid":   true,
			"message": "Ticket verified successfully. Welcome!",
		})
		return
	}

	status, message := verifyRejection(result.Reason)
	c.JSON(status, gin.H{
		"valid":   false,
		"reason":  result.Reason,
		"message": message,
	})
}

func verifyRejection(reason ticketing.Reason) (int, string) {
	switch reason {
	case ticketing.ReasonInvalidToken:
		return http.StatusUnauthorized, "Invalid QR code."
	case ticketing.ReasonTokenExpired:
		return http.StatusUnauthorized, "This QR code has expired."
	case ticketing.ReasonUnknownTicket:
		return http.StatusNotFound, "Ticket not found in our system."
	case ticketing.ReasonAlreadyCheckedIn:
		return http.StatusBadRequest, "This ticket has already been checked in."
	case ticketing.ReasonOwnershipMismatch:
		return http.StatusForbidden, "On-chain ownership verification failed. Ticket may have been transferred."
	case ticketing.ReasonLedgerUnavailable:
		return http.StatusBadGateway, "Could not verify ownership on the Aptos blockchain."
	}
	return http.StatusInternalServerError, "Verification failed."
}

// TicketQRImage renders the stored credential as a scannable PNG.
func TicketQRImage(c *gin.Context) {
	objectAddress := c.Param("address")

	service := middleware.GetTicketingService(c)
	if service == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Ticketing service not found.")
		return
	}

	ticket, err := service.Ticket(c.Request.Context(), objectAddress)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving ticket.")
		return
	}

	png, err := qrcode.Encode(ticket.QRToken, qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to render QR code.")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
