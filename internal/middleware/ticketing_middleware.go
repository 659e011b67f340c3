package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/alisha-sapkal/aptos/internal/ipfs"
	"github.com/alisha-sapkal/aptos/internal/ticketing"
)

func TicketingMiddleware(service *ticketing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("ticketing_service", service)
		c.Next()
	}
}

func GetTicketingService(c *gin.Context) *ticketing.Service {
	service, exists := c.Get("ticketing_service")
	if !exists {
		return nil
	}
	return service.(*ticketing.Service)
}

func PinataMiddleware(client *ipfs.PinataClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("pinata_client", client)
		c.Next()
	}
}

func GetPinataClient(c *gin.Context) *ipfs.PinataClient {
	client, exists := c.Get("pinata_client")
	if !exists {
		return nil
	}
	return client.(*ipfs.PinataClient)
}
