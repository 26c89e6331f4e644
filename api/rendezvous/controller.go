package rendezvousapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/beka-birhanu/reelrite-rendezvous/domain"
	"github.com/gin-gonic/gin"
)

const peerIDParam = "peerId"

// Service is what the controller needs from the rendezvous service.
type Service interface {
	Match(ctx context.Context, requester domain.ClientID) (domain.MatchResult, error)
	Heartbeat(ctx context.Context, id domain.ClientID) error
	Leave(ctx context.Context, id domain.ClientID) error
	OnlineCount(ctx context.Context) (int, error)
}

// Controller handles the rendezvous routes.
type Controller struct {
	service Service
}

// NewController initializes a Controller.
func NewController(s Service) (*Controller, error) {
	if s == nil {
		return nil, errors.New("rendezvous service is required")
	}
	return &Controller{service: s}, nil
}

// Register registers the rendezvous routes.
func (c *Controller) Register(route *gin.RouterGroup) {
	route.GET("/match", c.match)
	route.POST("/heartbeat", c.heartbeat)
	route.POST("/leave", c.leave)
	route.GET("/stats", c.stats)
}

// match pairs the caller or enrolls it as waiting.
func (c *Controller) match(ctx *gin.Context) {
	id := domain.ClientID(ctx.Query(peerIDParam))

	res, err := c.service.Match(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPeerIDRequired) {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "error while matching peer"})
		return
	}

	if res.IsPaired() {
		ctx.JSON(http.StatusOK, PairedResponse{PartnerID: string(res.PartnerID)})
		return
	}
	ctx.JSON(http.StatusOK, WaitingResponse{Status: statusWaiting})
}

// heartbeat refreshes the caller's presence. A missing peerId is a no-op.
func (c *Controller) heartbeat(ctx *gin.Context) {
	id := domain.ClientID(ctx.Query(peerIDParam))
	if err := c.service.Heartbeat(ctx.Request.Context(), id); err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "error while recording heartbeat"})
		return
	}
	ctx.Status(http.StatusOK)
}

// leave withdraws the caller from the waiting pool.
func (c *Controller) leave(ctx *gin.Context) {
	id := domain.ClientID(ctx.Query(peerIDParam))
	if err := c.service.Leave(ctx.Request.Context(), id); err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "error while leaving queue"})
		return
	}
	ctx.Status(http.StatusOK)
}

// stats reports the number of online clients.
func (c *Controller) stats(ctx *gin.Context) {
	online, err := c.service.OnlineCount(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "error while reading stats"})
		return
	}
	ctx.JSON(http.StatusOK, StatsResponse{Online: online})
}
