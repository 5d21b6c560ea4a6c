package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/auctionroom-go/internal/api/apierr"
	"github.com/mcoot/auctionroom-go/internal/api/response"
	"github.com/mcoot/auctionroom-go/internal/model"
	"github.com/mcoot/auctionroom-go/internal/services/auction"
	"github.com/mcoot/auctionroom-go/internal/services/directory"
)

// AuctionHandler handles auction-related endpoints
type AuctionHandler struct {
	auctions  *auction.Registry
	directory *directory.Service
}

// NewAuctionHandler creates a new auction handler
func NewAuctionHandler(auctions *auction.Registry, dir *directory.Service) *AuctionHandler {
	return &AuctionHandler{
		auctions:  auctions,
		directory: dir,
	}
}

// Get handles GET /api/v1/auctions/{id}
func (h *AuctionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.AuctionID(mux.Vars(r)["id"])

	a, err := h.auctions.Get(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	roster, err := h.directory.Roster(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuctionFromModel(a, roster))
}
