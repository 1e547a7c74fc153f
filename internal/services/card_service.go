package services

import (
	"net/http"

	"github.com/ledgerbank/backend/internal/auth"
	"github.com/ledgerbank/backend/internal/logger"
	"github.com/ledgerbank/backend/internal/models"
	"github.com/ledgerbank/backend/internal/storage"
)

type CardService struct {
	store     storage.CardStore
	validator *ValidationHelper
}

// ToggleBlockRequest sets the block flag of a card
type ToggleBlockRequest struct {
	CardID    *int64 `json:"card_id,omitempty" validate:"omitempty,gt=0"` // Staff only
	IsBlocked *bool  `json:"is_blocked" validate:"required"`
}

func NewCardService(store storage.CardStore, validator *ValidationHelper) *CardService {
	return &CardService{store: store, validator: validator}
}

// ToggleBlock blocks or unblocks a card. Repeating a request is a no-op.
// @Summary Block or unblock a card
// @Tags cards
// @Accept json
// @Produce json
// @Param request body ToggleBlockRequest true "Desired state"
// @Success 200 {object} models.CardToggle
// @Failure 404 {object} ErrorResponse
// @Router /cards/toggle-block [put]
func (cs *CardService) ToggleBlock(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req ToggleBlockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := cs.validator.ValidateStruct(&req); err != nil {
		writeError(w, r, err)
		return
	}

	card, err := cs.resolveCard(r, p, req.CardID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	desired := *req.IsBlocked
	previous := card.IsBlocked
	if previous != desired {
		if previous, err = cs.store.SetCardBlocked(r.Context(), card.ID, desired); err != nil {
			writeError(w, r, err)
			return
		}
	}

	result := models.CardToggle{
		Status:    models.ToggleStatusSuccess,
		CardID:    card.ID,
		OldStatus: models.CardStatusLabel(previous),
		NewStatus: models.CardStatusLabel(desired),
	}
	if previous == desired {
		result.Status = models.ToggleStatusNoChange
	} else {
		logger.FromContext(r.Context()).Info().
			Int64("card_id", card.ID).
			Str("new_status", result.NewStatus).
			Msg("card status changed")
	}
	writeJSON(w, http.StatusOK, result)
}

func (cs *CardService) resolveCard(r *http.Request, p auth.Principal, requested *int64) (models.Card, error) {
	switch p := p.(type) {
	case auth.Customer:
		card, err := cs.store.CardForAccount(r.Context(), p.AccountID)
		if err != nil {
			return models.Card{}, err
		}
		if requested != nil && *requested != card.ID {
			return models.Card{}, errForbidden
		}
		return card, nil
	case auth.Employee, auth.Admin:
		if requested == nil {
			return models.Card{}, errCardRequired
		}
		return cs.store.CardByID(r.Context(), *requested)
	default:
		return models.Card{}, errForbidden
	}
}
