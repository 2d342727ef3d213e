package handler

import (
	"net/http"

	"github.com/DioGolang/GoCommon/internal/application/usecase/order"
	"github.com/DioGolang/GoCommon/pkg/logger"
)

type Order struct {
	CreateUseCase  order.CreateUseCase
	ShipUseCase    order.ShipUseCase
	DetailsUseCase order.DetailsUseCase
	Logger         logger.Logger
}

func NewOrderHandler(create order.CreateUseCase, ship order.ShipUseCase, details order.DetailsUseCase, log logger.Logger) *Order {
	return &Order{
		CreateUseCase:  create,
		ShipUseCase:    ship,
		DetailsUseCase: details,
		Logger:         log,
	}
}

func (h *Order) Create(w http.ResponseWriter, r *http.Request) {
	var input order.CreateInput
	if !decode(w, r, &input) {
		return
	}

	output, err := h.CreateUseCase.Execute(r.Context(), input)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, output)
}

func (h *Order) Ship(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var input order.ShipInput
	if !decode(w, r, &input) {
		return
	}
	input.OrderID = id

	output, err := h.ShipUseCase.Execute(r.Context(), input)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

func (h *Order) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	output, err := h.DetailsUseCase.Execute(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}
