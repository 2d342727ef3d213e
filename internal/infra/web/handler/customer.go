package handler

import (
	"net/http"

	"github.com/DioGolang/GoCommon/internal/application/usecase/customer"
	"github.com/DioGolang/GoCommon/pkg/logger"
)

type Customer struct {
	CreateUseCase  customer.Creator
	DetailsUseCase customer.Detailer
	Logger         logger.Logger
}

func NewCustomerHandler(create customer.Creator, details customer.Detailer, log logger.Logger) *Customer {
	return &Customer{CreateUseCase: create, DetailsUseCase: details, Logger: log}
}

func (h *Customer) Create(w http.ResponseWriter, r *http.Request) {
	var input customer.CreateInput
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

// Details returns the customer with every order, item and product loaded
// in one unit of work.
func (h *Customer) Details(w http.ResponseWriter, r *http.Request) {
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
