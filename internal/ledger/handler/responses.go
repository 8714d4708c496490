package handler

import (
	"custody/internal/ledger/models"
)

type DepositResponse struct {
	Results []models.DepositResult `json:"results"`
}

type HoldingsResponse struct {
	Holdings []models.Holding `json:"holdings"`
}

type BalanceResponse struct {
	Asset  string `json:"asset"`
	Amount uint64 `json:"amount"`
}

type FeeResponse struct {
	Fee uint64 `json:"fee"`
}

type CollectResponse struct {
	Collected uint64 `json:"collected"`
}
