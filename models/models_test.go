package models

import (
	"encoding/json"
	"testing"
)

func TestDailyRecordCreateRequest_BlankNumbersAreZero(t *testing.T) {
	body := `{
		"date": "2024-05-01",
		"worker_name": "",
		"rides_today": "",
		"admin_rides": " ",
		"cash_withdrawn": "",
		"cash_in_box": "",
		"card_payments": null,
		"toys_sold_total": "1500.50"
	}`
	var req DailyRecordCreateRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.Date != "2024-05-01" || req.RidesToday != 0 || req.AdminRides != 0 {
		t.Fatalf("unexpected request %+v", req)
	}
	if !req.CashWithdrawn.IsZero() || !req.CashInBox.IsZero() || !req.CardPayments.IsZero() {
		t.Fatalf("blank amounts should be zero: %+v", req)
	}
	if req.ToysSoldTotal.String() != "1500.5" {
		t.Fatalf("toys_sold_total = %s", req.ToysSoldTotal)
	}

	// Un texto no numérico sigue siendo un error
	if err := json.Unmarshal([]byte(`{"cash_in_box":"mucho"}`), &req); err == nil {
		t.Fatal("expected error for non numeric amount")
	}
}

func TestDailyRecordUpdateRequest_BlankIsPresentZero(t *testing.T) {
	var req DailyRecordUpdateRequest
	if err := json.Unmarshal([]byte(`{"cash_in_box":"","admin_rides":""}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.CashInBox == nil || !req.CashInBox.IsZero() {
		t.Fatalf("cash_in_box should be present and zero, got %v", req.CashInBox)
	}
	if req.AdminRides == nil || *req.AdminRides != 0 {
		t.Fatalf("admin_rides should be present and zero, got %v", req.AdminRides)
	}
	if req.CardPayments != nil || req.RidesToday != nil {
		t.Fatalf("omitted fields must stay nil: %+v", req)
	}
}
