package classifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"customs-cost/core/orangezone"
	"customs-cost/core/types"
	"customs-cost/internal/errors"
)

func TestSelectRegulatoryCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/select-code" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"code":"6115950000","duty_type":"ad_valorem","duty_rate":10,"vat_rate":20}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	got, err := c.SelectRegulatoryCode(context.Background(), types.ProductContext{Name: "socks"})
	if err != nil {
		t.Fatalf("SelectRegulatoryCode: %v", err)
	}
	if got.Code != "6115950000" {
		t.Errorf("code = %s", got.Code)
	}
	if got.Duty.Type != types.DutyAdValorem || got.Duty.Rate != 10 {
		t.Errorf("duty = %+v", got.Duty)
	}
}

func TestReviewOrangeZone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pass":false,"reason":"mandatory marking"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	got, err := c.ReviewOrangeZone(context.Background(), orangezone.ReviewRequest{Code: "6403990000"})
	if err != nil {
		t.Fatalf("ReviewOrangeZone: %v", err)
	}
	if got.Pass || got.Reason != "mandatory marking" {
		t.Errorf("review = %+v", got)
	}
}

func TestRetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"code":"6115950000","duty_type":"ad_valorem","duty_rate":10,"vat_rate":20}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, WithMaxRetries(2))
	if _, err := c.SelectRegulatoryCode(context.Background(), types.ProductContext{Name: "socks"}); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestGivesUpAfterBoundedRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, WithMaxRetries(2))
	_, err := c.SelectRegulatoryCode(context.Background(), types.ProductContext{Name: "socks"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.IsType(err, errors.TypeClassifierUnavailable) {
		t.Errorf("error type = %v, want CLASSIFIER_UNAVAILABLE", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3 (1 + 2 retries)", got)
	}
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, WithMaxRetries(2))
	if _, err := c.SelectRegulatoryCode(context.Background(), types.ProductContext{Name: "socks"}); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}
