package hoaapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", Options{Timeout: 2 * time.Second})
}

func TestLoginSendsCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not carry a bearer token")
		}
		var body LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Email != "a@b.c" || body.Password != "pw" {
			t.Errorf("unexpected body %+v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok", "role": "resident"})
	})
	resp, err := c.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token != "tok" || resp.Role != "resident" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestLoginMissingToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"role":"admin"}`))
	})
	if _, err := c.Login(context.Background(), LoginRequest{}); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestBackendMessageIsKept(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
	})
	_, err := c.Login(context.Background(), LoginRequest{Email: "x", Password: "y"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected APIError 400, got %v", err)
	}
	if got := UserMessage(err, "login failed"); got != "Invalid credentials" {
		t.Fatalf("expected backend message, got %q", got)
	}
}

func TestGenericFallbackMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>oops</html>"))
	})
	_, err := c.PaymentHistory(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := UserMessage(err, "request failed"); got != "request failed" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"jwt expired"}`))
	})
	_, err := c.PaymentHistory(context.Background(), "tok")
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestPaymentRoundTrip(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token on %s", r.URL.Path)
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/resident/payment/initiate":
			var req InitiatePaymentRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Amount != 500 || req.BillType != "maintenance" || req.Method != "online" {
				t.Errorf("unexpected initiate body %+v", req)
			}
			_, _ = w.Write([]byte(`{"paymentId":"P1","transactionId":"T1"}`))
		case r.Method == http.MethodPut && r.URL.Path == "/resident/payment/P1/success":
			_, _ = w.Write([]byte(`{"message":"Payment successful","payment":{"_id":"P1","transactionId":"T1","status":"completed"}}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()
	started, err := c.InitiatePayment(ctx, "tok", InitiatePaymentRequest{Amount: 500, BillType: "maintenance", Method: "online"})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if started.PaymentID != "P1" || started.TransactionID != "T1" {
		t.Fatalf("unexpected initiate response %+v", started)
	}
	done, err := c.CompletePayment(ctx, "tok", started.PaymentID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Payment == nil || done.Payment.Status != "completed" {
		t.Fatalf("unexpected complete response %+v", done)
	}
}

func TestInitiateMissingIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"paymentId":"P1"}`))
	})
	if _, err := c.InitiatePayment(context.Background(), "tok", InitiatePaymentRequest{}); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestListShapes(t *testing.T) {
	bodies := map[string]string{
		"bare":    `[{"_id":"1","title":"Pool closed"}]`,
		"data":    `{"data":[{"_id":"1","title":"Pool closed"}]}`,
		"keyed":   `{"announcements":[{"_id":"1","title":"Pool closed"}]}`,
		"wrapped": `{"success":true,"data":[{"_id":"1","title":"Pool closed"}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			items, err := List[Announcement](context.Background(), c, "tok", "/resident/announcements", "announcements")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(items) != 1 || items[0].ID != "1" {
				t.Fatalf("unexpected items %+v", items)
			}
		})
	}
}

func TestListRejectsInvalidElement(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"_id":"1"},{"title":"no id"}]`))
	})
	if _, err := List[Announcement](context.Background(), c, "tok", "/x", "announcements"); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestListEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"payments":null}`))
	})
	items, err := c.PaymentHistory(context.Background(), "tok")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}
}

func TestCreateUnwrapsData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"created","data":{"_id":"c1","title":"Leak"}}`))
	})
	item, err := Create[Complaint](context.Background(), c, "tok", "/resident/complaints", "complaint", json.RawMessage(`{"title":"Leak"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.ID != "c1" {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestCreateShapes(t *testing.T) {
	bodies := map[string]string{
		"bare":  `{"_id":"a1","title":"Pool closed"}`,
		"keyed": `{"message":"Announcement created","announcement":{"_id":"a1","title":"Pool closed"}}`,
		"data":  `{"success":true,"data":{"_id":"a1","title":"Pool closed"}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(body))
			})
			item, err := Create[Announcement](context.Background(), c, "tok", "/hoaadmin/announcements", "announcement", json.RawMessage(`{"title":"Pool closed"}`))
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if item.ID != "a1" || item.Title != "Pool closed" {
				t.Fatalf("unexpected item %+v", item)
			}
		})
	}
}

func TestReceipt(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/resident/payment/receipt/T1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="receipt_T1.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.4"))
	})
	rc, err := c.Receipt(context.Background(), "tok", "T1")
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}
	if rc.ContentType != "application/pdf" || rc.Filename != "receipt_T1.pdf" || string(rc.Data) != "%PDF-1.4" {
		t.Fatalf("unexpected receipt %+v", rc)
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL, Options{Timeout: 50 * time.Millisecond})
	if _, err := c.PaymentHistory(context.Background(), "tok"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
