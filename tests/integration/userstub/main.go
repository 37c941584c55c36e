// Command user-stub is a minimal in-memory stand-in for the user service,
// used by the integration tests. It serves a fixed set of users and addresses
// and applies wallet adjustments against in-memory balances.
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type user struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Role    string          `json:"role"`
	Balance decimal.Decimal `json:"wallet_balance"`
}

type address struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
}

type store struct {
	mu        sync.Mutex
	users     map[string]*user
	addresses map[string]*address
}

func newStore() *store {
	return &store{
		users: map[string]*user{
			"u-alice": {ID: "u-alice", Name: "Alice", Role: "customer", Balance: decimal.RequireFromString("500.00")},
			"u-bob":   {ID: "u-bob", Name: "Bob", Role: "owner", Balance: decimal.RequireFromString("500.00")},
			"u-carol": {ID: "u-carol", Name: "Carol", Role: "customer", Balance: decimal.RequireFromString("0.00")},
		},
		addresses: map[string]*address{
			"addr-1": {ID: "addr-1", UserID: "u-alice", Street: "1 Via Roma", City: "Naples", ZipCode: "80100"},
		},
	}
}

func main() {
	var addr string
	flag.StringVar(&addr, "addr", "0.0.0.0:8081", "listen address")
	flag.Parse()

	st := newStore()
	r := chi.NewRouter()

	r.Get("/users/{userID}", func(w http.ResponseWriter, req *http.Request) {
		st.mu.Lock()
		defer st.mu.Unlock()

		u, ok := st.users[chi.URLParam(req, "userID")]
		if !ok {
			http.Error(w, `{"message":"user not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, u)
	})

	r.Post("/users/{userID}/wallet", func(w http.ResponseWriter, req *http.Request) {
		st.mu.Lock()
		defer st.mu.Unlock()

		u, ok := st.users[chi.URLParam(req, "userID")]
		if !ok {
			http.Error(w, `{"message":"user not found"}`, http.StatusNotFound)
			return
		}

		var body struct {
			Amount decimal.Decimal `json:"amount"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, `{"message":"invalid body"}`, http.StatusBadRequest)
			return
		}

		next := u.Balance.Add(body.Amount)
		if next.IsNegative() {
			http.Error(w, `{"message":"insufficient funds"}`, http.StatusUnprocessableEntity)
			return
		}
		u.Balance = next
		writeJSON(w, u)
	})

	r.Get("/addresses/{addressID}", func(w http.ResponseWriter, req *http.Request) {
		st.mu.Lock()
		defer st.mu.Unlock()

		a, ok := st.addresses[chi.URLParam(req, "addressID")]
		if !ok {
			http.Error(w, `{"message":"address not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, a)
	})

	slog.Info("user stub listening", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
