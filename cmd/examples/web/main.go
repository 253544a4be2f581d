package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/goliatone/go-inbox-relay/internal/di"
	"github.com/goliatone/go-inbox-relay/pkg/commands"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/store"
	"github.com/goliatone/go-inbox-relay/pkg/notifications"
	"github.com/goliatone/go-inbox-relay/pkg/stream"
)

// Minimal HTTP front end over the inbox relay: create, list, mark read, and
// a live SSE stream per user. Run it and exercise it with curl:
//
//	curl -XPOST localhost:8080/notifications -d '{"user_id":"u1","title":"hi","message":"hello"}'
//	curl localhost:8080/notifications?user_id=u1
//	curl -N localhost:8080/stream?user_id=u1
func main() {
	container, err := di.New(di.Options{Logger: logger.New()})
	if err != nil {
		log.Fatalf("build container: %v", err)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /notifications", func(w http.ResponseWriter, r *http.Request) {
		var msg commands.CreateNotification
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := container.Commands.CreateNotification.Execute(r.Context(), msg); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("GET /notifications", func(w http.ResponseWriter, r *http.Request) {
		result, err := container.Notifications.List(r.Context(), r.URL.Query().Get("user_id"), store.ListOptions{
			UnreadOnly: r.URL.Query().Get("unread") == "true",
		})
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	})

	mux.HandleFunc("POST /notifications/read", func(w http.ResponseWriter, r *http.Request) {
		var msg commands.MarkRead
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := container.Commands.MarkRead.Execute(r.Context(), msg); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /stream", func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		writer, err := stream.NewSSEWriter(w)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		session := stream.NewSession(container.Hub, userID, writer, stream.Options{
			KeepAliveInterval: container.Config.Stream.KeepAliveInterval,
		})
		if err := session.Run(r.Context()); err != nil {
			log.Printf("stream for %s ended: %v", userID, err)
		}
	})

	log.Println("listening on :8080")
	log.Fatal(http.ListenAndServe(":8080", mux))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case notifications.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, notifications.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
