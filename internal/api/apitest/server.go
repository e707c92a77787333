// Package apitest provides an in-process fake of the typing backend.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Request is a recorded call to the fake backend.
type Request struct {
	Method   string
	Endpoint string
	Form     url.Values
}

// Reply is a canned response.
type Reply struct {
	Status int
	Body   any
}

// Server is a fake backend. Replies are keyed by endpoint name; unknown
// endpoints answer 404.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	replies  map[string][]Reply
	requests []Request
}

var endpoints = []string{
	"request_id",
	"request_paragraph",
	"translate_to_pig_latin",
	"analyze",
	"autocorrect",
	"report_progress",
	"request_progress",
	"fastest_words",
	"request_match",
	"wpm_threshold",
	"record_wpm",
	"submit_captcha",
	"leaderboard",
	"memeboard",
}

// New starts a fake backend. Close it when done.
func New() *Server {
	s := &Server{replies: make(map[string][]Reply)}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	for _, name := range endpoints {
		r.Post("/"+name, s.handle(name))
	}
	r.Get("/get_captcha", s.handle("get_captcha"))

	s.Server = httptest.NewServer(r)
	return s
}

// Reply queues body as the next 200 response for endpoint. The last queued
// reply is repeated once the queue drains.
func (s *Server) Reply(endpoint string, body any) {
	s.ReplyStatus(endpoint, http.StatusOK, body)
}

// ReplyStatus queues a response with an explicit status.
func (s *Server) ReplyStatus(endpoint string, status int, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[endpoint] = append(s.replies[endpoint], Reply{Status: status, Body: body})
}

// Requests returns the recorded calls to endpoint, in order.
func (s *Server) Requests(endpoint string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, req := range s.requests {
		if req.Endpoint == endpoint {
			out = append(out, req)
		}
	}
	return out
}

func (s *Server) handle(endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Endpoint: endpoint, Form: r.PostForm})
		queue := s.replies[endpoint]
		var reply Reply
		found := len(queue) > 0
		if found {
			reply = queue[0]
			if len(queue) > 1 {
				s.replies[endpoint] = queue[1:]
			}
		}
		s.mu.Unlock()

		if !found {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no reply for " + endpoint})
			return
		}
		if endpoint == "submit_captcha" && reply.Status == http.StatusOK {
			http.SetCookie(w, &http.Cookie{Name: "verified_wpm", Value: "1", Path: "/"})
		}
		writeJSON(w, reply.Status, reply.Body)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
