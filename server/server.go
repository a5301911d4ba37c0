package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/ahmadzakiakmal/order-engine/logger"
	"github.com/ahmadzakiakmal/order-engine/srvreg"
	"github.com/google/uuid"
)

// WebServer handles HTTP requests for the order engine
type WebServer struct {
	httpAddr        string
	server          *http.Server
	serviceRegistry *srvreg.ServiceRegistry
	startTime       time.Time
	log             *logger.Logger
}

// NewWebServer creates a new web server
func NewWebServer(httpPort string, serviceRegistry *srvreg.ServiceRegistry, logg *logger.Logger) *WebServer {
	mux := http.NewServeMux()

	ws := &WebServer{
		httpAddr: ":" + httpPort,
		server: &http.Server{
			Addr:    ":" + httpPort,
			Handler: mux,
		},
		serviceRegistry: serviceRegistry,
		startTime:       time.Now(),
		log:             logg.With("component", "server"),
	}

	// Register routes
	mux.HandleFunc("/", ws.handleRoot)
	mux.HandleFunc("/info", ws.handleAPI)
	mux.HandleFunc("/order", ws.handleAPI)
	mux.HandleFunc("/order/", ws.handleAPI)
	mux.HandleFunc("/orders", ws.handleAPI)

	return ws
}

// Start starts the web server
func (ws *WebServer) Start() error {
	ws.log.Info("starting web server", "addr", ws.httpAddr)

	go func() {
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.log.Error("web server error", "err", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the web server
func (ws *WebServer) Shutdown(ctx context.Context) error {
	ws.log.Info("shutting down web server")
	return ws.server.Shutdown(ctx)
}

// handleRoot shows service information
func (ws *WebServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(ws.startTime).Round(time.Second)

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("<h1>Order Engine</h1>"))
	w.Write([]byte("<p>Uptime: " + uptime.String() + "</p>"))
	w.Write([]byte(`
	<h2>Endpoints</h2>
	<ul>
		<li><strong>POST /order</strong> - Persist an order aggregate</li>
		<li><strong>GET /orders</strong> - List all orders (served from cache)</li>
		<li><strong>GET /order/:uid</strong> - Get one order by business id</li>
		<li><strong>GET /info</strong> - Service information</li>
	</ul>
	`))
}

// handleAPI dispatches all API requests through the service registry
func (ws *WebServer) handleAPI(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()[:8]

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	req := &srvreg.Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Body:   string(bodyBytes),
	}

	response, err := req.GenerateResponse(ws.serviceRegistry)
	if err != nil {
		ws.log.Error("failed to generate response", "request_id", requestID, "err", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeResponse(w, response)

	ws.log.Info("request processed",
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
		"status", response.StatusCode,
	)
}

// writeResponse writes a Response to http.ResponseWriter
func writeResponse(w http.ResponseWriter, resp *srvreg.Response) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	w.WriteHeader(resp.StatusCode)
	w.Write([]byte(resp.Body))
}

// jsonError writes a JSON error response
func jsonError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := map[string]string{
		"error": message,
	}
	json.NewEncoder(w).Encode(errorResp)
}
