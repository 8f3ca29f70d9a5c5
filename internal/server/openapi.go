package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/mafianight/internal/mafia"
	"github.com/playperu/mafianight/internal/stats"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse maps each checked dependency to its status.
type HealthResponse map[string]struct {
	Status string `json:"status"`
}

type codePath struct {
	Code string `path:"code" description:"6-digit game code"`
}

type playerPath struct {
	Code     string `path:"code"`
	PlayerID string `path:"playerID"`
}

type userPath struct {
	UserID string `path:"userID"`
}

type streamParams struct {
	Code  string `path:"code"`
	Token string `query:"token" description:"Bearer token, for clients that cannot set headers"`
}

type operation struct {
	method, path, summary, description string

	params any
	req    any
	resp   any
	status int
	errors []int

	// contentType overrides the JSON response, for streams.
	contentType string
}

var operations = []operation{
	{
		method: http.MethodGet, path: "/healthz",
		summary: "Health check", description: "Returns the health status of backend dependencies.",
		resp: HealthResponse{}, status: http.StatusOK, errors: []int{http.StatusServiceUnavailable},
	},
	{
		method: http.MethodPost, path: "/api/auth/register",
		summary: "Register", description: "Creates an account and returns a bearer token.",
		req: RegisterRequest{}, resp: AuthResponse{}, status: http.StatusCreated,
		errors: []int{http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity},
	},
	{
		method: http.MethodPost, path: "/api/auth/login",
		summary: "Log in", description: "Checks email and password and returns a bearer token.",
		req: LoginRequest{}, resp: AuthResponse{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusUnauthorized},
	},
	{
		method: http.MethodPost, path: "/api/auth/logout",
		summary: "Log out", description: "Revokes the bearer token used for the request.",
		status: http.StatusNoContent, errors: []int{http.StatusUnauthorized},
	},
	{
		method: http.MethodGet, path: "/api/me",
		summary: "Current user", description: "Returns the identity behind the bearer token.",
		resp: mafia.Identity{}, status: http.StatusOK, errors: []int{http.StatusUnauthorized},
	},
	{
		method: http.MethodGet, path: "/api/users/{userID}/stats", params: userPath{},
		summary: "User statistics", description: "Returns games played, won and hosted, and role counts.",
		resp: stats.PlayerStats{}, status: http.StatusOK, errors: []int{http.StatusUnauthorized},
	},
	{
		method: http.MethodPost, path: "/api/sessions",
		summary: "Create game", description: "Creates a waiting game hosted by the caller and returns its 6-digit code.",
		req: CreateSessionRequest{}, resp: CreateSessionResponse{}, status: http.StatusCreated,
		errors: []int{http.StatusUnauthorized, http.StatusUnprocessableEntity, http.StatusServiceUnavailable},
	},
	{
		method: http.MethodGet, path: "/api/sessions",
		summary: "List my games", description: "Returns every game the caller hosts or plays in, newest first.",
		resp: []mafia.Session{}, status: http.StatusOK, errors: []int{http.StatusUnauthorized},
	},
	{
		method: http.MethodGet, path: "/api/sessions/{code}", params: codePath{},
		summary: "Get game", description: "Returns the game as the caller may see it.",
		resp: mafia.Session{}, status: http.StatusOK, errors: []int{http.StatusUnauthorized, http.StatusNotFound},
	},
	{
		method: http.MethodPost, path: "/api/sessions/{code}/join", params: codePath{},
		summary: "Join game", description: "Adds the caller to a waiting game.",
		resp: mafia.Session{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict},
	},
	{
		method: http.MethodPost, path: "/api/sessions/{code}/leave", params: codePath{},
		summary: "Leave game", description: "Removes the caller. A host leaving a lobby deletes it; a host leaving a running game ends it.",
		status: http.StatusNoContent, errors: []int{http.StatusUnauthorized},
	},
	{
		method: http.MethodDelete, path: "/api/sessions/{code}/players/{playerID}", params: playerPath{},
		summary: "Remove player", description: "Host evicts a player.",
		status: http.StatusNoContent,
		errors: []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	},
	{
		method: http.MethodPost, path: "/api/sessions/{code}/start", params: codePath{},
		summary: "Start game", description: "Host deals roles and opens the preparation phase.",
		resp: mafia.Session{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	},
	{
		method: http.MethodPost, path: "/api/sessions/{code}/end", params: codePath{},
		summary: "End game", description: "Host ends the game.",
		resp: mafia.Session{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	},
	{
		method: http.MethodPut, path: "/api/sessions/{code}/phase", params: codePath{},
		summary: "Set phase", description: "Host jumps to any phase.",
		req: PhaseRequest{}, resp: mafia.Session{}, status: http.StatusOK,
		errors: []int{http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	},
	{
		method: http.MethodPost, path: "/api/sessions/{code}/phase/advance", params: codePath{},
		summary: "Advance phase", description: "Host moves to the next phase of the cycle.",
		resp: mafia.Session{}, status: http.StatusOK,
		errors: []int{http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	},
	{
		method: http.MethodPost, path: "/api/sessions/{code}/phase/expire", params: codePath{},
		summary: "Expire phase", description: "A member's timer reports that the named phase ran out. Only the first report advances.",
		req: PhaseRequest{}, resp: mafia.Session{}, status: http.StatusOK,
		errors: []int{http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	},
	{
		method: http.MethodPost, path: "/api/sessions/{code}/votes", params: codePath{},
		summary: "Vote", description: "Casts or replaces the caller's vote in the mafia or civilian pool.",
		req: VoteRequest{}, status: http.StatusNoContent,
		errors: []int{http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	},
	{
		method: http.MethodPost, path: "/api/sessions/{code}/investigations", params: codePath{},
		summary: "Investigate", description: "Detective learns whether the target is Mafia.",
		req: TargetRequest{}, resp: InvestigateResponse{}, status: http.StatusOK,
		errors: []int{http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	},
	{
		method: http.MethodPost, path: "/api/sessions/{code}/protections", params: codePath{},
		summary: "Protect", description: "Doctor protects a player for the night.",
		req: TargetRequest{}, status: http.StatusNoContent,
		errors: []int{http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	},
	{
		method: http.MethodPost, path: "/api/sessions/{code}/eliminations", params: codePath{},
		summary: "Eliminate", description: "Host eliminates a player and the winner is recomputed.",
		req: EliminateRequest{}, resp: mafia.Session{}, status: http.StatusOK,
		errors: []int{http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	},
	{
		method: http.MethodGet, path: "/api/sessions/{code}/events", params: streamParams{},
		summary: "SSE event stream", description: "Server-Sent Events with a state event per change and a deleted event at the end. The token may be passed as a query parameter.",
		status: http.StatusOK, contentType: "text/event-stream",
		errors: []int{http.StatusUnauthorized, http.StatusNotFound},
	},
	{
		method: http.MethodGet, path: "/api/sessions/{code}/ws", params: streamParams{},
		summary: "WebSocket stream", description: "Upgrades to a WebSocket that sends a JSON frame per change. The token may be passed as a query parameter.",
		status: http.StatusSwitchingProtocols, contentType: "application/json",
		errors: []int{http.StatusUnauthorized, http.StatusNotFound},
	},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Mafia Night API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for hosting Mafia game nights.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		if op.params != nil {
			oc.AddReqStructure(op.params)
		}
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}

		switch {
		case op.contentType != "":
			oc.AddRespStructure(nil, openapi.WithHTTPStatus(op.status), openapi.WithContentType(op.contentType))
		default:
			oc.AddRespStructure(op.resp, openapi.WithHTTPStatus(op.status))
		}
		for _, status := range op.errors {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(status))
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func handleSwaggerUI() http.HandlerFunc {
	return v5emb.New("Mafia Night API", "/openapi.json", "/docs").ServeHTTP
}
