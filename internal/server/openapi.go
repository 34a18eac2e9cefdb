package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/cuetimer/internal/handler/health"
	"github.com/playperu/cuetimer/internal/wire"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type roomQueryParams struct {
	RoomCode string `query:"roomCode" required:"true" description:"6-character room code"`
}

type pollParams struct {
	RoomCode    string `query:"roomCode" required:"true" description:"6-character room code"`
	IfNoneMatch string `header:"If-None-Match" description:"ETag of the last snapshot seen"`
}

type roomPathParams struct {
	Code string `path:"code" description:"6-character room code"`
}

type roomCommandRequest struct {
	roomPathParams
	wire.CommandRequest
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Cue Timer API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Shared countdown timers for broadcast control rooms.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Reports the state of the label database.")
	getHealthz.AddRespStructure(map[string]health.Result{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]health.Result{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/rooms
	postRooms, _ := r.NewOperationContext(http.MethodPost, "/api/rooms")
	postRooms.SetSummary("Create or join a room")
	postRooms.SetDescription(`Action "create" allocates a fresh room code; "join" returns the state of an existing room.`)
	postRooms.AddReqStructure(wire.RoomRequest{})
	postRooms.AddRespStructure(wire.RoomCreated{}, openapi.WithHTTPStatus(http.StatusCreated))
	postRooms.AddRespStructure(wire.RoomJoined{}, openapi.WithHTTPStatus(http.StatusOK))
	postRooms.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postRooms.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postRooms)

	// GET /api/rooms
	getRoom, _ := r.NewOperationContext(http.MethodGet, "/api/rooms")
	getRoom.SetSummary("Fetch a room")
	getRoom.AddReqStructure(roomQueryParams{})
	getRoom.AddRespStructure(wire.RoomJoined{}, openapi.WithHTTPStatus(http.StatusOK))
	getRoom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getRoom)

	// GET /api/timers
	getTimers, _ := r.NewOperationContext(http.MethodGet, "/api/timers")
	getTimers.SetSummary("Poll room snapshot")
	getTimers.SetDescription("Returns the full room snapshot with an ETag of its version. A matching If-None-Match yields 304.")
	getTimers.AddReqStructure(pollParams{})
	getTimers.AddRespStructure(wire.RoomSnapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	getTimers.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNotModified))
	getTimers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getTimers)

	// POST /api/timers/command
	postCommand, _ := r.NewOperationContext(http.MethodPost, "/api/timers/command")
	postCommand.SetSummary("Send a timer command")
	postCommand.SetDescription("Applies one command to the room in roomCode and returns the updated snapshot.")
	postCommand.AddReqStructure(wire.CommandRequest{})
	postCommand.AddRespStructure(wire.RoomSnapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	postCommand.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postCommand.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postCommand)

	// POST /api/rooms/{code}/command
	postRoomCommand, _ := r.NewOperationContext(http.MethodPost, "/api/rooms/{code}/command")
	postRoomCommand.SetSummary("Send a timer command to a room")
	postRoomCommand.SetDescription("Same as /api/timers/command with the room in the path, for macro devices.")
	postRoomCommand.AddReqStructure(roomCommandRequest{})
	postRoomCommand.AddRespStructure(wire.RoomSnapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	postRoomCommand.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postRoomCommand.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postRoomCommand)

	// GET /api/timers/stream
	getStream, _ := r.NewOperationContext(http.MethodGet, "/api/timers/stream")
	getStream.SetSummary("SSE room stream")
	getStream.SetDescription("Server-Sent Events: connected, then state, then update on every change, heartbeat periodically.")
	getStream.AddReqStructure(roomQueryParams{})
	getStream.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	getStream.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getStream)

	// GET /api/timers/ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/api/timers/ws")
	getWS.SetSummary("WebSocket room channel")
	getWS.SetDescription("Upgrades to a WebSocket carrying the stream events. Text frames sent by the client are command requests.")
	getWS.AddReqStructure(roomQueryParams{})
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	// GET /api/labels
	getLabels, _ := r.NewOperationContext(http.MethodGet, "/api/labels")
	getLabels.SetSummary("List labels")
	getLabels.AddRespStructure(LabelsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getLabels)

	// POST /api/labels
	postLabels, _ := r.NewOperationContext(http.MethodPost, "/api/labels")
	postLabels.SetSummary("Edit labels")
	postLabels.SetDescription("Adds, updates, deletes or reorders labels. Text is clipped to 10 characters.")
	postLabels.AddReqStructure(LabelRequest{})
	postLabels.AddRespStructure(LabelsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLabels.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postLabels.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postLabels)

	// GET /api/offline
	getOffline, _ := r.NewOperationContext(http.MethodGet, "/api/offline")
	getOffline.SetSummary("Read the default room")
	getOffline.SetDescription("Snapshot of the first default room with per-timer status strings and the label list. Only mounted when a default room exists.")
	getOffline.AddRespStructure(OfflineState{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getOffline)

	// POST /api/offline
	postOffline, _ := r.NewOperationContext(http.MethodPost, "/api/offline")
	postOffline.SetSummary("Command the default room")
	postOffline.AddReqStructure(wire.CommandRequest{})
	postOffline.AddRespStructure(OfflineState{}, openapi.WithHTTPStatus(http.StatusOK))
	postOffline.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postOffline)

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
