package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/cuetimer/internal/labels"
	"github.com/playperu/cuetimer/internal/rooms"
)

type LabelsResponse struct {
	Success bool           `json:"success"`
	Labels  []labels.Label `json:"labels"`
	Label   *labels.Label  `json:"label,omitempty"`
}

type LabelRequest struct {
	Action   string   `json:"action" enum:"add,update,delete,reorder"`
	ID       string   `json:"id,omitempty"`
	Text     string   `json:"text,omitempty"`
	LabelIDs []string `json:"labelIds,omitempty"`
}

func handleListLabels(ls *labels.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, LabelsResponse{Success: true, Labels: ls.List()})
	}
}

func handleLabels(logger *slog.Logger, reg *rooms.Registry, ls *labels.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LabelRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ctx := r.Context()
		resp := LabelsResponse{Success: true}

		switch req.Action {
		case "add":
			l, err := ls.Add(ctx, req.Text)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			resp.Label = &l
			logger.Info("label added", "label", l.ID, "text", l.Text)

		case "update":
			if req.ID == "" {
				writeError(w, http.StatusBadRequest, "id is required")
				return
			}
			l, err := ls.Update(ctx, req.ID, req.Text)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			resp.Label = &l
			if codes := reg.LabelChanged(l.ID); len(codes) > 0 {
				logger.Debug("label republished", "label", l.ID, "rooms", codes)
			}

		case "delete":
			if req.ID == "" {
				writeError(w, http.StatusBadRequest, "id is required")
				return
			}
			if err := ls.Delete(ctx, req.ID); err != nil {
				writeDomainError(w, logger, err)
				return
			}
			logger.Info("label deleted", "label", req.ID, "rooms", reg.LabelChanged(req.ID))

		case "reorder":
			if req.LabelIDs == nil {
				writeError(w, http.StatusBadRequest, "labelIds is required")
				return
			}
			if err := ls.Reorder(ctx, req.LabelIDs); err != nil {
				writeDomainError(w, logger, err)
				return
			}

		default:
			writeError(w, http.StatusBadRequest, "invalid action")
			return
		}

		resp.Labels = ls.List()
		writeJSON(w, http.StatusOK, resp)
	}
}
