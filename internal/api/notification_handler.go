package api

import (
	"log/slog"
	"net/http"

	"github.com/air-con/task-manager/internal/api/shared"
	"github.com/air-con/task-manager/internal/notify"
)

// NotificationResponse reports the notification switch state.
type NotificationResponse struct {
	Enabled bool `json:"enabled"`
}

// NotificationHandler exposes the process-wide notification switch.
type NotificationHandler struct {
	sw     *notify.Switch
	logger *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(sw *notify.Switch, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		sw:     sw,
		logger: logger.With("component", "notification_handler"),
	}
}

// Status handles GET /api/notifications/status requests.
func (h *NotificationHandler) Status(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, NotificationResponse{Enabled: h.sw.Enabled()})
}

// Toggle handles POST /api/notifications/toggle requests.
func (h *NotificationHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	enabled := h.sw.Toggle()
	h.logger.Info("notification switch toggled", "enabled", enabled)
	shared.RespondWithJSON(w, r, http.StatusOK, NotificationResponse{Enabled: enabled})
}
