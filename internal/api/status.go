package api

import (
	"fmt"
	"net/http"
	"time"
)

// StatusResponse is the read-only device snapshot served at /api/v1/status.
type StatusResponse struct {
	DeviceID      string `json:"device_id"`
	Relay         string `json:"relay"`
	Connection    string `json:"connection"`
	Broker        string `json:"broker"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// handleStatus returns the current relay and connection state.
//
// Device identity and broker address come from the boot-time configuration,
// not the provisioning store: a saved-but-not-yet-applied document must not
// make the page claim a broker the process is not talking to.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		DeviceID:      s.cfg.Device.ID,
		Relay:         s.relay.Current().String(),
		Connection:    s.session.State().String(),
		Broker:        fmt.Sprintf("%s:%d", s.cfg.MQTT.Broker.Host, s.cfg.MQTT.Broker.Port),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	})
}
