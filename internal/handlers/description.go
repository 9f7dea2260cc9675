package handlers

import (
	"net/http"

	"dlna-server/internal/dlna"
	"dlna-server/internal/logging"
)

// DeviceDescription serves GET /root.xml.
func (h *Handlers) DeviceDescription(w http.ResponseWriter, _ *http.Request) error {
	body, err := dlna.DeviceDescription(h.device)
	if err != nil {
		return err
	}
	writeXML(w, body)
	return nil
}

// ConnectionManagerDescription serves the ConnectionManager SCPD.
func (h *Handlers) ConnectionManagerDescription(w http.ResponseWriter, _ *http.Request) error {
	writeXML(w, dlna.ConnectionManagerSCPD())
	return nil
}

// ContentDirectoryDescription serves the ContentDirectory SCPD.
func (h *Handlers) ContentDirectoryDescription(w http.ResponseWriter, _ *http.Request) error {
	writeXML(w, dlna.ContentDirectorySCPD())
	return nil
}

func writeXML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", dlna.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logging.Debug("description write failed: %v", err)
	}
}
