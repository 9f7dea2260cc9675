package dlna

import (
	"errors"
	"net/http"

	"dlna-server/internal/devices"
	"dlna-server/internal/logging"
	"dlna-server/internal/metrics"
)

// Control handles POST /content/control. Protocol errors are answered with
// a SOAP fault and a 200 status; anything else is returned for the caller
// to map onto an HTTP error.
func (s *Service) Control(w http.ResponseWriter, r *http.Request) error {
	action, err := ParseAction(r.Header.Get("SOAPACTION"))
	if err != nil {
		return writeFault(w, err)
	}

	switch action {
	case "Browse":
		req, err := DecodeBrowse(r.Body)
		if err != nil {
			return writeFault(w, err)
		}

		result, err := s.Browse(r.Context(), req.ObjectID, devices.Identify(r.Header))
		if err != nil {
			metrics.BrowseRequestsTotal.WithLabelValues("error").Inc()
			return err
		}

		metrics.BrowseRequestsTotal.WithLabelValues("ok").Inc()
		metrics.BrowseObjectsReturned.Observe(float64(result.Objects()))
		logging.Debug("Browse %q: %d containers, %d items", req.ObjectID, result.Containers, result.Items)

		return writeXML(w, result.Body)

	default:
		return writeFault(w, faultf("Unknown action %q", action))
	}
}

func writeFault(w http.ResponseWriter, err error) error {
	var fault *Fault
	if !errors.As(err, &fault) {
		return err
	}

	metrics.BrowseRequestsTotal.WithLabelValues("fault").Inc()
	logging.Warn("SOAP fault: %s", fault.Message)

	body, err := EncodeFault(fault.Message)
	if err != nil {
		return err
	}
	return writeXML(w, body)
}

func writeXML(w http.ResponseWriter, body []byte) error {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logging.Debug("control response write failed: %v", err)
	}
	return nil
}
