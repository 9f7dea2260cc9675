package dlna

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ContentDirectoryType is the service type Browse is addressed to.
const ContentDirectoryType = "urn:schemas-upnp-org:service:ContentDirectory:1"

const (
	soapEnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	soapEncodingNS = "http://schemas.xmlsoap.org/soap/encoding/"

	actionPrefix = ContentDirectoryType + "#"

	// maxRequestBody bounds a control request body.
	maxRequestBody = 1 << 20
)

// ErrProtocol marks a malformed or unsupported control request. It is
// answered with a SOAP fault rather than an HTTP error.
var ErrProtocol = errors.New("soap protocol error")

// Fault is a SOAP client fault. It wraps ErrProtocol.
type Fault struct {
	Message string
}

func (f *Fault) Error() string { return f.Message }

func (f *Fault) Unwrap() error { return ErrProtocol }

func faultf(format string, args ...any) *Fault {
	return &Fault{Message: fmt.Sprintf(format, args...)}
}

// ParseAction extracts the action name from a SOAPACTION header value.
func ParseAction(header string) (string, error) {
	if header == "" {
		return "", faultf("No Soapaction header.")
	}
	action := strings.Trim(header, `"`)
	name, ok := strings.CutPrefix(action, actionPrefix)
	if !ok {
		return "", faultf("Unknown action namespace: %q", action)
	}
	return name, nil
}

// BrowseRequest holds the arguments of a Browse call. Only ObjectID is
// used; results are never paginated.
type BrowseRequest struct {
	ObjectID       string `xml:"ObjectID"`
	BrowseFlag     string `xml:"BrowseFlag"`
	Filter         string `xml:"Filter"`
	StartingIndex  uint32 `xml:"StartingIndex"`
	RequestedCount uint32 `xml:"RequestedCount"`
	SortCriteria   string `xml:"SortCriteria"`
}

// Elements are matched by local name, so any envelope prefix is accepted.
type requestEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Browse *BrowseRequest `xml:"Browse"`
	} `xml:"Body"`
}

// DecodeBrowse reads a Browse request envelope.
func DecodeBrowse(r io.Reader) (*BrowseRequest, error) {
	var env requestEnvelope
	if err := xml.NewDecoder(io.LimitReader(r, maxRequestBody)).Decode(&env); err != nil {
		return nil, faultf("Malformed request body: %v", err)
	}
	if env.Body.Browse == nil {
		return nil, faultf("Missing Browse element.")
	}
	return env.Body.Browse, nil
}

type responseEnvelope struct {
	XMLName       xml.Name `xml:"SOAP-ENV:Envelope"`
	NS            string   `xml:"xmlns:SOAP-ENV,attr"`
	EncodingStyle string   `xml:"SOAP-ENV:encodingStyle,attr"`
	Body          struct {
		Content any
	} `xml:"SOAP-ENV:Body"`
}

type soapFault struct {
	XMLName     xml.Name `xml:"SOAP-ENV:Fault"`
	FaultCode   string   `xml:"faultcode"`
	FaultString string   `xml:"faultstring"`
}

type browseResponse struct {
	XMLName        xml.Name `xml:"u:BrowseResponse"`
	NS             string   `xml:"xmlns:u,attr"`
	Result         string   `xml:"Result"`
	NumberReturned int      `xml:"NumberReturned"`
	TotalMatches   int      `xml:"TotalMatches"`
	UpdateID       int      `xml:"UpdateID"`
}

// encodeEnvelope wraps content in a SOAP envelope.
func encodeEnvelope(content any) ([]byte, error) {
	env := responseEnvelope{
		NS:            soapEnvelopeNS,
		EncodingStyle: soapEncodingNS,
	}
	env.Body.Content = content

	b, err := xml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encoding SOAP envelope: %w", err)
	}
	return append([]byte(xml.Header), b...), nil
}

// EncodeFault renders a SOAP-ENV:Client fault carrying message.
func EncodeFault(message string) ([]byte, error) {
	return encodeEnvelope(soapFault{
		FaultCode:   "SOAP-ENV:Client",
		FaultString: message,
	})
}
