package dlna

import (
	"bytes"
	"embed"
	"encoding/xml"
	"fmt"
	"strings"
	"text/template"
)

//go:embed xml
var documents embed.FS

// ContentType is the Content-Type of every XML document served.
const ContentType = `text/xml; charset="utf-8"`

var rootTemplate = template.Must(template.New("root.xml").
	Funcs(template.FuncMap{"xml": escape}).
	ParseFS(documents, "xml/root.xml"))

func escape(s string) string {
	var sb strings.Builder
	// Only fails if the writer does.
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

// Device is what the device description advertises.
type Device struct {
	Name    string
	UUID    string
	Version string
}

// DeviceDescription renders root.xml for d.
func DeviceDescription(d Device) ([]byte, error) {
	var buf bytes.Buffer
	if err := rootTemplate.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("rendering device description: %w", err)
	}
	return buf.Bytes(), nil
}

// ConnectionManagerSCPD returns the ConnectionManager service description.
func ConnectionManagerSCPD() []byte {
	return mustRead("xml/connection.xml")
}

// ContentDirectorySCPD returns the ContentDirectory service description.
func ContentDirectorySCPD() []byte {
	return mustRead("xml/content.xml")
}

func mustRead(name string) []byte {
	b, err := documents.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return b
}
